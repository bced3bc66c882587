package withholding

// Field names a printable slot on the 50 ทวิ form.
type Field string

const (
	FieldPayerName     Field = "payer_name"
	FieldPayerAddress  Field = "payer_address"
	FieldPayerTaxID    Field = "payer_tax_id"
	FieldPayeeName     Field = "payee_name"
	FieldPayeeAddress  Field = "payee_address"
	FieldPayeeTaxID    Field = "payee_tax_id"
	FieldCheckPND3     Field = "check_pnd3"
	FieldCheckPND53    Field = "check_pnd53"
	FieldCheckWithheld Field = "check_withheld_at_source"
	FieldPaymentDate   Field = "payment_date"
	FieldRowBase       Field = "row_base_amount"
	FieldRowWHT        Field = "row_wht_amount"
	FieldSumBase       Field = "sum_base_amount"
	FieldSumWHT        Field = "sum_wht_amount"
	FieldWHTText       Field = "wht_text"
	FieldSignDate      Field = "sign_date"
)

// Slot positions one field in PDF points, measured from the bottom-left
// corner of an A4 page. BoxW is set for fields printed one character per
// box; Gap is the extra space after each digit group of a tax id.
type Slot struct {
	X, Y  float64
	Size  float64
	Right bool
	Width float64
	BoxW  float64
	Gap   float64
}

const (
	boxHeight     = 16
	baselineTweak = 0.28
	checkBoxSize  = 14
)

// taxIDGroups are the digit counts after which the form leaves a gap
// (x-xxxx-xxxxx-xx-x).
var taxIDGroups = []int{1, 5, 10, 12}

// Layout is the single source of field positions for the certificate.
var Layout = map[Field]Slot{
	FieldPayerName:     {X: 90, Y: 736, Size: 14},
	FieldPayerAddress:  {X: 90, Y: 708, Size: 12, Width: 315},
	FieldPayerTaxID:    {X: 370, Y: 745, Size: 14, BoxW: 15.3, Gap: 0.2},
	FieldPayeeName:     {X: 90, Y: 662, Size: 14},
	FieldPayeeAddress:  {X: 90, Y: 631, Size: 12, Width: 315},
	FieldPayeeTaxID:    {X: 370, Y: 673, Size: 14, BoxW: 15.3, Gap: 0.1},
	FieldCheckPND3:     {X: 470, Y: 602, Size: checkBoxSize},
	FieldCheckPND53:    {X: 393, Y: 582, Size: checkBoxSize},
	FieldCheckWithheld: {X: 83, Y: 121, Size: checkBoxSize},
	FieldPaymentDate:   {X: 355, Y: 232, Size: 12},
	FieldRowBase:       {X: 480, Y: 180, Size: 12, Right: true},
	FieldRowWHT:        {X: 545, Y: 180, Size: 12, Right: true},
	FieldSumBase:       {X: 490, Y: 225, Size: 12, Right: true},
	FieldSumWHT:        {X: 555, Y: 225, Size: 12, Right: true},
	FieldWHTText:       {X: 185, Y: 162, Size: 12},
	FieldSignDate:      {X: 340, Y: 71, Size: 12, BoxW: 13.8},
}
