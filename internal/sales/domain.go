package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sitecost/sitecost/internal/sales/pricing"
)

// DocType identifies one of the four commercial documents.
type DocType string

const (
	DocTypeQuotation   DocType = "QT"
	DocTypeInvoice     DocType = "IV"
	DocTypeReceipt     DocType = "RC"
	DocTypeBillingNote DocType = "BL"
)

// Title returns the Thai heading printed on the document.
func (t DocType) Title() string {
	switch t {
	case DocTypeQuotation:
		return "ใบเสนอราคา"
	case DocTypeInvoice:
		return "ใบแจ้งหนี้"
	case DocTypeReceipt:
		return "ใบเสร็จรับเงิน"
	case DocTypeBillingNote:
		return "ใบวางบิล"
	default:
		return string(t)
	}
}

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeQuotation, DocTypeInvoice, DocTypeReceipt, DocTypeBillingNote:
		return true
	}
	return false
}

// IsChildType reports whether t can be derived from a quotation.
func (t DocType) IsChildType() bool {
	return t == DocTypeInvoice || t == DocTypeReceipt || t == DocTypeBillingNote
}

// ParseDocType normalises user input such as " iv ".
func ParseDocType(s string) DocType {
	return DocType(strings.ToUpper(strings.TrimSpace(s)))
}

// Status is the lifecycle state of a document.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusApproved Status = "APPROVED"
	// StatusVoid exists in storage but no operation transitions into it.
	StatusVoid Status = "VOID"
)

// CustomerSnapshot is copied onto a document and never re-joined.
type CustomerSnapshot struct {
	CustomerID *int64 `json:"customer_id,omitempty"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id,omitempty"`
	Address    string `json:"address,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// CompanySnapshot captures the issuer at the time the document was created.
type CompanySnapshot struct {
	Name     string `json:"name,omitempty"`
	TaxID    string `json:"tax_id,omitempty"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Website  string `json:"website,omitempty"`
	LogoPath string `json:"logo_path,omitempty"`
}

// Empty reports whether no issuer name was captured.
func (c CompanySnapshot) Empty() bool {
	return strings.TrimSpace(c.Name) == ""
}

// Document is one QT, IV, RC or BL.
type Document struct {
	ID              int64            `json:"id"`
	DocType         DocType          `json:"doc_type"`
	DocNo           string           `json:"doc_no"`
	Status          Status           `json:"status"`
	IssueDate       time.Time        `json:"issue_date"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
	Customer        CustomerSnapshot `json:"customer"`
	Company         CompanySnapshot  `json:"company"`
	Subject         *string          `json:"subject,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Note            *string          `json:"note,omitempty"`
	DepositNote     *string          `json:"deposit_note,omitempty"`
	PaymentTerms    *string          `json:"payment_terms,omitempty"`
	DiscountAmount  decimal.Decimal  `json:"discount_amount"`
	VATRate         decimal.Decimal  `json:"vat_rate"`
	WHTRate         decimal.Decimal  `json:"wht_rate"`
	WarrantyMonths  *int             `json:"warranty_months,omitempty"`
	WarrantyEndDate *time.Time       `json:"warranty_end_date,omitempty"`
	ApprovedBy      *string          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	ParentID        *int64           `json:"parent_id,omitempty"`
	BOQExcelPath    *string          `json:"boq_excel_path,omitempty"`
	BOQPDFPath      *string          `json:"boq_pdf_path,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Lines           []Line           `json:"lines"`
}

// Line is a single priced row of a document.
type Line struct {
	ID             int64           `json:"id,omitempty"`
	Description    string          `json:"description"`
	Qty            decimal.Decimal `json:"qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineOrder      int             `json:"line_order"`
}

// Total is qty × unit_price − discount for the line.
func (l Line) Total() decimal.Decimal {
	return l.pricingLine().Total()
}

func (l Line) pricingLine() pricing.Line {
	return pricing.Line{Qty: l.Qty, UnitPrice: l.UnitPrice, DiscountAmount: l.DiscountAmount}
}

// Totals derives the money chain from the current lines and rates.
func (d *Document) Totals() pricing.Totals {
	in := pricing.Input{
		DiscountAmount: d.DiscountAmount,
		VATRate:        d.VATRate,
		WHTRate:        d.WHTRate,
		Lines:          make([]pricing.Line, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		in.Lines = append(in.Lines, l.pricingLine())
	}
	return pricing.Compute(in)
}

// View pairs a document with its derived totals for presentation.
type View struct {
	*Document
	Title  string         `json:"title"`
	Totals pricing.Totals `json:"totals"`
}

// NewView derives totals for doc.
func NewView(doc *Document) View {
	return View{Document: doc, Title: doc.DocType.Title(), Totals: doc.Totals()}
}

// DocumentInput is the payload of create and edit. Numeric fields decode
// leniently; malformed numbers become zero.
type DocumentInput struct {
	CustomerID      *int64          `json:"customer_id,omitempty"`
	CustomerName    string          `json:"customer_name" validate:"max=255"`
	CustomerTaxID   string          `json:"customer_tax_id" validate:"max=50"`
	CustomerAddress string          `json:"customer_address"`
	CustomerPhone   string          `json:"customer_phone" validate:"max=50"`
	CustomerEmail   string          `json:"customer_email" validate:"max=255"`
	IssueDate       string          `json:"issue_date"`
	DueDate         string          `json:"due_date"`
	Subject         string          `json:"subject" validate:"max=255"`
	Description     string          `json:"description"`
	Note            string          `json:"note"`
	DepositNote     string          `json:"deposit_note"`
	PaymentTerms    string          `json:"payment_terms" validate:"max=255"`
	DiscountAmount  pricing.Amount  `json:"discount_amount"`
	VATRate         pricing.Amount  `json:"vat_rate"`
	WHTRate         pricing.Amount  `json:"wht_rate"`
	WarrantyMonths  *int            `json:"warranty_months,omitempty" validate:"omitempty,gte=0,lte=600"`
	Lines           []LineInput     `json:"lines" validate:"dive"`
	Attachments     AttachmentPaths `json:"-"`
}

// LineInput is one submitted row. Rows with a blank description are dropped.
type LineInput struct {
	Description    string         `json:"description"`
	Qty            pricing.Amount `json:"qty"`
	UnitPrice      pricing.Amount `json:"unit_price"`
	DiscountAmount pricing.Amount `json:"discount_amount"`
}

// AttachmentPaths are relative storage paths of uploaded BOQ files.
type AttachmentPaths struct {
	Excel *string
	PDF   *string
}

// ListFilter narrows document listings.
type ListFilter struct {
	DocType DocType
	Status  Status
	Query   string
	Limit   int
	Offset  int
}
