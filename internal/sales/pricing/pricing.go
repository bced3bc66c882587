// Package pricing derives document totals from line items and tax rates.
//
// Every stage is clamped at zero and rounded half-up to two places before the
// next stage consumes it. Withholding tax is taken from the net amount before
// tax and VAT is charged on the amount that remains after withholding.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DefaultVATRate is applied to new documents when no rate is supplied.
var DefaultVATRate = decimal.NewFromInt(7)

// Line is the monetary view of one document line.
type Line struct {
	Qty            decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Total returns qty × unit_price − discount. The result may be negative.
func (l Line) Total() decimal.Decimal {
	return l.Qty.Mul(l.UnitPrice).Sub(l.DiscountAmount)
}

// Input carries everything the engine needs from a document.
type Input struct {
	Lines          []Line
	DiscountAmount decimal.Decimal
	VATRate        decimal.Decimal
	WHTRate        decimal.Decimal
}

// Totals is the derived money chain of a document. It is never persisted.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	NetBeforeTax  decimal.Decimal `json:"net_before_tax"`
	WHTAmount     decimal.Decimal `json:"wht_amount"`
	NetAfterWHT   decimal.Decimal `json:"net_after_wht"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	GrossTotal    decimal.Decimal `json:"gross_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// Compute derives the totals chain for in.
func Compute(in Input) Totals {
	sum := decimal.Zero
	for _, l := range in.Lines {
		sum = sum.Add(l.Total())
	}

	var t Totals
	t.Subtotal = Round2(ClampZero(sum))
	t.DiscountTotal = Round2(ClampZero(in.DiscountAmount))
	t.NetBeforeTax = Round2(ClampZero(t.Subtotal.Sub(t.DiscountTotal)))
	t.WHTAmount = Round2(ClampZero(Percent(t.NetBeforeTax, in.WHTRate)))
	t.NetAfterWHT = Round2(ClampZero(t.NetBeforeTax.Sub(t.WHTAmount)))
	t.VATAmount = Round2(ClampZero(Percent(t.NetAfterWHT, in.VATRate)))
	t.GrossTotal = Round2(ClampZero(t.NetAfterWHT.Add(t.VATAmount)))
	t.GrandTotal = t.GrossTotal
	return t
}

// CertificateWHT returns the withholding amount for a certificate. An explicit
// non-zero amount is trusted; a zero amount with a positive rate is computed.
func CertificateWHT(base, rate, supplied decimal.Decimal) decimal.Decimal {
	if supplied.IsZero() && rate.IsPositive() {
		return Round2(Percent(base, rate))
	}
	return Round2(supplied)
}

// Percent returns amount × rate / 100 without rounding.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
