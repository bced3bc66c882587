package projects

import (
	"strings"

	"github.com/sitecost/sitecost/internal/sales/pricing"
)

type MaterialInput struct {
	Brand     string         `json:"brand"`
	ItemCode  string         `json:"item_code"`
	ItemName  string         `json:"item_name"`
	Unit      string         `json:"unit"`
	UnitPrice pricing.Amount `json:"unit_price"`
	Qty       pricing.Amount `json:"qty"`
	Note      string         `json:"note"`
}

type SubcontractInput struct {
	VendorName        string         `json:"vendor_name"`
	ContractAmount    pricing.Amount `json:"contract_amount"`
	WithholdingRate   pricing.Amount `json:"withholding_rate"`
	WithholdingAmount pricing.Amount `json:"withholding_amount"`
	Note              string         `json:"note"`
}

type ExpenseInput struct {
	Category string         `json:"category"`
	Title    string         `json:"title"`
	Amount   pricing.Amount `json:"amount"`
	Note     string         `json:"note"`
}

const (
	unnamedVendor   = "(ไม่ระบุชื่อ)"
	untitledExpense = "(ไม่ระบุ)"
)

// buildMaterials drops rows with no identifying text and no amounts.
func buildMaterials(rows []MaterialInput) []MaterialItem {
	out := make([]MaterialItem, 0, len(rows))
	for _, row := range rows {
		m := MaterialItem{
			Brand:     optText(row.Brand),
			ItemCode:  optText(row.ItemCode),
			ItemName:  optText(row.ItemName),
			Unit:      optText(row.Unit),
			UnitPrice: pricing.ClampZero(row.UnitPrice.Dec()),
			Qty:       pricing.ClampZero(row.Qty.Dec()),
			Note:      optText(row.Note),
		}
		if m.Brand == nil && m.ItemCode == nil && m.ItemName == nil && m.UnitPrice.IsZero() && m.Qty.IsZero() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// buildSubcontractors computes withholding from the rate when no amount is given.
func buildSubcontractors(rows []SubcontractInput) []SubcontractorPayment {
	out := make([]SubcontractorPayment, 0, len(rows))
	for _, row := range rows {
		vendor := strings.TrimSpace(row.VendorName)
		contract := pricing.ClampZero(row.ContractAmount.Dec())
		if vendor == "" && contract.IsZero() {
			continue
		}
		if vendor == "" {
			vendor = unnamedVendor
		}
		rate := pricing.ClampZero(row.WithholdingRate.Dec())
		out = append(out, SubcontractorPayment{
			VendorName:        vendor,
			ContractAmount:    contract,
			WithholdingRate:   rate,
			WithholdingAmount: pricing.ClampZero(pricing.CertificateWHT(contract, rate, row.WithholdingAmount.Dec())),
			Note:              optText(row.Note),
		})
	}
	return out
}

func buildExpenses(rows []ExpenseInput) []OtherExpense {
	out := make([]OtherExpense, 0, len(rows))
	for _, row := range rows {
		title := strings.TrimSpace(row.Title)
		amount := pricing.ClampZero(row.Amount.Dec())
		if title == "" && amount.IsZero() {
			continue
		}
		if title == "" {
			title = untitledExpense
		}
		category := strings.TrimSpace(row.Category)
		if category == "" {
			category = DefaultExpenseCategory
		}
		out = append(out, OtherExpense{
			Category: category,
			Title:    title,
			Amount:   amount,
			Note:     optText(row.Note),
		})
	}
	return out
}

func optText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
