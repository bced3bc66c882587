package projects

import (
	"github.com/shopspring/decimal"

	"github.com/sitecost/sitecost/internal/sales/pricing"
)

// ComputeTotals sums the sub-ledgers currently loaded on p. Nothing is cached.
func ComputeTotals(p *Project) Totals {
	materials := decimal.Zero
	for _, m := range p.Materials {
		materials = materials.Add(m.Cost())
	}
	subs := decimal.Zero
	for _, s := range p.Subcontractors {
		subs = subs.Add(s.Payable())
	}
	other := decimal.Zero
	for _, e := range p.Expenses {
		other = other.Add(e.Amount)
	}
	t := Totals{
		Materials:         pricing.Round2(materials),
		SubcontractorsNet: pricing.Round2(subs),
		Other:             pricing.Round2(other),
	}
	t.Grand = t.Materials.Add(t.SubcontractorsNet).Add(t.Other)
	return t
}
