package projects

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

var (
	ErrNotFound      = fmt.Errorf("project %w", httpx.ErrNotFound)
	ErrDuplicateCode = fmt.Errorf("project code already exists: %w", httpx.ErrDuplicate)
)

// DefaultExpenseCategory is assigned to other expenses without a category.
const DefaultExpenseCategory = "อื่นๆ"

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusDefect     Status = "DEFECT"
	StatusDone       Status = "DONE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusDefect, StatusDone:
		return true
	}
	return false
}

type Project struct {
	ID                int64                  `json:"id"`
	Code              string                 `json:"code"`
	Name              string                 `json:"name"`
	Description       *string                `json:"description,omitempty"`
	CustomerName      *string                `json:"customer_name,omitempty"`
	Location          *string                `json:"location,omitempty"`
	StartDate         *time.Time             `json:"start_date,omitempty"`
	EndDate           *time.Time             `json:"end_date,omitempty"`
	WorkDays          int                    `json:"work_days"`
	Status            Status                 `json:"status"`
	SalesDocID        *int64                 `json:"sales_doc_id,omitempty"`
	BOQExcelPath      *string                `json:"boq_excel_path,omitempty"`
	BOQPDFPath        *string                `json:"boq_pdf_path,omitempty"`
	DepositReturned   bool                   `json:"deposit_returned"`
	DepositReturnedAt *time.Time             `json:"deposit_returned_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Materials         []MaterialItem         `json:"materials"`
	Subcontractors    []SubcontractorPayment `json:"subcontractors"`
	Expenses          []OtherExpense         `json:"expenses"`
}

type MaterialItem struct {
	ID        int64           `json:"id,omitempty"`
	Brand     *string         `json:"brand,omitempty"`
	ItemCode  *string         `json:"item_code,omitempty"`
	ItemName  *string         `json:"item_name,omitempty"`
	Unit      *string         `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       decimal.Decimal `json:"qty"`
	Note      *string         `json:"note,omitempty"`
}

// Cost is unit_price × qty.
func (m MaterialItem) Cost() decimal.Decimal {
	return m.UnitPrice.Mul(m.Qty)
}

type SubcontractorPayment struct {
	ID                int64           `json:"id,omitempty"`
	VendorName        string          `json:"vendor_name"`
	ContractAmount    decimal.Decimal `json:"contract_amount"`
	WithholdingRate   decimal.Decimal `json:"withholding_rate"`
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	Note              *string         `json:"note,omitempty"`
}

// Payable is the amount actually paid out after withholding.
func (s SubcontractorPayment) Payable() decimal.Decimal {
	return s.ContractAmount.Sub(s.WithholdingAmount)
}

type OtherExpense struct {
	ID       int64           `json:"id,omitempty"`
	Category string          `json:"category"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	Note     *string         `json:"note,omitempty"`
}

// Totals is the cost breakdown of one project or a set of projects.
type Totals struct {
	Materials         decimal.Decimal `json:"materials"`
	SubcontractorsNet decimal.Decimal `json:"subcontractors_net"`
	Other             decimal.Decimal `json:"other"`
	Grand             decimal.Decimal `json:"grand"`
}

// Add returns the element-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Materials:         t.Materials.Add(o.Materials),
		SubcontractorsNet: t.SubcontractorsNet.Add(o.SubcontractorsNet),
		Other:             t.Other.Add(o.Other),
		Grand:             t.Grand.Add(o.Grand),
	}
}

// QuotationSource is what an approved quotation contributes to a new project.
type QuotationSource struct {
	SalesDocID   int64
	DocNo        string
	Subject      string
	Description  string
	CustomerName string
	BOQExcelPath *string
	BOQPDFPath   *string
}

// ProjectInput is the create/update payload. Sub-ledgers are replaced wholesale.
type ProjectInput struct {
	Code           string             `json:"code" validate:"max=40"`
	Name           string             `json:"name" validate:"max=200"`
	Description    string             `json:"description"`
	CustomerName   string             `json:"customer_name" validate:"max=200"`
	Location       string             `json:"location" validate:"max=200"`
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	WorkDays       int                `json:"work_days" validate:"gte=0"`
	Status         string             `json:"status"`
	Materials      []MaterialInput    `json:"materials"`
	Subcontractors []SubcontractInput `json:"subcontractors"`
	Expenses       []ExpenseInput     `json:"expenses"`
}

// ListFilter narrows project listings by code or name.
type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// Summary is a project row with its derived totals.
type Summary struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status Status `json:"status"`
	Totals Totals `json:"totals"`
}

func summarize(p *Project) Summary {
	return Summary{ID: p.ID, Code: p.Code, Name: p.Name, Status: p.Status, Totals: ComputeTotals(p)}
}
