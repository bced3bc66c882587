// Package withholding issues withholding-tax certificates (หนังสือรับรองการหักภาษี ณ ที่จ่าย, 50 ทวิ)
// and renders them onto the fixed government form layout.
package withholding

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/sales/pricing"
)

var (
	ErrNotFound      = fmt.Errorf("withholding certificate %w", httpx.ErrNotFound)
	ErrDocNoConflict = fmt.Errorf("certificate number %w", httpx.ErrConflict)
)

// DefaultBranchNo is printed when the payer has no branch number.
const DefaultBranchNo = "00000"

// FormType is the filing form the certificate belongs to.
type FormType string

const (
	FormPND3  FormType = "PND3"
	FormPND53 FormType = "PND53"
)

// ParseFormType accepts "PND3", "pnd.53", "ภงด3" and similar spellings.
// Anything unrecognised yields fallback.
func ParseFormType(raw string, fallback FormType) FormType {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(".", "", " ", "").Replace(s)
	s = strings.Replace(s, "ภงด", "PND", 1)
	switch s {
	case "PND3", "P3", "3":
		return FormPND3
	case "PND53", "P53", "53":
		return FormPND53
	}
	return fallback
}

// Title is the Thai form name.
func (f FormType) Title() string {
	if f == FormPND3 {
		return "ภ.ง.ด.3"
	}
	return "ภ.ง.ด.53"
}

// PayeeKind tells whether tax was withheld from an individual or a juristic person.
type PayeeKind string

const (
	PayeePerson PayeeKind = "PERSON"
	PayeeEntity PayeeKind = "ENTITY"
)

func ParsePayeeKind(raw string, fallback PayeeKind) PayeeKind {
	switch k := PayeeKind(strings.ToUpper(strings.TrimSpace(raw))); k {
	case PayeePerson, PayeeEntity:
		return k
	}
	return fallback
}

type Party struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Address string `json:"address,omitempty"`
}

// Certificate is one issued 50 ทวิ. The payer is a snapshot of the company
// profile at issue time.
type Certificate struct {
	ID            int64           `json:"id"`
	DocNo         string          `json:"doc_no"`
	FormType      FormType        `json:"form_type"`
	PayeeKind     PayeeKind       `json:"payee_kind"`
	Payee         Party           `json:"payee"`
	Payer         Party           `json:"payer"`
	PayerBranchNo string          `json:"payer_branch_no"`
	PaymentDate   time.Time       `json:"payment_date"`
	IncomeType    *string         `json:"income_type,omitempty"`
	Description   *string         `json:"description,omitempty"`
	BaseAmount    decimal.Decimal `json:"base_amount"`
	WHTRate       decimal.Decimal `json:"wht_rate"`
	WHTAmount     decimal.Decimal `json:"wht_amount"`
	Note          *string         `json:"note,omitempty"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CertificateInput is the create and edit payload.
type CertificateInput struct {
	FormType     string         `json:"form_type"`
	PayeeKind    string         `json:"payee_kind"`
	PayeeName    string         `json:"payee_name" validate:"required,max=255"`
	PayeeTaxID   string         `json:"payee_tax_id" validate:"max=20"`
	PayeeAddress string         `json:"payee_address"`
	PaymentDate  string         `json:"payment_date"`
	IncomeType   string         `json:"income_type" validate:"max=255"`
	Description  string         `json:"description"`
	BaseAmount   pricing.Amount `json:"base_amount"`
	WHTRate      pricing.Amount `json:"wht_rate"`
	WHTAmount    pricing.Amount `json:"wht_amount"`
	Note         string         `json:"note"`
	IsActive     *bool          `json:"is_active,omitempty"`
}

type ListFilter struct {
	Query string
	Limit int
}
