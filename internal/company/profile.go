// Package company holds the issuer profile that is snapshotted onto documents.
package company

import "time"

// DefaultName is used until the profile is configured.
const DefaultName = "บริษัทของฉัน"

// Profile is the single issuer record.
type Profile struct {
	Name               string    `json:"company_name"`
	TaxID              *string   `json:"tax_id,omitempty"`
	Address            *string   `json:"address,omitempty"`
	Phone              *string   `json:"phone,omitempty"`
	Email              *string   `json:"email,omitempty"`
	Website            *string   `json:"website,omitempty"`
	LogoPath           *string   `json:"logo_path,omitempty"`
	PaymentBank        *string   `json:"payment_bank,omitempty"`
	PaymentAccountNo   *string   `json:"payment_account_no,omitempty"`
	PaymentAccountName *string   `json:"payment_account_name,omitempty"`
	PaymentBranch      *string   `json:"payment_branch,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpdateRequest replaces the editable fields. A blank name keeps the current one.
type UpdateRequest struct {
	Name               string `json:"company_name" validate:"max=200"`
	TaxID              string `json:"tax_id" validate:"max=50"`
	Address            string `json:"address"`
	Phone              string `json:"phone" validate:"max=50"`
	Email              string `json:"email" validate:"omitempty,email"`
	Website            string `json:"website" validate:"omitempty,max=200"`
	PaymentBank        string `json:"payment_bank" validate:"max=200"`
	PaymentAccountNo   string `json:"payment_account_no" validate:"max=80"`
	PaymentAccountName string `json:"payment_account_name" validate:"max=200"`
	PaymentBranch      string `json:"payment_branch" validate:"max=200"`
}

func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
