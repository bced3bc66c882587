package customers

import "time"

type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TaxID       *string   `json:"tax_id,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty"`
	ContactName *string   `json:"contact_name,omitempty"`
	Note        *string   `json:"note,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
