package customers

type CreateCustomerRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	TaxID       *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Note        *string `json:"note,omitempty"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	TaxID       *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	ContactName *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Note        *string `json:"note,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ListCustomersRequest struct {
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}
