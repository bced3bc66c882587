package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: httpx.NewValidator()}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := httpx.Validate(s.validate, req); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:        req.Name,
		TaxID:       blankToNil(req.TaxID),
		Address:     blankToNil(req.Address),
		Phone:       blankToNil(req.Phone),
		Email:       blankToNil(req.Email),
		ContactName: blankToNil(req.ContactName),
		Note:        blankToNil(req.Note),
		IsActive:    true,
	}

	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := httpx.Validate(s.validate, req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.TaxID != nil {
		updates["tax_id"] = blankToNil(req.TaxID)
	}
	if req.Address != nil {
		updates["address"] = blankToNil(req.Address)
	}
	if req.Phone != nil {
		updates["phone"] = blankToNil(req.Phone)
	}
	if req.Email != nil {
		updates["email"] = blankToNil(req.Email)
	}
	if req.ContactName != nil {
		updates["contact_name"] = blankToNil(req.ContactName)
	}
	if req.Note != nil {
		updates["note"] = blankToNil(req.Note)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Deactivate hides a customer from pickers; documents keep their snapshots.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return fmt.Errorf("deactivate customer: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// FindCustomer returns the master record or nil when id is unknown.
func (s *Service) FindCustomer(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	req.Search = strings.TrimSpace(req.Search)
	return s.repo.List(ctx, req)
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
