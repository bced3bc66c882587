package company

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

// LogoExtensions are accepted for the company logo.
var LogoExtensions = []string{"png", "jpg", "jpeg", "webp"}

// FileStore saves uploads and returns their relative path.
type FileStore interface {
	Save(subdir, filename string, r io.Reader, allowed ...string) (string, error)
}

type Service struct {
	repo     Repository
	files    FileStore
	validate *validator.Validate
}

func NewService(repo Repository, files FileStore) *Service {
	return &Service{repo: repo, files: files, validate: httpx.NewValidator()}
}

// Current returns the saved profile, or a default one named DefaultName.
func (s *Service) Current(ctx context.Context) (*Profile, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company profile: %w", err)
	}
	if p == nil {
		return &Profile{Name: DefaultName}, nil
	}
	return p, nil
}

// Update saves the profile. logo may be nil when no new logo was uploaded.
func (s *Service) Update(ctx context.Context, req UpdateRequest, logoName string, logo io.Reader) (*Profile, error) {
	if err := httpx.Validate(s.validate, req); err != nil {
		return nil, err
	}
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	if name := strings.TrimSpace(req.Name); name != "" {
		next.Name = name
	}
	next.TaxID = opt(strings.TrimSpace(req.TaxID))
	next.Address = opt(strings.TrimSpace(req.Address))
	next.Phone = opt(strings.TrimSpace(req.Phone))
	next.Email = opt(strings.TrimSpace(req.Email))
	next.Website = opt(strings.TrimSpace(req.Website))
	next.PaymentBank = opt(strings.TrimSpace(req.PaymentBank))
	next.PaymentAccountNo = opt(strings.TrimSpace(req.PaymentAccountNo))
	next.PaymentAccountName = opt(strings.TrimSpace(req.PaymentAccountName))
	next.PaymentBranch = opt(strings.TrimSpace(req.PaymentBranch))

	if logo != nil && strings.TrimSpace(logoName) != "" {
		rel, err := s.files.Save("company", logoName, logo, LogoExtensions...)
		if err != nil {
			return nil, httpx.FieldError("logo", "must be png, jpg, jpeg or webp")
		}
		next.LogoPath = &rel
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save company profile: %w", err)
	}
	return s.Current(ctx)
}
