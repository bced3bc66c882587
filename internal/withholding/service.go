package withholding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sitecost/sitecost/internal/company"
	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/sales/pricing"
	"github.com/sitecost/sitecost/internal/shared"
)

const maxIssueAttempts = 3

// CompanySource supplies the payer snapshot.
type CompanySource interface {
	Current(ctx context.Context) (*company.Profile, error)
}

type Service struct {
	repo     Repository
	company  CompanySource
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, company CompanySource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		company:  company,
		logger:   logger,
		validate: httpx.NewValidator(),
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Certificate, error) {
	return s.repo.Get(ctx, id)
}

// List searches doc_no, payer and payee names. At most 200 rows are returned.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Certificate, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 200
	}
	filter.Query = strings.TrimSpace(filter.Query)
	out, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return out, nil
}

// Create issues a certificate numbered "{FORM}-{YEAR}-{0001}".
func (s *Service) Create(ctx context.Context, in CertificateInput) (*Certificate, error) {
	c := &Certificate{FormType: FormPND53, PayeeKind: PayeePerson, IsActive: true}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	payer, err := s.payer(ctx)
	if err != nil {
		return nil, err
	}
	c.Payer = payer
	c.PayerBranchNo = DefaultBranchNo

	var id int64
	for attempt := 1; ; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context) error {
			no, err := shared.IssueNumber(ctx, s.repo, string(c.FormType), s.now().Year())
			if err != nil {
				return err
			}
			c.DocNo = no
			id, err = s.repo.Insert(ctx, c)
			return err
		})
		if err == nil || !errors.Is(err, ErrDocNoConflict) {
			break
		}
		if attempt == maxIssueAttempts {
			err = fmt.Errorf("create certificate after %d attempts: %w", attempt, err)
			break
		}
		s.logger.Warn("certificate number conflict, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("withholding certificate issued",
		slog.Int64("id", id), slog.String("doc_no", c.DocNo), slog.String("wht_amount", c.WHTAmount.StringFixed(2)))
	return s.repo.Get(ctx, id)
}

// Edit rewrites the certificate. The number and payer snapshot never change;
// an unrecognised form type or payee kind keeps the stored one.
func (s *Service) Edit(ctx context.Context, id int64, in CertificateInput) (*Certificate, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update certificate %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) apply(c *Certificate, in CertificateInput) error {
	if err := httpx.Validate(s.validate, in); err != nil {
		return err
	}
	base := pricing.Round2(in.BaseAmount.Dec())
	if !base.IsPositive() {
		return httpx.FieldError("base_amount", "กรุณากรอกฐานภาษี (จำนวนเงิน) มากกว่า 0")
	}
	rate := pricing.ClampZero(pricing.Round2(in.WHTRate.Dec()))

	c.FormType = ParseFormType(in.FormType, c.FormType)
	c.PayeeKind = ParsePayeeKind(in.PayeeKind, c.PayeeKind)
	c.Payee = Party{
		Name:    strings.TrimSpace(in.PayeeName),
		TaxID:   digitsOnly(in.PayeeTaxID),
		Address: strings.TrimSpace(in.PayeeAddress),
	}
	if d := pricing.ParseDate(in.PaymentDate); d != nil {
		c.PaymentDate = *d
	} else {
		c.PaymentDate = s.today()
	}
	c.IncomeType = optText(in.IncomeType)
	c.Description = optText(in.Description)
	c.Note = optText(in.Note)
	c.BaseAmount = base
	c.WHTRate = rate
	c.WHTAmount = pricing.CertificateWHT(base, rate, pricing.ClampZero(in.WHTAmount.Dec()))
	return nil
}

func (s *Service) payer(ctx context.Context) (Party, error) {
	if s.company == nil {
		return Party{Name: company.DefaultName}, nil
	}
	p, err := s.company.Current(ctx)
	if err != nil {
		return Party{}, err
	}
	out := Party{Name: strings.TrimSpace(p.Name), TaxID: digitsOnly(deref(p.TaxID)), Address: deref(p.Address)}
	if out.Name == "" {
		out.Name = company.DefaultName
	}
	return out, nil
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func optText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
