package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/sales/pricing"
)

// Service owns project bookkeeping and the cost dashboard.
type Service struct {
	repo     Repository
	cache    *Cache
	logger   *slog.Logger
	validate *validator.Validate
	group    singleflight.Group
	now      func() time.Time
}

// NewService constructs the service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		logger:   logger,
		validate: httpx.NewValidator(),
		now:      time.Now,
	}
}

// Get returns the project with its sub-ledgers.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// Totals recomputes the cost breakdown from the current rows.
func (s *Service) Totals(ctx context.Context, id int64) (Totals, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(p), nil
}

// List returns project summaries newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Summary, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 200
	}
	filter.Query = strings.TrimSpace(filter.Query)
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	out := make([]Summary, 0, len(list))
	for i := range list {
		out = append(out, summarize(&list[i]))
	}
	return out, total, nil
}

// Create stores a project and its sub-ledgers.
func (s *Service) Create(ctx context.Context, in ProjectInput) (*Project, error) {
	p, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context) error {
		var err error
		id, err = s.repo.Insert(ctx, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.invalidate(ctx)
	return s.repo.Get(ctx, id)
}

// Update overwrites the header and replaces every sub-ledger row.
func (s *Service) Update(ctx context.Context, id int64, in ProjectInput) (*Project, error) {
	p, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	err = s.repo.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateHeader(ctx, p); err != nil {
			return err
		}
		return s.repo.ReplaceLedgers(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}
	s.invalidate(ctx)
	return s.repo.Get(ctx, id)
}

// Delete removes the project; sub-ledgers cascade.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

// SetStatus moves the project between IN_PROGRESS, DEFECT and DONE.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (*Project, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return nil, httpx.FieldError("status", "must be one of IN_PROGRESS DEFECT DONE")
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.Get(ctx, id)
}

// SetDepositReturned records whether the customer's deposit has been returned.
func (s *Service) SetDepositReturned(ctx context.Context, id int64, returned bool) (*Project, error) {
	var at *time.Time
	if returned {
		now := s.now().UTC()
		at = &now
	}
	if err := s.repo.SetDepositReturned(ctx, id, returned, at); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// MaterializeFromQuotation returns the project bound to the quotation,
// creating it on first call. It joins the caller's transaction via ctx.
func (s *Service) MaterializeFromQuotation(ctx context.Context, qt QuotationSource) (*Project, bool, error) {
	existing, err := s.repo.GetBySalesDoc(ctx, qt.SalesDocID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("lookup project for quotation %d: %w", qt.SalesDocID, err)
	}

	code := strings.TrimSpace(qt.DocNo)
	if code == "" {
		code = fmt.Sprintf("QT-%d", qt.SalesDocID)
	}
	name := strings.TrimSpace(qt.Subject)
	if name == "" {
		name = "โครงการ " + code
	}
	docID := qt.SalesDocID
	p := &Project{
		Code:           code,
		Name:           name,
		Description:    optText(qt.Description),
		CustomerName:   optText(qt.CustomerName),
		Status:         StatusInProgress,
		WorkDays:       0,
		SalesDocID:     &docID,
		BOQExcelPath:   qt.BOQExcelPath,
		BOQPDFPath:     qt.BOQPDFPath,
		Materials:      []MaterialItem{},
		Subcontractors: []SubcontractorPayment{},
		Expenses:       []OtherExpense{},
	}
	if _, err := s.repo.Insert(ctx, p); err != nil {
		return nil, false, fmt.Errorf("materialize project %s: %w", code, err)
	}
	s.logger.Info("project materialized", slog.String("code", code), slog.Int64("sales_doc_id", docID))
	return p, true, nil
}

// Dashboard aggregates costs for the period. A zero year means the current year.
// Identical concurrent requests share one build.
func (s *Service) Dashboard(ctx context.Context, period Period) (*Dashboard, error) {
	period, err := s.normalizePeriod(period)
	if err != nil {
		return nil, err
	}
	key, err := s.cache.BuildKey(ctx, dashboardKey(period)...)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return s.buildDashboard(ctx, period)
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		var d Dashboard
		err := s.cache.FetchJSON(ctx, key, &d, func(ctx context.Context) (any, error) {
			return s.buildDashboard(ctx, period)
		})
		return &d, err
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard %d/%d: %w", period.Year, period.Month, err)
	}
	return v.(*Dashboard), nil
}

// Refresh drops cached dashboards and rebuilds the one for period.
func (s *Service) Refresh(ctx context.Context, period Period) (*Dashboard, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return nil, fmt.Errorf("bump dashboard cache: %w", err)
	}
	return s.Dashboard(ctx, period)
}

// InvalidateDashboards bumps the cache version. Failures are logged only.
func (s *Service) InvalidateDashboards(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) buildDashboard(ctx context.Context, period Period) (*Dashboard, error) {
	list, err := s.repo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	d := Aggregate(period, list)
	return &d, nil
}

func (s *Service) normalizePeriod(p Period) (Period, error) {
	if p.Year == 0 {
		p.Year = s.now().Year()
	}
	if p.Year < 1900 || p.Year > 9999 {
		return p, httpx.FieldError("year", "must be a four digit year")
	}
	if p.Month < 0 || p.Month > 12 {
		return p, httpx.FieldError("month", "must be between 1 and 12")
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump failed", slog.Any("error", err))
	}
}

func (s *Service) fromInput(in ProjectInput) (*Project, error) {
	if err := httpx.Validate(s.validate, in); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	fields := map[string]string{}
	if code == "" {
		fields["code"] = "is required"
	}
	if name == "" {
		fields["name"] = "is required"
	}
	status := StatusInProgress
	if raw := strings.ToUpper(strings.TrimSpace(in.Status)); raw != "" {
		status = Status(raw)
		if !status.Valid() {
			fields["status"] = "must be one of IN_PROGRESS DEFECT DONE"
		}
	}
	if len(fields) > 0 {
		return nil, &httpx.ValidationError{Fields: fields}
	}

	return &Project{
		Code:           code,
		Name:           name,
		Description:    optText(in.Description),
		CustomerName:   optText(in.CustomerName),
		Location:       optText(in.Location),
		StartDate:      pricing.ParseDate(in.StartDate),
		EndDate:        pricing.ParseDate(in.EndDate),
		WorkDays:       in.WorkDays,
		Status:         status,
		Materials:      buildMaterials(in.Materials),
		Subcontractors: buildSubcontractors(in.Subcontractors),
		Expenses:       buildExpenses(in.Expenses),
	}, nil
}
