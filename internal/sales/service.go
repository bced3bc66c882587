package sales

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/projects"
	"github.com/sitecost/sitecost/internal/sales/pricing"
	"github.com/sitecost/sitecost/internal/shared"
)

// DefaultApprover is recorded when an approval names nobody.
const DefaultApprover = "ADMIN"

// Deps are the collaborators of Service. Dashboard, Audit and Metrics may be nil.
type Deps struct {
	Customers       CustomerFinder
	Company         CompanySource
	Projects        ProjectMaterializer
	Dashboard       DashboardInvalidator
	Audit           AuditRecorder
	Metrics         *Metrics
	Logger          *slog.Logger
	DefaultApprover string
}

// Service drives the document lifecycle: create, edit, approve and derive.
type Service struct {
	repo      Repository
	customers CustomerFinder
	company   CompanySource
	projects  ProjectMaterializer
	dashboard DashboardInvalidator
	audit     AuditRecorder
	metrics   *Metrics
	logger    *slog.Logger
	validate  *validator.Validate
	approver  string
	now       func() time.Time
}

func NewService(repo Repository, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	approver := strings.TrimSpace(deps.DefaultApprover)
	if approver == "" {
		approver = DefaultApprover
	}
	return &Service{
		repo:      repo,
		customers: deps.Customers,
		company:   deps.Company,
		projects:  deps.Projects,
		dashboard: deps.Dashboard,
		audit:     deps.Audit,
		metrics:   deps.Metrics,
		logger:    logger,
		validate:  httpx.NewValidator(),
		approver:  approver,
		now:       time.Now,
	}
}

// ============================================================================
// READS
// ============================================================================

func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.Get(ctx, id)
}

// List returns documents newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Document, int, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.DocType != "" && !filter.DocType.Valid() {
		return nil, 0, invalid("unknown document type %q", filter.DocType)
	}
	return s.repo.List(ctx, filter)
}

// Children lists the documents derived from parentID.
func (s *Service) Children(ctx context.Context, parentID int64) ([]Document, error) {
	if _, err := s.repo.Get(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.Children(ctx, parentID)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// CreateQuotation stores a new DRAFT quotation under a freshly issued number.
func (s *Service) CreateQuotation(ctx context.Context, in DocumentInput) (*Document, error) {
	if err := httpx.Validate(s.validate, in); err != nil {
		return nil, err
	}
	doc := &Document{DocType: DocTypeQuotation, Status: StatusDraft}
	if err := s.applyInput(ctx, doc, in); err != nil {
		return nil, err
	}
	doc.BOQExcelPath = in.Attachments.Excel
	doc.BOQPDFPath = in.Attachments.PDF
	company, err := s.companySnapshot(ctx)
	if err != nil {
		return nil, err
	}
	doc.Company = company

	err = s.withIssueRetry(ctx, "create_quotation", func(ctx context.Context, tx TxRepository) error {
		no, err := shared.IssueNumber(ctx, tx, string(doc.DocType), s.now().Year())
		if err != nil {
			return err
		}
		doc.DocNo = no
		if _, err := tx.Insert(ctx, doc); err != nil {
			return err
		}
		return s.record(ctx, s.approver, "sales.create", doc, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}
	s.metrics.documentIssued(doc.DocType)
	s.logger.Info("quotation created", slog.String("doc_no", doc.DocNo), slog.Int64("id", doc.ID))
	return s.repo.Get(ctx, doc.ID)
}

// Edit replaces the header fields and every line of a DRAFT document.
func (s *Service) Edit(ctx context.Context, id int64, in DocumentInput) (*Document, error) {
	if err := httpx.Validate(s.validate, in); err != nil {
		return nil, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return invalid("document %s is %s; only DRAFT documents can be edited", doc.DocNo, doc.Status)
		}
		if doc.DocType != DocTypeQuotation && (in.Attachments.Excel != nil || in.Attachments.PDF != nil) {
			return invalid("BOQ files can only be attached to quotations; %s is %s", doc.DocNo, doc.DocType)
		}
		if err := s.applyInput(ctx, doc, in); err != nil {
			return err
		}
		if in.Attachments.Excel != nil {
			doc.BOQExcelPath = in.Attachments.Excel
		}
		if in.Attachments.PDF != nil {
			doc.BOQPDFPath = in.Attachments.PDF
		}
		if err := tx.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		if err := tx.ReplaceLines(ctx, doc.ID, doc.Lines); err != nil {
			return err
		}
		return s.record(ctx, s.approver, "sales.edit", doc, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("edit document %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

// Approve moves a DRAFT document to APPROVED. Approving an approved document
// is a no-op. Approving a quotation materializes its project in the same
// transaction.
func (s *Service) Approve(ctx context.Context, id int64, approver string) (*Document, error) {
	approver = strings.TrimSpace(approver)
	if approver == "" {
		approver = s.approver
	}
	var (
		transitioned bool
		docType      DocType
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch doc.Status {
		case StatusApproved:
			return nil
		case StatusDraft:
		default:
			return invalid("document %s is %s and cannot be approved", doc.DocNo, doc.Status)
		}

		at := s.now().UTC()
		if err := tx.MarkApproved(ctx, doc.ID, approver, at); err != nil {
			return err
		}
		meta := map[string]any{"approved_by": approver}
		if doc.DocType == DocTypeQuotation && s.projects != nil {
			p, created, err := s.projects.MaterializeFromQuotation(ctx, quotationSource(doc))
			if err != nil {
				return fmt.Errorf("materialize project: %w", err)
			}
			meta["project_id"] = p.ID
			meta["project_created"] = created
		}
		transitioned, docType = true, doc.DocType
		return s.record(ctx, approver, "sales.approve", doc, meta)
	})
	if err != nil {
		return nil, fmt.Errorf("approve document %d: %w", id, err)
	}
	if transitioned {
		s.metrics.approved(docType)
		if s.dashboard != nil {
			s.dashboard.InvalidateDashboards(ctx)
		}
		s.logger.Info("document approved", slog.Int64("id", id), slog.String("approved_by", approver))
	}
	return s.repo.Get(ctx, id)
}

// CreateChild derives an IV, RC or BL from an approved quotation. When the
// quotation already has a child of that type it is returned with created=false.
func (s *Service) CreateChild(ctx context.Context, parentID int64, rawType string) (*Document, bool, error) {
	childType := ParseDocType(rawType)
	if !childType.IsChildType() {
		return nil, false, invalid("child type must be one of IV, RC, BL; got %q", rawType)
	}

	var (
		childID int64
		created bool
	)
	err := s.withIssueRetry(ctx, "create_child", func(ctx context.Context, tx TxRepository) error {
		created = false
		parent, err := tx.GetForUpdate(ctx, parentID)
		if err != nil {
			return err
		}
		if parent.DocType != DocTypeQuotation {
			return invalid("%s is not a quotation", parent.DocNo)
		}
		if parent.Status != StatusApproved {
			return invalid("quotation %s must be APPROVED before deriving documents", parent.DocNo)
		}
		existing, err := tx.FindChild(ctx, parent.ID, childType)
		if err != nil {
			return err
		}
		if existing != nil {
			childID = existing.ID
			return nil
		}

		child := cloneForChild(parent, childType, s.today())
		if child.Company.Empty() {
			if child.Company, err = s.companySnapshot(ctx); err != nil {
				return err
			}
		}
		if child.DocNo, err = shared.IssueNumber(ctx, tx, string(childType), s.now().Year()); err != nil {
			return err
		}
		if childID, err = tx.Insert(ctx, child); err != nil {
			return err
		}
		created = true
		return s.record(ctx, s.approver, "sales.create_child", child, map[string]any{"parent_id": parent.ID})
	})
	if err != nil {
		return nil, false, fmt.Errorf("create %s from %d: %w", childType, parentID, err)
	}
	if created {
		s.metrics.documentIssued(childType)
	}
	doc, err := s.repo.Get(ctx, childID)
	return doc, created, err
}

// ============================================================================
// HELPERS
// ============================================================================

// applyInput overwrites the editable fields of doc from in. Company snapshot,
// number, status and attachments are left alone.
func (s *Service) applyInput(ctx context.Context, doc *Document, in DocumentInput) error {
	lines := buildLines(in.Lines)
	if len(lines) == 0 {
		return invalid("at least one line item with a description is required")
	}
	customer, err := s.resolveCustomer(ctx, in)
	if err != nil {
		return err
	}

	if d := pricing.ParseDate(in.IssueDate); d != nil {
		doc.IssueDate = *d
	} else if doc.IssueDate.IsZero() {
		doc.IssueDate = s.today()
	}
	doc.DueDate = pricing.ParseDate(in.DueDate)
	doc.Customer = customer
	doc.Subject = optText(in.Subject)
	doc.Description = optText(in.Description)
	doc.Note = optText(in.Note)
	doc.DepositNote = optText(in.DepositNote)
	doc.PaymentTerms = optText(in.PaymentTerms)
	doc.DiscountAmount = pricing.ClampZero(in.DiscountAmount.Dec())
	doc.VATRate = pricing.ClampZero(in.VATRate.Or(pricing.DefaultVATRate))
	doc.WHTRate = pricing.ClampZero(in.WHTRate.Or(decimal.Zero))
	doc.WarrantyMonths = in.WarrantyMonths
	doc.WarrantyEndDate = warrantyEnd(doc.IssueDate, in.WarrantyMonths)
	doc.Lines = lines
	return nil
}

// resolveCustomer snapshots the customer. Free text wins over the master
// record; blank fields are filled from the master record.
func (s *Service) resolveCustomer(ctx context.Context, in DocumentInput) (CustomerSnapshot, error) {
	snap := CustomerSnapshot{
		Name:    strings.TrimSpace(in.CustomerName),
		TaxID:   strings.TrimSpace(in.CustomerTaxID),
		Address: strings.TrimSpace(in.CustomerAddress),
		Phone:   strings.TrimSpace(in.CustomerPhone),
		Email:   strings.TrimSpace(in.CustomerEmail),
	}
	if in.CustomerID != nil && s.customers != nil {
		c, err := s.customers.FindCustomer(ctx, *in.CustomerID)
		if err != nil {
			return snap, fmt.Errorf("find customer: %w", err)
		}
		if c == nil {
			return snap, fmt.Errorf("customer %d: %w", *in.CustomerID, httpx.ErrNotFound)
		}
		id := c.ID
		snap.CustomerID = &id
		backfill(&snap.Name, &c.Name)
		backfill(&snap.TaxID, c.TaxID)
		backfill(&snap.Address, c.Address)
		backfill(&snap.Phone, c.Phone)
		backfill(&snap.Email, c.Email)
	}
	if snap.Name == "" {
		return snap, invalid("customer name is required")
	}
	return snap, nil
}

func (s *Service) companySnapshot(ctx context.Context) (CompanySnapshot, error) {
	if s.company == nil {
		return CompanySnapshot{}, nil
	}
	p, err := s.company.Current(ctx)
	if err != nil {
		return CompanySnapshot{}, err
	}
	return CompanySnapshot{
		Name:     p.Name,
		TaxID:    deref(p.TaxID),
		Address:  deref(p.Address),
		Phone:    deref(p.Phone),
		Email:    deref(p.Email),
		Website:  deref(p.Website),
		LogoPath: deref(p.LogoPath),
	}, nil
}

func (s *Service) record(ctx context.Context, actor, action string, doc *Document, meta map[string]any) error {
	if s.audit == nil {
		return nil
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["doc_no"] = doc.DocNo
	meta["doc_type"] = string(doc.DocType)
	return s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "sales_doc",
		EntityID: strconv.FormatInt(doc.ID, 10),
		Meta:     meta,
		At:       s.now().UTC(),
	})
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// buildLines drops rows without a description. A blank quantity means 1.
func buildLines(rows []LineInput) []Line {
	out := make([]Line, 0, len(rows))
	for _, row := range rows {
		desc := strings.TrimSpace(row.Description)
		if desc == "" {
			continue
		}
		out = append(out, Line{
			Description:    desc,
			Qty:            pricing.ClampZero(row.Qty.Or(decimal.NewFromInt(1))),
			UnitPrice:      pricing.ClampZero(row.UnitPrice.Dec()),
			DiscountAmount: pricing.ClampZero(row.DiscountAmount.Dec()),
			LineOrder:      len(out) + 1,
		})
	}
	return out
}

// cloneForChild copies the commercial content of parent by value.
func cloneForChild(parent *Document, childType DocType, today time.Time) *Document {
	parentID := parent.ID
	child := &Document{
		DocType:        childType,
		Status:         StatusDraft,
		IssueDate:      today,
		DueDate:        parent.DueDate,
		Customer:       parent.Customer,
		Company:        parent.Company,
		Subject:        parent.Subject,
		Description:    parent.Description,
		Note:           parent.Note,
		DepositNote:    parent.DepositNote,
		PaymentTerms:   parent.PaymentTerms,
		DiscountAmount: parent.DiscountAmount,
		VATRate:        parent.VATRate,
		WHTRate:        parent.WHTRate,
		ParentID:       &parentID,
		Lines:          make([]Line, len(parent.Lines)),
	}
	for i, l := range parent.Lines {
		l.ID = 0
		child.Lines[i] = l
	}
	return child
}

func quotationSource(doc *Document) projects.QuotationSource {
	return projects.QuotationSource{
		SalesDocID:   doc.ID,
		DocNo:        doc.DocNo,
		Subject:      deref(doc.Subject),
		Description:  deref(doc.Description),
		CustomerName: doc.Customer.Name,
		BOQExcelPath: doc.BOQExcelPath,
		BOQPDFPath:   doc.BOQPDFPath,
	}
}

func warrantyEnd(issue time.Time, months *int) *time.Time {
	if months == nil || *months <= 0 {
		return nil
	}
	end := issue.AddDate(0, *months, 0)
	return &end
}

func backfill(dst *string, src *string) {
	if *dst == "" && src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func optText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
