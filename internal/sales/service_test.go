package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/sitecost/sitecost/internal/company"
	"github.com/sitecost/sitecost/internal/customers"
	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/projects"
	"github.com/sitecost/sitecost/internal/sales/pricing"
	"github.com/sitecost/sitecost/internal/shared"
)

func ptr[T any](v T) *T { return &v }

func amount(s string) pricing.Amount { return pricing.NewAmount(s) }

var fixedNow = time.Date(2025, 8, 20, 14, 30, 0, 0, time.FixedZone("ICT", 7*3600))

// ============================================================================
// SUITE
// ============================================================================

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	repo      *memRepository
	customers *MockCustomerFinder
	company   *MockCompanySource
	projects  *MockProjectMaterializer
	dashboard *MockDashboardInvalidator
	audit     *MockAuditRecorder
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.repo = newMemRepository()
	s.customers = NewMockCustomerFinder(s.ctrl)
	s.company = NewMockCompanySource(s.ctrl)
	s.projects = NewMockProjectMaterializer(s.ctrl)
	s.dashboard = NewMockDashboardInvalidator(s.ctrl)
	s.audit = NewMockAuditRecorder(s.ctrl)
	s.ctx = context.Background()

	s.company.EXPECT().Current(gomock.Any()).Return(&company.Profile{
		Name:  "หจก. ก่อสร้างดี",
		TaxID: ptr("0105555000000"),
	}, nil).AnyTimes()
	s.audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.service = NewService(s.repo, Deps{
		Customers: s.customers,
		Company:   s.company,
		Projects:  s.projects,
		Dashboard: s.dashboard,
		Audit:     s.audit,
	})
	s.service.now = func() time.Time { return fixedNow }
}

func (s *ServiceSuite) quotationInput() DocumentInput {
	return DocumentInput{
		CustomerName: "คุณสมชาย ใจดี",
		IssueDate:    "2025-08-01",
		Subject:      "ต่อเติมห้องครัว",
		WHTRate:      amount("3"),
		Lines: []LineInput{
			{Description: "งานรื้อถอนและก่อสร้าง", Qty: amount("1"), UnitPrice: amount("1000")},
			{Description: "   "},
		},
	}
}

func (s *ServiceSuite) createQuotation() *Document {
	doc, err := s.service.CreateQuotation(s.ctx, s.quotationInput())
	s.Require().NoError(err)
	return doc
}

func (s *ServiceSuite) approvedQuotation() *Document {
	qt := s.createQuotation()
	s.projects.EXPECT().MaterializeFromQuotation(gomock.Any(), gomock.Any()).
		Return(&projects.Project{ID: 1}, true, nil)
	s.dashboard.EXPECT().InvalidateDashboards(gomock.Any())
	_, err := s.service.Approve(s.ctx, qt.ID, "")
	s.Require().NoError(err)
	return qt
}

// ============================================================================
// CREATE
// ============================================================================

func (s *ServiceSuite) TestCreateQuotationComputesTotals() {
	t := s.T()
	doc := s.createQuotation()

	assert.Equal(t, "QT-2025-0001", doc.DocNo)
	assert.Equal(t, StatusDraft, doc.Status)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, 1, doc.Lines[0].LineOrder)
	assert.Equal(t, "หจก. ก่อสร้างดี", doc.Company.Name)
	assert.Equal(t, "0105555000000", doc.Company.TaxID)
	assert.True(t, doc.VATRate.Equal(decimal.NewFromInt(7)))

	totals := doc.Totals()
	assert.Equal(t, "1000.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "30.00", totals.WHTAmount.StringFixed(2))
	assert.Equal(t, "970.00", totals.NetAfterWHT.StringFixed(2))
	assert.Equal(t, "67.90", totals.VATAmount.StringFixed(2))
	assert.Equal(t, "1037.90", totals.GrandTotal.StringFixed(2))
}

func (s *ServiceSuite) TestCreateQuotationNumbersSequentially() {
	first := s.createQuotation()
	second := s.createQuotation()
	s.Equal("QT-2025-0001", first.DocNo)
	s.Equal("QT-2025-0002", second.DocNo)
}

func (s *ServiceSuite) TestCreateQuotationParsesMaxSuffix() {
	s.repo.docs[50] = Document{ID: 50, DocType: DocTypeQuotation, DocNo: "QT-2025-0009"}
	s.repo.docs[51] = Document{ID: 51, DocType: DocTypeQuotation, DocNo: "QT-2025-00x1"}
	s.repo.docs[52] = Document{ID: 52, DocType: DocTypeQuotation, DocNo: "QT-2024-0042"}
	s.repo.nextID = 60

	doc := s.createQuotation()
	s.Equal("QT-2025-0010", doc.DocNo)
}

func (s *ServiceSuite) TestCreateQuotationRequiresLines() {
	in := s.quotationInput()
	in.Lines = []LineInput{{Description: ""}, {UnitPrice: amount("50")}}

	_, err := s.service.CreateQuotation(s.ctx, in)
	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.ErrorIs(err, httpx.ErrValidation)
	s.Empty(s.repo.docs)
}

func (s *ServiceSuite) TestCreateQuotationRequiresCustomerName() {
	in := s.quotationInput()
	in.CustomerName = "  "
	_, err := s.service.CreateQuotation(s.ctx, in)
	s.ErrorIs(err, httpx.ErrValidation)
}

func (s *ServiceSuite) TestCreateQuotationBackfillsFromMaster() {
	s.customers.EXPECT().FindCustomer(gomock.Any(), int64(4)).Return(&customers.Customer{
		ID:      4,
		Name:    "บริษัท ลูกค้า จำกัด",
		TaxID:   ptr("0105560000001"),
		Address: ptr("กรุงเทพฯ"),
	}, nil).Times(2)

	in := s.quotationInput()
	in.CustomerID = ptr(int64(4))
	in.CustomerName = ""
	doc, err := s.service.CreateQuotation(s.ctx, in)
	s.Require().NoError(err)
	s.Equal("บริษัท ลูกค้า จำกัด", doc.Customer.Name)
	s.Equal("0105560000001", doc.Customer.TaxID)
	s.Require().NotNil(doc.Customer.CustomerID)
	s.Equal(int64(4), *doc.Customer.CustomerID)

	in.CustomerName = "ชื่อที่พิมพ์เอง"
	in.CustomerAddress = "เชียงใหม่"
	doc, err = s.service.CreateQuotation(s.ctx, in)
	s.Require().NoError(err)
	s.Equal("ชื่อที่พิมพ์เอง", doc.Customer.Name)
	s.Equal("เชียงใหม่", doc.Customer.Address)
	s.Equal("0105560000001", doc.Customer.TaxID)
}

func (s *ServiceSuite) TestCreateQuotationUnknownCustomer() {
	s.customers.EXPECT().FindCustomer(gomock.Any(), int64(99)).Return(nil, nil)
	in := s.quotationInput()
	in.CustomerID = ptr(int64(99))
	_, err := s.service.CreateQuotation(s.ctx, in)
	s.ErrorIs(err, httpx.ErrNotFound)
}

func (s *ServiceSuite) TestCreateQuotationDefaultsAndClamping() {
	in := DocumentInput{
		CustomerName:   "x",
		DiscountAmount: amount("-50"),
		VATRate:        amount("abc"),
		WarrantyMonths: ptr(12),
		Lines:          []LineInput{{Description: "งาน", UnitPrice: amount("-10")}},
	}
	doc, err := s.service.CreateQuotation(s.ctx, in)
	s.Require().NoError(err)

	s.True(doc.DiscountAmount.IsZero())
	s.True(doc.VATRate.IsZero(), "malformed rate coerces to zero")
	s.True(doc.Lines[0].Qty.Equal(decimal.NewFromInt(1)))
	s.True(doc.Lines[0].UnitPrice.IsZero())
	s.Equal(time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	s.Require().NotNil(doc.WarrantyEndDate)
	s.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), *doc.WarrantyEndDate)
}

func (s *ServiceSuite) TestCreateQuotationRetriesNumberConflict() {
	s.repo.insertConflicts = 2
	doc := s.createQuotation()
	s.Equal("QT-2025-0001", doc.DocNo)
	s.Equal(3, s.repo.txCount)
}

func (s *ServiceSuite) TestCreateQuotationGivesUpAfterThreeConflicts() {
	s.repo.insertConflicts = 3
	_, err := s.service.CreateQuotation(s.ctx, s.quotationInput())
	s.ErrorIs(err, ErrDocNoConflict)
	s.ErrorIs(err, httpx.ErrConflict)
	s.Equal(3, s.repo.txCount)
	s.Empty(s.repo.docs)
}

func (s *ServiceSuite) TestConcurrentCreateIssuesUniqueNumbers() {
	const n = 20
	var wg sync.WaitGroup
	numbers := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.service.CreateQuotation(s.ctx, s.quotationInput())
			errs[i] = err
			if err == nil {
				numbers[i] = doc.DocNo
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}
	sort.Strings(numbers)
	for i, no := range numbers {
		s.Equal(shared.FormatNumber("QT", 2025, i+1), no)
	}
}

// ============================================================================
// EDIT
// ============================================================================

func (s *ServiceSuite) TestEditReplacesLines() {
	t := s.T()
	qt := s.createQuotation()

	in := s.quotationInput()
	in.IssueDate = ""
	in.Lines = []LineInput{
		{Description: "A", Qty: amount("2"), UnitPrice: amount("100")},
		{Description: "B", Qty: amount("1"), UnitPrice: amount("50"), DiscountAmount: amount("10")},
	}
	doc, err := s.service.Edit(s.ctx, qt.ID, in)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "B", doc.Lines[1].Description)
	assert.Equal(t, 2, doc.Lines[1].LineOrder)
	assert.Equal(t, qt.DocNo, doc.DocNo)
	assert.Equal(t, qt.IssueDate, doc.IssueDate, "blank issue date keeps the stored one")
	assert.Equal(t, "240.00", doc.Totals().Subtotal.StringFixed(2))
}

func (s *ServiceSuite) TestEditRejectsApproved() {
	qt := s.approvedQuotation()
	before, err := s.repo.Get(s.ctx, qt.ID)
	s.Require().NoError(err)

	in := s.quotationInput()
	in.Subject = "changed"
	_, err = s.service.Edit(s.ctx, qt.ID, in)
	s.ErrorIs(err, httpx.ErrValidation)

	after, err := s.repo.Get(s.ctx, qt.ID)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *ServiceSuite) TestEditRejectsVoid() {
	qt := s.createQuotation()
	d := s.repo.docs[qt.ID]
	d.Status = StatusVoid
	s.repo.docs[qt.ID] = d

	_, err := s.service.Edit(s.ctx, qt.ID, s.quotationInput())
	s.ErrorIs(err, httpx.ErrValidation)
}

func (s *ServiceSuite) TestEditMissing() {
	_, err := s.service.Edit(s.ctx, 404, s.quotationInput())
	s.ErrorIs(err, ErrNotFound)
}

// ============================================================================
// APPROVE
// ============================================================================

func (s *ServiceSuite) TestApproveIsIdempotent() {
	t := s.T()
	qt := s.createQuotation()

	s.projects.EXPECT().
		MaterializeFromQuotation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, src projects.QuotationSource) (*projects.Project, bool, error) {
			assert.Equal(t, qt.ID, src.SalesDocID)
			assert.Equal(t, "QT-2025-0001", src.DocNo)
			assert.Equal(t, "ต่อเติมห้องครัว", src.Subject)
			assert.Equal(t, "คุณสมชาย ใจดี", src.CustomerName)
			return &projects.Project{ID: 10}, true, nil
		}).
		Times(1)
	s.dashboard.EXPECT().InvalidateDashboards(gomock.Any()).Times(1)

	first, err := s.service.Approve(s.ctx, qt.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, first.Status)
	require.NotNil(t, first.ApprovedBy)
	assert.Equal(t, DefaultApprover, *first.ApprovedBy)
	require.NotNil(t, first.ApprovedAt)
	assert.Equal(t, time.UTC, first.ApprovedAt.Location())

	s.service.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := s.service.Approve(s.ctx, qt.ID, "someone else")
	require.NoError(t, err)
	assert.Equal(t, *first.ApprovedAt, *second.ApprovedAt)
	assert.Equal(t, DefaultApprover, *second.ApprovedBy)
}

func (s *ServiceSuite) TestApproveRollsBackWhenMaterializeFails() {
	qt := s.createQuotation()
	s.projects.EXPECT().MaterializeFromQuotation(gomock.Any(), gomock.Any()).
		Return(nil, false, errors.New("projects_code_key"))

	_, err := s.service.Approve(s.ctx, qt.ID, "")
	s.Error(err)
	doc, err := s.repo.Get(s.ctx, qt.ID)
	s.Require().NoError(err)
	s.Equal(StatusDraft, doc.Status)
	s.Nil(doc.ApprovedAt)
}

func (s *ServiceSuite) TestApproveVoidFails() {
	qt := s.createQuotation()
	d := s.repo.docs[qt.ID]
	d.Status = StatusVoid
	s.repo.docs[qt.ID] = d

	_, err := s.service.Approve(s.ctx, qt.ID, "")
	s.ErrorIs(err, httpx.ErrValidation)
}

func (s *ServiceSuite) TestApproveChildDoesNotMaterialize() {
	qt := s.approvedQuotation()
	iv, _, err := s.service.CreateChild(s.ctx, qt.ID, "IV")
	s.Require().NoError(err)

	s.dashboard.EXPECT().InvalidateDashboards(gomock.Any())
	doc, err := s.service.Approve(s.ctx, iv.ID, "บัญชี")
	s.Require().NoError(err)
	s.Equal(StatusApproved, doc.Status)
	s.Equal("บัญชี", *doc.ApprovedBy)
}

func (s *ServiceSuite) TestConfiguredDefaultApprover() {
	svc := NewService(s.repo, Deps{Company: s.company, Projects: s.projects, DefaultApprover: "ผู้จัดการ"})
	svc.now = s.service.now
	qt := s.createQuotation()
	s.projects.EXPECT().MaterializeFromQuotation(gomock.Any(), gomock.Any()).Return(&projects.Project{ID: 2}, true, nil)

	doc, err := svc.Approve(s.ctx, qt.ID, " ")
	s.Require().NoError(err)
	s.Equal("ผู้จัดการ", *doc.ApprovedBy)
}

// ============================================================================
// CREATE CHILD
// ============================================================================

func (s *ServiceSuite) TestCreateChildClonesQuotation() {
	t := s.T()
	qt := s.approvedQuotation()

	iv, created, err := s.service.CreateChild(s.ctx, qt.ID, " iv ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DocTypeInvoice, iv.DocType)
	assert.Equal(t, "IV-2025-0001", iv.DocNo)
	assert.Equal(t, StatusDraft, iv.Status)
	require.NotNil(t, iv.ParentID)
	assert.Equal(t, qt.ID, *iv.ParentID)
	assert.Equal(t, qt.Customer, iv.Customer)
	assert.Equal(t, qt.Company, iv.Company)
	assert.Equal(t, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), iv.IssueDate)
	assert.Nil(t, iv.BOQExcelPath)
	assert.Nil(t, iv.ApprovedAt)
	require.Len(t, iv.Lines, len(qt.Lines))
	assert.True(t, qt.Totals().GrandTotal.Equal(iv.Totals().GrandTotal))
}

func (s *ServiceSuite) TestEditChildRejectsBOQAttachments() {
	t := s.T()
	qt := s.approvedQuotation()
	iv, _, err := s.service.CreateChild(s.ctx, qt.ID, "IV")
	require.NoError(t, err)

	excel, pdf := "boq/excel/x.xlsx", "boq/pdf/x.pdf"
	in := s.quotationInput()
	in.Attachments = AttachmentPaths{Excel: &excel, PDF: &pdf}
	_, err = s.service.Edit(s.ctx, iv.ID, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	stored, err := s.repo.Get(s.ctx, iv.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BOQExcelPath)
	assert.Nil(t, stored.BOQPDFPath)

	// Without attachments the child stays editable.
	in.Attachments = AttachmentPaths{}
	_, err = s.service.Edit(s.ctx, iv.ID, in)
	assert.NoError(t, err)
}

func (s *ServiceSuite) TestCreateChildIsIdempotent() {
	qt := s.approvedQuotation()

	first, created, err := s.service.CreateChild(s.ctx, qt.ID, "RC")
	s.Require().NoError(err)
	s.True(created)

	second, created, err := s.service.CreateChild(s.ctx, qt.ID, "RC")
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, second.ID)

	bl, created, err := s.service.CreateChild(s.ctx, qt.ID, "BL")
	s.Require().NoError(err)
	s.True(created)
	s.Equal("BL-2025-0001", bl.DocNo)

	children, err := s.service.Children(s.ctx, qt.ID)
	s.Require().NoError(err)
	s.Len(children, 2)
}

func (s *ServiceSuite) TestCreateChildConcurrent() {
	qt := s.approvedQuotation()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, _, err := s.service.CreateChild(s.ctx, qt.ID, "IV")
			if err == nil {
				ids[i] = doc.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		s.Equal(ids[0], id)
	}
	children, err := s.service.Children(s.ctx, qt.ID)
	s.Require().NoError(err)
	s.Len(children, 1)
}

func (s *ServiceSuite) TestCreateChildRules() {
	draft := s.createQuotation()
	cases := []struct {
		name     string
		parentID int64
		docType  string
		want     error
	}{
		{"unknown type", draft.ID, "PO", httpx.ErrValidation},
		{"quotation type", draft.ID, "QT", httpx.ErrValidation},
		{"draft parent", draft.ID, "IV", httpx.ErrValidation},
		{"missing parent", 999, "IV", httpx.ErrNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, _, err := s.service.CreateChild(s.ctx, tc.parentID, tc.docType)
			s.ErrorIs(err, tc.want)
		})
	}
}

func (s *ServiceSuite) TestCreateChildFromChildFails() {
	qt := s.approvedQuotation()
	iv, _, err := s.service.CreateChild(s.ctx, qt.ID, "IV")
	s.Require().NoError(err)
	s.dashboard.EXPECT().InvalidateDashboards(gomock.Any())
	_, err = s.service.Approve(s.ctx, iv.ID, "")
	s.Require().NoError(err)

	_, _, err = s.service.CreateChild(s.ctx, iv.ID, "RC")
	s.ErrorIs(err, httpx.ErrValidation)
}

func (s *ServiceSuite) TestCreateChildSnapshotsCompanyWhenParentHasNone() {
	qt := s.approvedQuotation()
	d := s.repo.docs[qt.ID]
	d.Company = CompanySnapshot{}
	s.repo.docs[qt.ID] = d

	iv, _, err := s.service.CreateChild(s.ctx, qt.ID, "IV")
	s.Require().NoError(err)
	s.Equal("หจก. ก่อสร้างดี", iv.Company.Name)
}

// ============================================================================
// READS
// ============================================================================

func (s *ServiceSuite) TestListFilters() {
	qt := s.approvedQuotation()
	s.createQuotation()
	_, _, err := s.service.CreateChild(s.ctx, qt.ID, "IV")
	s.Require().NoError(err)

	all, total, err := s.service.List(s.ctx, ListFilter{})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(all, 3)

	qts, _, err := s.service.List(s.ctx, ListFilter{DocType: DocTypeQuotation, Status: StatusApproved})
	s.Require().NoError(err)
	s.Require().Len(qts, 1)
	s.Equal(qt.ID, qts[0].ID)

	_, _, err = s.service.List(s.ctx, ListFilter{DocType: "XX"})
	s.ErrorIs(err, httpx.ErrValidation)
}

func (s *ServiceSuite) TestChildrenOfMissingParent() {
	_, err := s.service.Children(s.ctx, 77)
	s.ErrorIs(err, ErrNotFound)
}

func TestBuildLinesSkipsBlankDescriptions(t *testing.T) {
	lines := buildLines([]LineInput{
		{Description: " ก "},
		{Description: ""},
		{Description: "ข", Qty: pricing.NewAmount("0")},
	})
	require.Len(t, lines, 2)
	assert.Equal(t, "ก", lines[0].Description)
	assert.True(t, lines[0].Qty.Equal(decimal.NewFromInt(1)))
	assert.True(t, lines[1].Qty.IsZero())
	assert.Equal(t, 2, lines[1].LineOrder)
}

func TestWarrantyEnd(t *testing.T) {
	issue := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, warrantyEnd(issue, nil))
	assert.Nil(t, warrantyEnd(issue, ptr(0)))
	got := warrantyEnd(issue, ptr(24))
	require.NotNil(t, got)
	assert.Equal(t, "2027-01-31", got.Format(time.DateOnly))
}

func ExampleDocType_Title() {
	fmt.Println(DocTypeReceipt.Title())
	// Output: ใบเสร็จรับเงิน
}
