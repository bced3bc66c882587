package withholding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/sitecost/sitecost/internal/company"
	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/sales/pricing"
)

var fixedNow = time.Date(2025, 8, 20, 14, 30, 0, 0, time.FixedZone("ICT", 7*3600))

func amount(s string) pricing.Amount { return pricing.NewAmount(s) }

func ptr[T any](v T) *T { return &v }

type companyStub struct {
	profile *company.Profile
	err     error
}

func (c companyStub) Current(context.Context) (*company.Profile, error) {
	return c.profile, c.err
}

type ServiceSuite struct {
	suite.Suite
	repo    *memRepository
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.repo = newMemRepository()
	s.service = NewService(s.repo, companyStub{profile: &company.Profile{
		Name:    "หจก. ก่อสร้างดี",
		TaxID:   ptr("0-1055-61234-56-7"),
		Address: ptr("99 ถนนพระราม 9 กรุงเทพฯ"),
	}}, nil)
	s.service.now = func() time.Time { return fixedNow }
	s.ctx = context.Background()
}

func (s *ServiceSuite) input() CertificateInput {
	return CertificateInput{
		PayeeName:    "นายช่าง ใจดี",
		PayeeTaxID:   "3 1012 00456 78 9",
		PayeeAddress: "12 หมู่ 3 นนทบุรี",
		PaymentDate:  "2025-08-15",
		IncomeType:   "ค่าจ้างทำของ",
		BaseAmount:   amount("1000"),
		WHTRate:      amount("3"),
	}
}

func (s *ServiceSuite) TestCreateComputesWithholding() {
	c, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)

	s.Equal("PND53-2025-0001", c.DocNo)
	s.Equal(FormPND53, c.FormType)
	s.Equal(PayeePerson, c.PayeeKind)
	s.Equal("30", c.WHTAmount.String())
	s.Equal("1000", c.BaseAmount.String())
	s.Equal("3101200456789", c.Payee.TaxID)
	s.Equal("2025-08-15", c.PaymentDate.Format(time.DateOnly))
	s.Equal("หจก. ก่อสร้างดี", c.Payer.Name)
	s.Equal("0105561234567", c.Payer.TaxID)
	s.Equal(DefaultBranchNo, c.PayerBranchNo)
	s.True(c.IsActive)
	s.Require().NotNil(c.IncomeType)
	s.Equal("ค่าจ้างทำของ", *c.IncomeType)
}

func (s *ServiceSuite) TestCreateTrustsSuppliedAmount() {
	in := s.input()
	in.WHTAmount = amount("25.555")
	c, err := s.service.Create(s.ctx, in)
	s.Require().NoError(err)
	s.Equal("25.56", c.WHTAmount.String())
}

func (s *ServiceSuite) TestCreateClampsNegativeRate() {
	in := s.input()
	in.WHTRate = amount("-5")
	c, err := s.service.Create(s.ctx, in)
	s.Require().NoError(err)
	s.True(c.WHTRate.IsZero())
	s.True(c.WHTAmount.IsZero())
}

func (s *ServiceSuite) TestCreateRequiresPositiveBase() {
	for _, base := range []string{"", "0", "-10", "abc"} {
		in := s.input()
		in.BaseAmount = amount(base)
		_, err := s.service.Create(s.ctx, in)

		var verr *httpx.ValidationError
		s.Require().ErrorAs(err, &verr, "base %q", base)
		s.Contains(verr.Fields, "base_amount")
	}
	s.Zero(s.repo.txCount)
}

func (s *ServiceSuite) TestCreateRequiresPayeeName() {
	in := s.input()
	in.PayeeName = ""
	_, err := s.service.Create(s.ctx, in)

	var verr *httpx.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "payee_name")
}

func (s *ServiceSuite) TestCreateDefaults() {
	in := s.input()
	in.FormType = "ภ.ง.ด. 9"
	in.PayeeKind = "robot"
	in.PaymentDate = "15/08/2025"
	c, err := s.service.Create(s.ctx, in)
	s.Require().NoError(err)

	s.Equal(FormPND53, c.FormType)
	s.Equal(PayeePerson, c.PayeeKind)
	s.Equal("2025-08-20", c.PaymentDate.Format(time.DateOnly))
}

func (s *ServiceSuite) TestNumberingPerForm() {
	in := s.input()
	in.FormType = "pnd3"
	in.PayeeKind = "entity"
	first, err := s.service.Create(s.ctx, in)
	s.Require().NoError(err)
	second, err := s.service.Create(s.ctx, in)
	s.Require().NoError(err)
	other, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)

	s.Equal(PayeeEntity, first.PayeeKind)
	s.Equal("PND3-2025-0001", first.DocNo)
	s.Equal("PND3-2025-0002", second.DocNo)
	s.Equal("PND53-2025-0001", other.DocNo)
}

func (s *ServiceSuite) TestNumberingContinuesFromHighestSuffix() {
	s.repo.rows[7] = Certificate{ID: 7, DocNo: "PND53-2025-0009"}
	s.repo.rows[8] = Certificate{ID: 8, DocNo: "PND53-2025-XXXX"}
	s.repo.nextID = 8

	c, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)
	s.Equal("PND53-2025-0010", c.DocNo)
}

func (s *ServiceSuite) TestCreateRetriesNumberConflicts() {
	s.repo.conflicts = 2
	c, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)
	s.Equal("PND53-2025-0001", c.DocNo)
	s.Equal(3, s.repo.txCount)
}

func (s *ServiceSuite) TestCreateGivesUpAfterThreeConflicts() {
	s.repo.conflicts = 3
	_, err := s.service.Create(s.ctx, s.input())
	s.Require().Error(err)
	s.ErrorIs(err, ErrDocNoConflict)
	s.ErrorIs(err, httpx.ErrConflict)
	s.Empty(s.repo.rows)
}

func (s *ServiceSuite) TestConcurrentCreatesGetUniqueNumbers() {
	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := s.service.Create(s.ctx, s.input())
			if err == nil {
				numbers <- c.DocNo
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for no := range numbers {
		s.False(seen[no], "duplicate %s", no)
		seen[no] = true
	}
	s.Len(seen, n)
	for i := 1; i <= n; i++ {
		s.True(seen[fmt.Sprintf("PND53-2025-%04d", i)])
	}
}

func (s *ServiceSuite) TestEditKeepsNumberAndPayer() {
	c, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)

	in := s.input()
	in.FormType = "nonsense"
	in.PayeeName = "บริษัท ผู้รับเหมา จำกัด"
	in.BaseAmount = amount("2000")
	in.IsActive = ptr(false)
	edited, err := s.service.Edit(s.ctx, c.ID, in)
	s.Require().NoError(err)

	s.Equal(c.DocNo, edited.DocNo)
	s.Equal(c.Payer, edited.Payer)
	s.Equal(FormPND53, edited.FormType)
	s.Equal("บริษัท ผู้รับเหมา จำกัด", edited.Payee.Name)
	s.Equal("60", edited.WHTAmount.String())
	s.False(edited.IsActive)
}

func (s *ServiceSuite) TestEditSwitchesForm() {
	c, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)

	in := s.input()
	in.FormType = "PND3"
	edited, err := s.service.Edit(s.ctx, c.ID, in)
	s.Require().NoError(err)
	s.Equal(FormPND3, edited.FormType)
	s.Equal("PND53-2025-0001", edited.DocNo)
	s.True(edited.IsActive)
}

func (s *ServiceSuite) TestEditMissing() {
	_, err := s.service.Edit(s.ctx, 42, s.input())
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(err, httpx.ErrNotFound)
}

func (s *ServiceSuite) TestListSearches() {
	first, err := s.service.Create(s.ctx, s.input())
	s.Require().NoError(err)
	in := s.input()
	in.PayeeName = "บริษัท ปูน จำกัด"
	_, err = s.service.Create(s.ctx, in)
	s.Require().NoError(err)

	all, err := s.service.List(s.ctx, ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("PND53-2025-0002", all[0].DocNo)

	hits, err := s.service.List(s.ctx, ListFilter{Query: "  ปูน "})
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal("บริษัท ปูน จำกัด", hits[0].Payee.Name)

	byNo, err := s.service.List(s.ctx, ListFilter{Query: first.DocNo})
	s.Require().NoError(err)
	s.Len(byNo, 1)
}

func TestPayerFallsBackToDefaultName(t *testing.T) {
	repo := newMemRepository()
	svc := NewService(repo, companyStub{profile: &company.Profile{Name: "  "}}, nil)
	c, err := svc.Create(context.Background(), CertificateInput{PayeeName: "ก", BaseAmount: amount("100")})
	require.NoError(t, err)
	assert.Equal(t, company.DefaultName, c.Payer.Name)
	assert.Empty(t, c.Payer.TaxID)
}

func TestCreateFailsWhenCompanyUnavailable(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(newMemRepository(), companyStub{err: boom}, nil)
	_, err := svc.Create(context.Background(), CertificateInput{PayeeName: "ก", BaseAmount: amount("100")})
	assert.ErrorIs(t, err, boom)
}

func TestParseFormType(t *testing.T) {
	cases := map[string]FormType{
		"PND3":     FormPND3,
		"pnd.3":    FormPND3,
		"ภ.ง.ด.3":  FormPND3,
		"3":        FormPND3,
		"PND53":    FormPND53,
		"ภงด 53":   FormPND53,
		"P53":      FormPND53,
		"":         FormPND3,
		"PND1":     FormPND3,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseFormType(raw, FormPND3), raw)
	}
}
