package company

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/platform/storage"
)

type memRepo struct {
	profile *Profile
}

func (m *memRepo) Get(context.Context) (*Profile, error) {
	if m.profile == nil {
		return nil, nil
	}
	cp := *m.profile
	return &cp, nil
}

func (m *memRepo) Save(_ context.Context, p Profile) error {
	m.profile = &p
	return nil
}

func TestCurrentFallsBackToDefaultName(t *testing.T) {
	svc := NewService(&memRepo{}, storage.NewLocal(t.TempDir()))
	p, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultName, p.Name)
}

func TestUpdateKeepsNameWhenBlank(t *testing.T) {
	repo := &memRepo{profile: &Profile{Name: "ACME Build"}}
	svc := NewService(repo, storage.NewLocal(t.TempDir()))

	p, err := svc.Update(context.Background(), UpdateRequest{TaxID: " 0105551234567 ", PaymentBank: "KBank"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "ACME Build", p.Name)
	require.NotNil(t, p.TaxID)
	assert.Equal(t, "0105551234567", *p.TaxID)
	require.NotNil(t, p.PaymentBank)
	assert.Nil(t, p.Website)
}

func TestUpdateStoresLogo(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, storage.NewLocal(t.TempDir()))

	p, err := svc.Update(context.Background(), UpdateRequest{Name: "ACME"}, "logo.PNG", strings.NewReader("png"))
	require.NoError(t, err)
	require.NotNil(t, p.LogoPath)
	assert.True(t, strings.HasPrefix(*p.LogoPath, "company/"))
}

func TestUpdateRejectsLogoExtension(t *testing.T) {
	svc := NewService(&memRepo{}, storage.NewLocal(t.TempDir()))
	var logo io.Reader = strings.NewReader("gif")
	_, err := svc.Update(context.Background(), UpdateRequest{Name: "ACME"}, "logo.gif", logo)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateValidatesEmail(t *testing.T) {
	svc := NewService(&memRepo{}, storage.NewLocal(t.TempDir()))
	_, err := svc.Update(context.Background(), UpdateRequest{Email: "not-an-email"}, "", nil)
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}
