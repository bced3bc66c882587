package sales

import (
	"context"

	"github.com/sitecost/sitecost/internal/company"
	"github.com/sitecost/sitecost/internal/customers"
	"github.com/sitecost/sitecost/internal/projects"
	"github.com/sitecost/sitecost/internal/shared"
)

//go:generate mockgen -source=deps.go -destination=deps_mock.go -package=sales

// CustomerFinder resolves master customer records. A nil customer with a nil
// error means the id is unknown.
type CustomerFinder interface {
	FindCustomer(ctx context.Context, id int64) (*customers.Customer, error)
}

// CompanySource returns the issuer profile to snapshot onto new documents.
type CompanySource interface {
	Current(ctx context.Context) (*company.Profile, error)
}

// ProjectMaterializer creates the project backing an approved quotation. It
// must join the transaction carried by ctx.
type ProjectMaterializer interface {
	MaterializeFromQuotation(ctx context.Context, qt projects.QuotationSource) (*projects.Project, bool, error)
}

type DashboardInvalidator interface {
	InvalidateDashboards(ctx context.Context)
}

type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}
