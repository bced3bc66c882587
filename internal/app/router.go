package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitecost/sitecost/internal/company"
	"github.com/sitecost/sitecost/internal/customers"
	"github.com/sitecost/sitecost/internal/observability"
	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/projects"
	"github.com/sitecost/sitecost/internal/sales"
	"github.com/sitecost/sitecost/internal/shared"
	"github.com/sitecost/sitecost/internal/withholding"
	"github.com/sitecost/sitecost/jobs"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are not mounted.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Metrics            *observability.Metrics
	Database           Pinger
	Idempotency        *shared.IdempotencyStore
	CustomersHandler   *customers.Handler
	CompanyHandler     *company.Handler
	SalesHandler       *sales.Handler
	ProjectsHandler    *projects.Handler
	WithholdingHandler *withholding.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with every module mounted.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.Idempotency != nil {
		r.Use(shared.IdempotentRequests(params.Idempotency, params.Logger))
	}

	r.Get("/healthz", healthz(params.Database, params.Logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.CustomersHandler != nil {
		params.CustomersHandler.MountRoutes(r)
	}
	if params.CompanyHandler != nil {
		params.CompanyHandler.MountRoutes(r)
	}
	if params.SalesHandler != nil {
		params.SalesHandler.MountRoutes(r)
	}
	if params.ProjectsHandler != nil {
		params.ProjectsHandler.MountRoutes(r)
	}
	if params.WithholdingHandler != nil {
		params.WithholdingHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		params.JobHandler.MountRoutes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" "+r.URL.Path)
	})
	return r
}

func healthz(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.Warn("healthz: database unreachable", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
