package projects

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/shared"
)

// RefreshEnqueuer schedules a background dashboard rebuild.
type RefreshEnqueuer interface {
	EnqueueDashboardRefresh(ctx context.Context, period Period) error
}

type Handler struct {
	logger  *slog.Logger
	service *Service
	refresh RefreshEnqueuer
}

// NewHandler builds the handler. refresh may be nil, in which case refresh
// requests rebuild synchronously.
func NewHandler(logger *slog.Logger, service *Service, refresh RefreshEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, refresh: refresh}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.show)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Get("/totals", h.totals)
			r.Get("/export.xlsx", h.exportProject)
			r.Post("/status", h.setStatus)
			r.Post("/deposit-returned", h.setDepositReturned)
		})
	})
	r.Get("/dashboard", h.dashboard)
	r.Get("/dashboard/export.xlsx", h.exportDashboard)
	r.Post("/dashboard/refresh", h.refreshDashboard)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.PageFromQuery(r.URL.Query())
	list, total, err := h.service.List(r.Context(), ListFilter{
		Query:  r.URL.Query().Get("q"),
		Limit:  page.PerPage,
		Offset: page.Offset(),
	})
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"projects":   list,
		"pagination": shared.NewPagination(page.Page, page.PerPage, total),
	})
}

type projectView struct {
	*Project
	Totals Totals `json:"totals"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projectView{Project: p, Totals: ComputeTotals(p)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Warn("create project", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, projectView{Project: p, Totals: ComputeTotals(p)})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var in ProjectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	p, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projectView{Project: p, Totals: ComputeTotals(p)})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Totals(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	p, err := h.service.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projectView{Project: p, Totals: ComputeTotals(p)})
}

func (h *Handler) setDepositReturned(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	var body struct {
		Returned bool `json:"returned"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	p, err := h.service.SetDepositReturned(r.Context(), id, body.Returned)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projectView{Project: p, Totals: ComputeTotals(p)})
}

func (h *Handler) exportProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f, err := ProjectWorkbook(p)
	if err != nil {
		h.logger.Error("build project workbook", slog.Int64("project_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="project_%s.xlsx"`, p.Code))
	if err := f.Write(w); err != nil {
		h.logger.Error("write project workbook", slog.Any("error", err))
	}
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), periodFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) exportDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), periodFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f, err := DashboardWorkbook(d)
	if err != nil {
		h.logger.Error("build dashboard workbook", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = f.Close() }()
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, DashboardFilename(d.Period)))
	if err := f.Write(w); err != nil {
		h.logger.Error("write dashboard workbook", slog.Any("error", err))
	}
}

func (h *Handler) refreshDashboard(w http.ResponseWriter, r *http.Request) {
	period := periodFromQuery(r)
	if h.refresh != nil {
		if err := h.refresh.EnqueueDashboardRefresh(r.Context(), period); err != nil {
			h.logger.Error("enqueue dashboard refresh", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]any{"queued": true, "period": period})
		return
	}
	d, err := h.service.Refresh(r.Context(), period)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// periodFromQuery ignores malformed year or month values.
func periodFromQuery(r *http.Request) Period {
	var p Period
	if v, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
		p.Year = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil {
		p.Month = v
	}
	return p
}

func projectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "project id must be a positive integer")
		return 0, false
	}
	return id, true
}
