package withholding

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	renderer *Renderer
}

func NewHandler(logger *slog.Logger, service *Service, renderer *Renderer) *Handler {
	return &Handler{logger: logger, service: service, renderer: renderer}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/withholding/certificates", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.edit)
		r.Get("/{id}/pdf", h.pdf)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), ListFilter{Query: r.URL.Query().Get("q")})
	if err != nil {
		h.logger.Error("list certificates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Certificate{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"certificates": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CertificateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create certificate", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := certificateID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := certificateID(w, r)
	if !ok {
		return
	}
	var in CertificateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	c, err := h.service.Edit(r.Context(), id, in)
	if err != nil {
		h.respondError(w, "edit certificate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, ok := certificateID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, c); err != nil {
		h.logger.Error("render certificate", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, Filename(c)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func certificateID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "certificate id must be a positive integer")
		return 0, false
	}
	return id, true
}
