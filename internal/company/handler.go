package company

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sitecost/sitecost/internal/platform/httpx"
)

const maxLogoUpload = 5 << 20

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings/company", h.show)
	r.Put("/settings/company", h.update)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Current(r.Context())
	if err != nil {
		h.logger.Error("load company profile", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// update accepts JSON, or multipart form fields plus an optional "logo" file.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var (
		req      UpdateRequest
		logoName string
		logo     io.Reader
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxLogoUpload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Form", err.Error())
			return
		}
		req = UpdateRequest{
			Name:               r.FormValue("company_name"),
			TaxID:              r.FormValue("tax_id"),
			Address:            r.FormValue("address"),
			Phone:              r.FormValue("phone"),
			Email:              r.FormValue("email"),
			Website:            r.FormValue("website"),
			PaymentBank:        r.FormValue("payment_bank"),
			PaymentAccountNo:   r.FormValue("payment_account_no"),
			PaymentAccountName: r.FormValue("payment_account_name"),
			PaymentBranch:      r.FormValue("payment_branch"),
		}
		file, header, err := r.FormFile("logo")
		if err == nil {
			defer func(f multipart.File) { _ = f.Close() }(file)
			logoName, logo = header.Filename, file
		}
	} else if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}

	p, err := h.service.Update(r.Context(), req, logoName, logo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
