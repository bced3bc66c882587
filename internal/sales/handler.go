package sales

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sitecost/sitecost/internal/platform/httpx"
	"github.com/sitecost/sitecost/internal/platform/storage"
	"github.com/sitecost/sitecost/internal/shared"
)

const maxBOQUpload = 32 << 20

var (
	boqExcelExtensions = []string{"xls", "xlsx"}
	boqPDFExtensions   = []string{"pdf"}
)

// FileStore keeps BOQ attachments.
type FileStore interface {
	Save(subdir, filename string, r io.Reader, allowed ...string) (string, error)
	Open(rel string) (*os.File, error)
	Remove(rel string) error
}

// Handler manages sales document endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	files   FileStore
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, files FileStore) *Handler {
	return &Handler{logger: logger, service: service, files: files}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/docs", func(r chi.Router) {
		r.Get("/", h.listDocuments)
		r.Post("/quotations", h.createQuotation)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.showDocument)
			r.Put("/", h.editDocument)
			r.Post("/approve", h.approveDocument)
			r.Get("/children", h.listChildren)
			r.Post("/children/{type}", h.createChild)
			r.Get("/boq/{kind}", h.downloadBOQ)
		})
	})
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := shared.PageFromQuery(q)
	docs, total, err := h.service.List(r.Context(), ListFilter{
		DocType: ParseDocType(q.Get("type")),
		Status:  Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		Query:   q.Get("q"),
		Limit:   page.PerPage,
		Offset:  page.Offset(),
	})
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]View, 0, len(docs))
	for i := range docs {
		views = append(views, NewView(&docs[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"documents":  views,
		"pagination": shared.NewPagination(page.Page, page.PerPage, total),
	})
}

func (h *Handler) showDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(doc))
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}
	doc, err := h.service.CreateQuotation(r.Context(), in)
	if err != nil {
		h.discardUploads(in.Attachments)
		h.respondError(w, "create quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, NewView(doc))
}

func (h *Handler) editDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Edit(r.Context(), id, in)
	if err != nil {
		h.discardUploads(in.Attachments)
		h.respondError(w, "edit document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(doc))
}

func (h *Handler) approveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	var body struct {
		ApprovedBy string `json:"approved_by"`
	}
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return
		}
	}
	doc, err := h.service.Approve(r.Context(), id, body.ApprovedBy)
	if err != nil {
		h.respondError(w, "approve document", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewView(doc))
}

func (h *Handler) createChild(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	doc, created, err := h.service.CreateChild(r.Context(), id, chi.URLParam(r, "type"))
	if err != nil {
		h.respondError(w, "create child document", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, NewView(doc))
}

func (h *Handler) listChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	docs, err := h.service.Children(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]View, 0, len(docs))
	for i := range docs {
		views = append(views, NewView(&docs[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": views})
}

func (h *Handler) downloadBOQ(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var rel *string
	switch chi.URLParam(r, "kind") {
	case "excel":
		rel = doc.BOQExcelPath
	case "pdf":
		rel = doc.BOQPDFPath
	default:
		httpx.Problem(w, http.StatusBadRequest, "Invalid Kind", "kind must be excel or pdf")
		return
	}
	if rel == nil || h.files == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no BOQ file attached")
		return
	}
	f, err := h.files.Open(*rel)
	if err != nil {
		h.logger.Warn("open BOQ file", slog.String("path", *rel), slog.Any("error", err))
		httpx.Problem(w, http.StatusNotFound, "Not Found", "BOQ file is missing")
		return
	}
	defer func() { _ = f.Close() }()
	name := fmt.Sprintf("%s_BOQ%s", doc.DocNo, path.Ext(*rel))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	info, err := f.Stat()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// readInput accepts a JSON body, or a multipart form whose "document" field
// holds the JSON and whose "boq_excel" and "boq_pdf" parts carry attachments.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (DocumentInput, bool) {
	var in DocumentInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return in, false
		}
		return in, true
	}

	if err := r.ParseMultipartForm(maxBOQUpload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Form", err.Error())
		return in, false
	}
	if raw := r.FormValue("document"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return in, false
		}
	}
	var err error
	if in.Attachments.Excel, err = h.saveUpload(r, "boq_excel", "boq/excel", boqExcelExtensions); err != nil {
		h.respondError(w, "save BOQ excel", err)
		return in, false
	}
	if in.Attachments.PDF, err = h.saveUpload(r, "boq_pdf", "boq/pdf", boqPDFExtensions); err != nil {
		h.discardUploads(in.Attachments)
		h.respondError(w, "save BOQ pdf", err)
		return in, false
	}
	return in, true
}

func (h *Handler) saveUpload(r *http.Request, field, subdir string, allowed []string) (*string, error) {
	if h.files == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	rel, err := h.files.Save(subdir, header.Filename, file, allowed...)
	if err != nil || rel == "" {
		return nil, err
	}
	return &rel, nil
}

// discardUploads removes attachments saved for a request the service rejected.
func (h *Handler) discardUploads(files AttachmentPaths) {
	if h.files == nil {
		return
	}
	for _, rel := range []*string{files.Excel, files.PDF} {
		if rel == nil {
			continue
		}
		if err := h.files.Remove(*rel); err != nil {
			h.logger.Warn("discard BOQ upload", slog.String("path", *rel), slog.Any("error", err))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrExtensionNotAllowed) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Attachment", err.Error())
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", verr.Message)
		return
	}
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func docID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "document id must be a positive integer")
		return 0, false
	}
	return id, true
}
