package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"regpulse/internal/codelists"
	apierrors "regpulse/internal/errors"
)

// CodeListHandler manages uploaded industry-code lists, grouped per
// bucket (main, sub, all).
type CodeListHandler struct {
	store  *codelists.Store
	logger *slog.Logger
}

// NewCodeListHandler creates a code-list handler.
func NewCodeListHandler(store *codelists.Store, logger *slog.Logger) *CodeListHandler {
	return &CodeListHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "codelists")),
	}
}

// Routes returns the code-list routes.
func (h *CodeListHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/{bucket}/upload", h.Upload)
	return r
}

// List returns the stored list stems per bucket.
func (h *CodeListHandler) List(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"lists":  h.store.List(),
	})
}

// Upload stores a code list under the bucket named in the URL. Text,
// CSV and spreadsheet payloads are accepted.
func (h *CodeListHandler) Upload(w http.ResponseWriter, r *http.Request) {
	bucket := codelists.Bucket(chi.URLParam(r, "bucket"))
	if !bucket.Valid() {
		renderError(w, r, h.logger, apierrors.ErrValidation("bucket", "bucket must be one of: main, sub, all"))
		return
	}

	filename, payload, apiErr := readUpload(r)
	if apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}

	stem, err := h.store.Save(bucket, filename, payload)
	if err != nil {
		renderError(w, r, h.logger, apierrors.ErrValidation("file", err.Error()))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"bucket": string(bucket),
		"name":   stem,
	})
}
