package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/services"
)

// ExportHandler serves the row-level query endpoints: preview counts,
// streamed downloads and multi-destination file saves.
type ExportHandler struct {
	service  *services.ExportService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewExportHandler creates an export handler.
func NewExportHandler(service *services.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With(slog.String("handler", "export")),
	}
}

// Preview counts the rows matching the selections without exporting.
func (h *ExportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}

	count, err := h.service.Count(r.Context(), req.Selections, req.Advanced)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"count":  count,
	})
}

// Download streams the matching rows as a single CSV attachment.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}

	filename := fmt.Sprintf("export_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	rows, err := h.service.Download(r.Context(), w, req.Selections, req.Advanced)
	if err != nil {
		// Only report an error envelope while the response is still
		// unwritten; a failure mid-stream leaves a truncated file.
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) && rows == 0 {
			w.Header().Del("Content-Disposition")
			renderError(w, r, h.logger, apiErr)
			return
		}
		h.logger.ErrorContext(r.Context(), "download aborted mid-stream",
			slog.Int("rows_written", rows),
			slog.String("error", err.Error()),
		)
		return
	}

	h.logger.InfoContext(r.Context(), "download complete",
		slog.Int("rows", rows),
		slog.String("filename", filename),
	)
}

// Save writes the matching rows to the requested destinations on the
// server's filesystem, chunking per destination.
func (h *ExportHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		renderError(w, r, h.logger, apierrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.Save(r.Context(), req.Selections, req.Advanced, req.Destinations)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"result": result,
	})
}
