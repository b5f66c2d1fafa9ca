package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/geo"
)

// maxUploadBytes bounds uploaded GeoJSON and code-list files.
const maxUploadBytes = 20 << 20

// AreaHandler manages the selectable geographic areas: the built-in
// administrative regions plus user-uploaded custom polygons.
type AreaHandler struct {
	store  *geo.Store
	logger *slog.Logger
}

// NewAreaHandler creates an area handler.
func NewAreaHandler(store *geo.Store, logger *slog.Logger) *AreaHandler {
	return &AreaHandler{
		store:  store,
		logger: logger.With(slog.String("handler", "areas")),
	}
}

// Routes returns the area routes.
func (h *AreaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/upload", h.Upload)
	r.Post("/delete", h.Delete)
	return r
}

// List returns every selectable area name, custom areas last.
func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.Names()
	if err != nil {
		renderError(w, r, h.logger, apierrors.ConfigurationError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"areas":  names,
	})
}

// Upload stores a custom .geojson area from a multipart form.
func (h *AreaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, payload, apiErr := readUpload(r)
	if apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}

	name, err := h.store.SaveCustomArea(filename, payload)
	if err != nil {
		renderError(w, r, h.logger, apierrors.ErrValidation("file", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "custom area stored", slog.String("name", name))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"name":   name,
	})
}

// Delete removes a custom area by its display name.
func (h *AreaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if apiErr := decodeBody(r, &req); apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}

	if err := h.store.DeleteCustomArea(req.Name); err != nil {
		renderError(w, r, h.logger, apierrors.ErrValidation("name", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "custom area removed", slog.String("name", req.Name))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}

// readUpload extracts the "file" part of a multipart form.
func readUpload(r *http.Request) (string, []byte, *apierrors.APIError) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, apierrors.InvalidRequestWithError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, apierrors.ErrValidation("file", "multipart field 'file' is required")
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return "", nil, apierrors.InvalidRequestWithError(err)
	}
	if len(payload) > maxUploadBytes {
		return "", nil, apierrors.ErrValidation("file", "uploaded file is too large")
	}
	return header.Filename, payload, nil
}
