package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"regpulse/internal/services"
)

// FilterHandler serves filter metadata for building selection forms.
type FilterHandler struct {
	service *services.FilterService
	logger  *slog.Logger
}

// NewFilterHandler creates a filter metadata handler.
func NewFilterHandler(service *services.FilterService, logger *slog.Logger) *FilterHandler {
	return &FilterHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "filters")),
	}
}

// Routes returns the filter metadata routes.
func (h *FilterHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.List)
	return r
}

// List returns every registered filter with its distinct values where
// the filter exposes them.
func (h *FilterHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := h.service.Metadata(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"filters": filters,
	})
}
