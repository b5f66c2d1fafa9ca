package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"regpulse/internal/services"
)

// AnalysisHandler serves the statistics endpoint that compares a
// filtered population against the baseline of the full registry.
type AnalysisHandler struct {
	service *services.AnalysisService
	logger  *slog.Logger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(service *services.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "analysis")),
	}
}

// Routes returns the analysis routes.
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.Analyze)
	return r
}

// Analyze streams the filtered rows through the aggregator and returns
// the baseline comparison for the requested dimensions.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		renderError(w, r, h.logger, apiErr)
		return
	}

	report, err := h.service.Analyze(r.Context(), req.Selections, req.Advanced, req.Dimensions)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"report": report,
	})
}
