package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/exporter"
	"regpulse/internal/services"
)

// QueryRequest carries the filter selections shared by the preview,
// download, save and analysis endpoints. Selections are keyed by filter
// name; each filter decodes its own value shape.
type QueryRequest struct {
	Selections map[string]interface{}   `json:"selections"`
	Advanced   services.AdvancedOptions `json:"advanced"`
}

// SaveRequest adds export destinations to a query.
type SaveRequest struct {
	QueryRequest
	Destinations []exporter.Destination `json:"destinations" validate:"required,min=1,dive"`
}

// AnalysisRequest adds the breakdown dimensions to compute.
type AnalysisRequest struct {
	QueryRequest
	Dimensions []string `json:"dimensions"`
}

// renderError writes err as a JSON error envelope. Errors from the
// service layer arrive as *APIError with the status already decided;
// anything else is reported as an internal server error.
func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		logger.ErrorContext(r.Context(), "unhandled error",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		apiErr = apierrors.ErrInternalServer
	}
	if renderErr := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); renderErr != nil {
		apierrors.WriteError(w, apiErr)
	}
}

func decodeBody(r *http.Request, v interface{}) *apierrors.APIError {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	return nil
}
