package http

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/render"

	"regpulse/internal/schema"
)

// HealthHandler reports service liveness and whether the source file is
// still reachable.
type HealthHandler struct {
	source  *schema.Source
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(source *schema.Source) *HealthHandler {
	return &HealthHandler{source: source, started: time.Now()}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	sourceStatus := "ok"
	if _, err := os.Stat(h.source.Path()); err != nil {
		status = "degraded"
		sourceStatus = err.Error()
	}
	render.JSON(w, r, map[string]interface{}{
		"status":         status,
		"source":         sourceStatus,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}
