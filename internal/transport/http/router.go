package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regpulse/internal/codelists"
	"regpulse/internal/config"
	"regpulse/internal/geo"
	"regpulse/internal/infrastructure"
	"regpulse/internal/middleware"
	"regpulse/internal/schema"
	"regpulse/internal/services"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *infrastructure.Metrics
	Source    *schema.Source
	Filters   *services.FilterService
	Export    *services.ExportService
	Analysis  *services.AnalysisService
	Areas     *geo.Store
	CodeLists *codelists.Store
}

// NewRouter assembles the full route tree with the standard middleware
// stack. The metrics endpoint sits outside the middleware group so
// scrapes stay cheap and unthrottled.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.StructuredLogger(deps.Logger))
		r.Use(middleware.Recoverer(deps.Logger))
		r.Use(middleware.Metrics(deps.Metrics))
		if deps.Config.RateLimit.Enabled {
			r.Use(middleware.RateLimit(deps.Config.RateLimit))
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Mount("/filters", NewFilterHandler(deps.Filters, deps.Logger).Routes())
			r.Mount("/analysis", NewAnalysisHandler(deps.Analysis, deps.Logger).Routes())
			r.Mount("/areas", NewAreaHandler(deps.Areas, deps.Logger).Routes())
			r.Mount("/codelists", NewCodeListHandler(deps.CodeLists, deps.Logger).Routes())

			exportHandler := NewExportHandler(deps.Export, deps.Logger)
			r.Post("/preview", exportHandler.Preview)
			r.Post("/download", exportHandler.Download)
			r.Post("/save", exportHandler.Save)
		})

		r.Get("/healthz", NewHealthHandler(deps.Source).Check)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
