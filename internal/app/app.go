package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"regpulse/internal/analysis"
	"regpulse/internal/codelists"
	"regpulse/internal/config"
	"regpulse/internal/filter"
	"regpulse/internal/geo"
	"regpulse/internal/infrastructure"
	"regpulse/internal/schema"
	"regpulse/internal/services"
	transport "regpulse/internal/transport/http"
)

// Version is set at compile time.
var Version = "dev"

// Application bundles the configured services behind one HTTP server.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics
	Router  chi.Router
	Server  *http.Server

	Source    *schema.Source
	Registry  *filter.Registry
	Export    *services.ExportService
	Analysis  *services.AnalysisService
	Filters   *services.FilterService
	Areas     *geo.Store
	CodeLists *codelists.Store
}

// New loads configuration and wires every service. The source file is
// not opened here; each request opens its own read handle.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	return NewWithConfig(cfg, logger)
}

// NewWithConfig wires the application from an already loaded
// configuration.
func NewWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("application starting",
		slog.String("version", Version),
		slog.String("source", cfg.Source.Path),
		slog.Int("port", cfg.Server.Port))

	metrics := infrastructure.NewMetrics()
	source := schema.NewSource(cfg.Source, logger)

	areas := geo.NewStore(cfg.Data, logger)
	codeStore := codelists.NewStore(cfg.Data, logger)
	registry := filter.NewRegistry(DefaultFilters(source, areas, codeStore)...)

	delimiter := cfg.Source.DelimiterRune()
	exportSvc := services.NewExportService(
		source,
		registry,
		filter.NewDuplicateIndex(delimiter, logger),
		metrics,
		logger,
	)
	analysisSvc := services.NewAnalysisService(
		exportSvc,
		areas,
		analysis.NewBaselineLoader(cfg.Data, delimiter, logger),
		logger,
	)

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Source:    source,
		Registry:  registry,
		Export:    exportSvc,
		Analysis:  analysisSvc,
		Filters:   services.NewFilterService(registry, logger),
		Areas:     areas,
		CodeLists: codeStore,
	}

	a.Router = transport.NewRouter(transport.RouterDeps{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Source:    source,
		Filters:   a.Filters,
		Export:    exportSvc,
		Analysis:  analysisSvc,
		Areas:     areas,
		CodeLists: codeStore,
	})
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// Run serves until the context is cancelled or an interrupt arrives,
// then shuts down gracefully within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.Logger.Info("shutdown complete")
	return nil
}
