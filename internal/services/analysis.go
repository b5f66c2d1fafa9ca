package services

import (
	"context"
	"log/slog"

	"regpulse/internal/analysis"
	apierrors "regpulse/internal/errors"
	"regpulse/internal/geo"
)

// AnalysisService aggregates one filtered pass and compares it with the
// baseline distribution.
type AnalysisService struct {
	export   *ExportService
	store    *geo.Store
	baseline *analysis.BaselineLoader
	logger   *slog.Logger
}

// NewAnalysisService wires the aggregation pipeline.
func NewAnalysisService(export *ExportService, store *geo.Store, baseline *analysis.BaselineLoader, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		export:   export,
		store:    store,
		baseline: baseline,
		logger:   logger.With(slog.String("service", "analysis")),
	}
}

// Analyze streams the filtered rows through the aggregator and builds the
// comparison report for the requested dimensions. Missing baseline tables
// are a configuration error, never silently skipped.
func (s *AnalysisService) Analyze(ctx context.Context, selections map[string]any, opts AdvancedOptions, dimensions []string) (*analysis.Report, error) {
	baseline, err := s.baseline.Load()
	if err != nil {
		return nil, apierrors.ConfigurationError(err)
	}

	header, rows, err := s.export.openPipeline(ctx, selections, opts)
	if err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer(header, s.store, s.logger)
	for row := range rows {
		analyzer.Consume(row)
	}
	aggregates := analyzer.Finalize()

	report := analysis.Compare(aggregates, baseline, dimensions)
	s.logger.Info("analysis complete",
		slog.Int("rows", aggregates.TotalRows),
		slog.Int("dimensions", len(report.Dimensions)))
	return report, nil
}
