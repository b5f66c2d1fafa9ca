package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	apierrors "regpulse/internal/errors"
	"regpulse/internal/exporter"
	"regpulse/internal/filter"
	"regpulse/internal/infrastructure"
	"regpulse/internal/schema"
)

// AdvancedOptions carries the request options outside the filter map.
type AdvancedOptions struct {
	ExcludeDuplicates bool   `json:"exclude_duplicates"`
	DuplicateFolder   string `json:"duplicate_folder"`
}

// ExportService runs one filtered pass over the source per request and
// counts, streams or saves the surviving rows.
type ExportService struct {
	source     *schema.Source
	registry   *filter.Registry
	duplicates *filter.DuplicateIndex
	metrics    *infrastructure.Metrics
	logger     *slog.Logger
}

// NewExportService wires the export pipeline.
func NewExportService(source *schema.Source, registry *filter.Registry, duplicates *filter.DuplicateIndex, metrics *infrastructure.Metrics, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		source:     source,
		registry:   registry,
		duplicates: duplicates,
		metrics:    metrics,
		logger:     logger.With(slog.String("service", "export")),
	}
}

// openPipeline decodes the selections, builds the filter chain and opens a
// fresh read handle on the source.
func (s *ExportService) openPipeline(ctx context.Context, selections map[string]any, opts AdvancedOptions) (schema.Header, filter.Stream, error) {
	decoded, err := s.registry.DecodeSelections(selections)
	if err != nil {
		return schema.Header{}, nil, apierrors.InvalidRequestWithError(err)
	}

	var duplicateFilter *filter.DuplicateFilter
	if opts.ExcludeDuplicates {
		if opts.DuplicateFolder == "" {
			return schema.Header{}, nil, apierrors.ErrValidation("duplicate_folder", "required when duplicate exclusion is enabled")
		}
		external, err := s.duplicates.Load(opts.DuplicateFolder)
		if err != nil {
			return schema.Header{}, nil, apierrors.FileSystemError("load duplicate exclusion folder", err)
		}
		duplicateFilter = filter.NewDuplicateFilter(external, s.logger)
	}

	header, rows, err := s.source.Stream(ctx)
	if err != nil {
		return schema.Header{}, nil, apierrors.FileSystemError("open source table", err)
	}

	chain := filter.NewChain(s.registry, decoded, duplicateFilter)
	return header, chain.Apply(rows, header), nil
}

// Count runs the pipeline and returns how many rows survive.
func (s *ExportService) Count(ctx context.Context, selections map[string]any, opts AdvancedOptions) (int, error) {
	_, rows, err := s.openPipeline(ctx, selections, opts)
	if err != nil {
		return 0, err
	}
	count := 0
	for range rows {
		count++
	}
	if s.metrics != nil {
		s.metrics.RowsStreamed.Add(float64(count))
	}
	s.logger.Info("count complete", slog.Int("rows", count))
	return count, nil
}

// Download encodes the filtered stream as CSV onto w and returns the row
// count. A mid-stream write error means the client went away; rows written
// so far are already on the wire.
func (s *ExportService) Download(ctx context.Context, w io.Writer, selections map[string]any, opts AdvancedOptions) (int, error) {
	header, rows, err := s.openPipeline(ctx, selections, opts)
	if err != nil {
		return 0, err
	}
	count, err := exporter.StreamCSV(w, header, rows)
	if s.metrics != nil {
		s.metrics.RowsStreamed.Add(float64(count))
	}
	if err != nil {
		s.logger.Warn("download stream ended early",
			slog.Int("rows", count),
			slog.String("error", err.Error()))
		return count, err
	}
	s.logger.Info("download complete", slog.Int("rows", count))
	return count, nil
}

// Save routes the filtered stream across the destination list.
func (s *ExportService) Save(ctx context.Context, selections map[string]any, opts AdvancedOptions, destinations []exporter.Destination) (*exporter.SaveResult, error) {
	router, err := exporter.NewRouter(destinations, s.logger)
	if err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}

	header, rows, err := s.openPipeline(ctx, selections, opts)
	if err != nil {
		return nil, err
	}

	result, err := router.Save(header, rows)
	if err != nil {
		var capErr *exporter.CapacityError
		if errors.As(err, &capErr) {
			return nil, apierrors.CapacityExceededError(map[string]any{
				"rows_written": capErr.RowsWritten,
			})
		}
		return nil, apierrors.FileSystemError("write destination files", err)
	}

	if s.metrics != nil {
		s.metrics.RowsExported.Add(float64(result.TotalRows))
	}
	return result, nil
}
