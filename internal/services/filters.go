package services

import (
	"context"
	"log/slog"

	"regpulse/internal/filter"
)

// FilterInfo is the outward-facing description of one filter dimension.
type FilterInfo struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Kind   string   `json:"kind"`
	Values []string `json:"values,omitempty"`
}

// FilterService exposes the registry's metadata, including the distinct
// selectable values of filters with a finite value set.
type FilterService struct {
	registry *filter.Registry
	logger   *slog.Logger
}

// NewFilterService creates the filter metadata service.
func NewFilterService(registry *filter.Registry, logger *slog.Logger) *FilterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilterService{
		registry: registry,
		logger:   logger.With(slog.String("service", "filters")),
	}
}

// Metadata lists every registered filter in display order. A filter whose
// value enumeration fails is listed without values rather than failing the
// whole listing.
func (s *FilterService) Metadata(ctx context.Context) []FilterInfo {
	filters := s.registry.All()
	out := make([]FilterInfo, 0, len(filters))
	for _, f := range filters {
		info := FilterInfo{
			Name:  f.Name(),
			Label: f.Label(),
			Kind:  string(f.Kind()),
		}
		values, err := f.DistinctValues(ctx)
		if err != nil {
			s.logger.Warn("distinct values unavailable",
				slog.String("filter", f.Name()),
				slog.String("error", err.Error()))
		} else {
			info.Values = values
		}
		out = append(out, info)
	}
	return out
}
