package filter

import (
	"context"
	"log/slog"

	"regpulse/internal/geo"
	"regpulse/internal/schema"
)

var (
	// LonColumns and LatColumns are the coordinate column candidates, shared
	// with the aggregator's region breakdown.
	LonColumns = []string{"longitude", "lon", "lng", "x"}
	LatColumns = []string{"latitude", "lat", "y"}
)

// LocationFilter keeps rows whose coordinate falls inside any selected
// polygon (administrative region or uploaded custom area). The
// point-in-polygon index is built per request over exactly the selected
// subset; the first containing polygon wins, so a row never counts twice.
//
// Policy: empty selection passes through; with a selection active, missing
// coordinate columns or a selection matching no known polygon fail closed.
// Rows with unparseable coordinates are dropped while the filter is active.
type LocationFilter struct {
	store  *geo.Store
	logger *slog.Logger
}

// NewLocationFilter filters rows by named area containment.
func NewLocationFilter(store *geo.Store, logger *slog.Logger) *LocationFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocationFilter{
		store:  store,
		logger: logger.With(slog.String("component", "location_filter")),
	}
}

func (f *LocationFilter) Name() string  { return "location" }
func (f *LocationFilter) Label() string { return "Location" }
func (f *LocationFilter) Kind() Kind    { return KindMultiselect }

func (f *LocationFilter) DistinctValues(context.Context) ([]string, error) {
	return f.store.Names()
}

func (f *LocationFilter) Decode(raw any) (Selection, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	return NewValueSet(values...), nil
}

func (f *LocationFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	set, ok := sel.(ValueSet)
	if !ok || !set.Active() {
		return passthrough(rows)
	}

	lonIdx, lonFound := header.Index(LonColumns...)
	latIdx, latFound := header.Index(LatColumns...)
	if !lonFound || !latFound {
		f.logger.Warn("coordinate columns missing, location filter yields no rows")
		return nothing
	}

	polygons, err := f.store.Select(set.Values())
	if err != nil {
		f.logger.Error("polygon store unavailable", slog.String("error", err.Error()))
		return nothing
	}
	if len(polygons) == 0 {
		f.logger.Warn("no polygons matched the selection", slog.Any("selected", set.Values()))
		return nothing
	}
	resolver := geo.NewResolver(polygons)

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			lon, lonOK := ParseFloat(row.Cell(lonIdx))
			lat, latOK := ParseFloat(row.Cell(latIdx))
			if !lonOK || !latOK {
				continue
			}
			if _, inside := resolver.Resolve(lon, lat); inside && !yield(row) {
				return
			}
		}
	}
}
