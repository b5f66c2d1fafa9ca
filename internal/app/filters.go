package app

import (
	"regpulse/internal/codelists"
	"regpulse/internal/filter"
	"regpulse/internal/geo"
	"regpulse/internal/infrastructure"
	"regpulse/internal/schema"
)

// DefaultFilters returns every filter in display order. The chain
// applies them in this order, which puts the cheap column checks before
// the geometry tests.
func DefaultFilters(source *schema.Source, areas *geo.Store, lists *codelists.Store) []filter.Filter {
	logger := infrastructure.GetLogger()
	return []filter.Filter{
		filter.NewLegalFormFilter(source),
		filter.NewActivityFilter(source),
		filter.NewContactPersonFilter(),
		filter.NewMediaFilter(),
		filter.NewOutreachFilter(),
		filter.NewEmployeeRangeFilter(),
		filter.NewPremisesFilter(),
		filter.NewFoundingFilter(),
		filter.NewCodeFilter(lists),
		filter.NewLocationFilter(areas, logger),
	}
}
