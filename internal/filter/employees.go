package filter

import (
	"context"

	"regpulse/internal/schema"
)

var (
	employeeMinColumns = []string{"workingminimum", "working_minimum", "werk_min", "min_employees"}
	employeeMaxColumns = []string{"workingmaximum", "working_maximum", "werk_max", "max_employees"}
)

// RangeSelection is an optional numeric interval; either side may be open.
type RangeSelection struct {
	Min *int
	Max *int
}

func (s RangeSelection) Active() bool { return s.Min != nil || s.Max != nil }

// EmployeeRangeFilter keeps rows whose declared employee-count range
// overlaps the requested interval. A row's declared maximum equal to the
// reserved unknown sentinel marks the whole range unknown; unknown rows are
// excluded whenever the user set any bound.
//
// Policy: no bounds passes everything through; with a bound set, missing
// min/max columns fail closed.
type EmployeeRangeFilter struct{}

// NewEmployeeRangeFilter filters on employee-count range overlap.
func NewEmployeeRangeFilter() *EmployeeRangeFilter { return &EmployeeRangeFilter{} }

func (f *EmployeeRangeFilter) Name() string  { return "workingnumber" }
func (f *EmployeeRangeFilter) Label() string { return "Working number" }
func (f *EmployeeRangeFilter) Kind() Kind    { return KindNumber }

func (f *EmployeeRangeFilter) DistinctValues(context.Context) ([]string, error) {
	return nil, nil // numeric inputs, no enumeration
}

// Decode accepts the wire form ["<min>","<max>"] where either element may
// be empty or absent.
func (f *EmployeeRangeFilter) Decode(raw any) (Selection, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	var sel RangeSelection
	if len(values) > 0 {
		if v, ok := ParseInt(values[0]); ok {
			sel.Min = &v
		}
	}
	if len(values) > 1 {
		if v, ok := ParseInt(values[1]); ok {
			sel.Max = &v
		}
	}
	return sel, nil
}

func (f *EmployeeRangeFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	rng, ok := sel.(RangeSelection)
	if !ok || !rng.Active() {
		return passthrough(rows)
	}

	minIdx, minFound := header.Index(employeeMinColumns...)
	maxIdx, maxFound := header.Index(employeeMaxColumns...)
	if !minFound || !maxFound {
		return nothing
	}

	userMin := -1 << 62
	if rng.Min != nil {
		userMin = *rng.Min
	}
	userMax := 1 << 62
	if rng.Max != nil {
		userMax = *rng.Max
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			rowMin, okMin := ParseInt(row.Cell(minIdx))
			rowMax, okMax := ParseInt(row.Cell(maxIdx))
			if !okMin || !okMax || rowMax == UnknownEmployeeSentinel {
				continue // unknown range, excluded while a bound is active
			}
			if rowMin > rowMax {
				continue
			}
			if rowMin <= userMax && userMin <= rowMax && !yield(row) {
				return
			}
		}
	}
}
