package filter

import (
	"context"
	"sort"
	"strings"

	"regpulse/internal/schema"
)

// UnknownBucket is the categorical bucket empty cell values map to.
const UnknownBucket = "UNKNOWN"

// CategoricalFilter keeps rows whose resolved column value is one of the
// selected values. Empty cells bucket to UNKNOWN, so UNKNOWN is itself
// selectable.
//
// Policy: empty selection passes everything through; an active selection
// with the column missing fails closed (no rows).
type CategoricalFilter struct {
	name       string
	label      string
	columns    []string
	source     *schema.Source
	valueOrder func([]string) // sorts the distinct values for display
}

// NewLegalFormFilter filters on the establishment's legal form.
func NewLegalFormFilter(source *schema.Source) *CategoricalFilter {
	return &CategoricalFilter{
		name:    "rechtsvorm",
		label:   "Rechtsvorm",
		columns: []string{"rechtsvorm", "legal_form", "rechts_vorm"},
		source:  source,
		valueOrder: func(values []string) {
			sort.Slice(values, func(i, j int) bool {
				// UNKNOWN sorts last
				if (values[i] == UnknownBucket) != (values[j] == UnknownBucket) {
					return values[j] == UnknownBucket
				}
				return strings.ToLower(values[i]) < strings.ToLower(values[j])
			})
		},
	}
}

// NewActivityFilter filters on the economically-active flag.
func NewActivityFilter(source *schema.Source) *CategoricalFilter {
	rank := map[string]int{"TRUE": 0, "Ja": 0, "1": 0, "FALSE": 1, "Nee": 1, "0": 1}
	return &CategoricalFilter{
		name:    "economischactief",
		label:   "Economisch actief",
		columns: []string{"economischactief", "is_economisch_actief"},
		source:  source,
		valueOrder: func(values []string) {
			sort.Slice(values, func(i, j int) bool {
				ri, ok := rank[values[i]]
				if !ok {
					ri = 100
				}
				rj, ok := rank[values[j]]
				if !ok {
					rj = 100
				}
				if ri != rj {
					return ri < rj
				}
				return strings.ToLower(values[i]) < strings.ToLower(values[j])
			})
		},
	}
}

func (f *CategoricalFilter) Name() string  { return f.name }
func (f *CategoricalFilter) Label() string { return f.label }
func (f *CategoricalFilter) Kind() Kind    { return KindMultiselect }

// DistinctValues streams the source once and collects the normalized unique
// values of the filter's column. A missing column yields no values.
func (f *CategoricalFilter) DistinctValues(ctx context.Context) ([]string, error) {
	header, rows, err := f.source.Stream(ctx)
	if err != nil {
		return nil, err
	}
	idx, ok := header.Index(f.columns...)
	if !ok {
		// Drain nothing; the handle closes as soon as the sequence is dropped.
		for range rows {
			break
		}
		return nil, nil
	}

	seen := make(map[string]struct{})
	for row := range rows {
		value := row.Cell(idx)
		if value == "" {
			value = UnknownBucket
		}
		seen[value] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	f.valueOrder(values)
	return values, nil
}

func (f *CategoricalFilter) Decode(raw any) (Selection, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	return NewValueSet(values...), nil
}

func (f *CategoricalFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	set, ok := sel.(ValueSet)
	if !ok || !set.Active() {
		return passthrough(rows)
	}
	idx, found := header.Index(f.columns...)
	if !found {
		return nothing
	}
	return func(yield func(schema.Row) bool) {
		for row := range rows {
			value := row.Cell(idx)
			if value == "" {
				value = UnknownBucket
			}
			if set.Contains(value) && !yield(row) {
				return
			}
		}
	}
}
