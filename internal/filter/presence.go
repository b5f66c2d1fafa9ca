package filter

import (
	"context"
	"strings"

	"regpulse/internal/schema"
)

// PresenceSelection is the decoded TRUE/FALSE choice of a presence filter.
// Selecting both values cancels the constraint.
type PresenceSelection struct {
	Want *bool
}

func (s PresenceSelection) Active() bool { return s.Want != nil }

// PresenceFilter keeps rows based on whether a contact-style column holds a
// value. The column often carries serialized lists, so presence means
// non-empty and not an empty-collection literal.
//
// Policy when the column is missing: wanting presence fails closed (no row
// can have the value), wanting absence fails open (every row lacks it).
type PresenceFilter struct {
	name    string
	label   string
	columns []string
}

// NewContactPersonFilter filters on contact-person presence.
func NewContactPersonFilter() *PresenceFilter {
	return &PresenceFilter{
		name:    "contactpersoon",
		label:   "Contact persoon",
		columns: []string{"contactpersoon", "contact_persoon", "contact_person", "contactpersonen"},
	}
}

func (f *PresenceFilter) Name() string  { return f.name }
func (f *PresenceFilter) Label() string { return f.label }
func (f *PresenceFilter) Kind() Kind    { return KindMultiselect }

func (f *PresenceFilter) DistinctValues(context.Context) ([]string, error) {
	return []string{"TRUE", "FALSE"}, nil
}

func (f *PresenceFilter) Decode(raw any) (Selection, error) {
	values, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	var wantTrue, wantFalse bool
	for _, v := range values {
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "TRUE":
			wantTrue = true
		case "FALSE":
			wantFalse = true
		}
	}
	return PresenceSelection{Want: triState(wantTrue, wantFalse)}, nil
}

func (f *PresenceFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	presence, ok := sel.(PresenceSelection)
	if !ok || presence.Want == nil {
		return passthrough(rows)
	}
	want := *presence.Want

	idx, found := header.Index(f.columns...)
	if !found {
		if want {
			return nothing
		}
		return passthrough(rows)
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			if HasValue(row.RawCell(idx)) == want && !yield(row) {
				return
			}
		}
	}
}
