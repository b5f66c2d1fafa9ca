package filter

import (
	"context"
	"strings"
	"time"

	"regpulse/internal/schema"
)

var (
	foundingDateColumns = []string{"oprichtingsdatum", "oprichtings_datum", "date_of_incorporation", "foundation_date"}
	tradeNameColumns    = []string{"tradenames", "trade_names", "handelsnamen", "handels_namen"}
)

// FoundingSelection combines an optional closed founding-date interval with
// a tri-state trade-names presence constraint.
type FoundingSelection struct {
	DateMin    *time.Time
	DateMax    *time.Time
	TradeNames *bool
}

func (s FoundingSelection) Active() bool {
	return s.DateMin != nil || s.DateMax != nil || s.TradeNames != nil
}

// FoundingFilter constrains the founding date and trade-name presence.
// Date cells are parsed under three formats (ISO, compact, localized
// worded); while a date bound is active an unparseable date fails the
// constraint and drops the row.
//
// Policy: an active sub-constraint whose column is missing fails closed.
type FoundingFilter struct{}

// NewFoundingFilter filters on founding date and trade names.
func NewFoundingFilter() *FoundingFilter { return &FoundingFilter{} }

func (f *FoundingFilter) Name() string  { return "overige" }
func (f *FoundingFilter) Label() string { return "Overige" }
func (f *FoundingFilter) Kind() Kind    { return KindGroup }

func (f *FoundingFilter) DistinctValues(context.Context) ([]string, error) {
	return nil, nil // date inputs plus a checkbox, no enumeration
}

// Decode accepts the flat token form: "date_min=YYYY-MM-DD",
// "date_max=YYYY-MM-DD", "tn=TRUE|FALSE".
func (f *FoundingFilter) Decode(raw any) (Selection, error) {
	tokens, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}

	var sel FoundingSelection
	var tnTrue, tnFalse bool
	for _, token := range tokens {
		key, value, ok := strings.Cut(strings.TrimSpace(token), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "date_min":
			if t, parsed := ParseDate(value); parsed {
				sel.DateMin = &t
			}
		case "date_max":
			if t, parsed := ParseDate(value); parsed {
				sel.DateMax = &t
			}
		case "tn":
			switch strings.ToLower(value) {
			case "true":
				tnTrue = true
			case "false":
				tnFalse = true
			}
		}
	}
	sel.TradeNames = triState(tnTrue, tnFalse)
	return sel, nil
}

func (f *FoundingFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	founding, ok := sel.(FoundingSelection)
	if !ok || !founding.Active() {
		return passthrough(rows)
	}

	dateActive := founding.DateMin != nil || founding.DateMax != nil
	dateIdx, dateFound := header.Index(foundingDateColumns...)
	tradeIdx, tradeFound := header.Index(tradeNameColumns...)

	if dateActive && !dateFound {
		return nothing
	}
	if founding.TradeNames != nil && !tradeFound {
		return nothing
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			if dateActive {
				t, parsed := ParseDate(row.Cell(dateIdx))
				if !parsed {
					continue
				}
				if founding.DateMin != nil && t.Before(*founding.DateMin) {
					continue
				}
				if founding.DateMax != nil && t.After(*founding.DateMax) {
					continue
				}
			}
			if founding.TradeNames != nil {
				if HasValue(row.RawCell(tradeIdx)) != *founding.TradeNames {
					continue
				}
			}
			if !yield(row) {
				return
			}
		}
	}
}
