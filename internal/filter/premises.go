package filter

import (
	"context"
	"strings"

	"regpulse/internal/schema"
)

// UsageBuckets is the fixed enumeration of building-usage categories.
// Values outside the enumeration normalize to "unknown".
var UsageBuckets = []string{
	"woonfunctie",
	"kantoorfunctie",
	"industriefunctie",
	"winkelfunctie",
	"bijeenkomstfunctie",
	"gezondheidszorgfunctie",
	"onderwijsfunctie",
	"overige gebruiksfunctie",
	"sportfunctie",
	"logiesfunctie",
	"ligplaats",
	"standplaats",
	"unknown",
	"celfunctie",
}

var usageBucketSet = func() map[string]bool {
	m := make(map[string]bool, len(UsageBuckets))
	for _, b := range UsageBuckets {
		m[b] = true
	}
	return m
}()

var (
	usageColumns      = []string{"gebruiksdoelverblijfsobject", "gebruiksdoel", "gebruiksdoel_verblijfsobject"}
	mainSiteColumns   = []string{"hoofdvestiging", "is_hoofdv", "ishoofdvestiging"}
	nonMailingColumns = []string{"kvk_non_mailing_indicator", "non_mailing_indicator", "nonmailing", "non_mailing"}
	surfaceColumns    = []string{"oppervlakteverblijfsobject", "oppervlakte", "oppervlakte_verblijfsobject"}
)

// NormalizeUsage folds a building-usage cell into its bucket: lowercased,
// whitespace collapsed, anything empty or outside the enumeration becomes
// "unknown".
func NormalizeUsage(cell string) string {
	v := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(cell))), " ")
	if v == "" || !usageBucketSet[v] {
		return "unknown"
	}
	return v
}

// PremisesSelection is the decoded group selection for the establishment
// filter: usage categories, two tri-state flags and an optional surface
// range.
type PremisesSelection struct {
	Usages     ValueSet
	MainSite   *bool
	NonMailing *bool
	AreaMin    *int
	AreaMax    *int
}

func (s PremisesSelection) Active() bool {
	return s.Usages.Active() || s.MainSite != nil || s.NonMailing != nil ||
		s.AreaMin != nil || s.AreaMax != nil
}

// PremisesFilter combines the building-usage category, the main-site and
// non-mailing flags, and the surface-area range. Sub-constraints are
// independent and AND-combined.
//
// Policy: any active sub-constraint whose column is missing fails closed.
// A flag cell that parses to neither TRUE nor FALSE never matches a flag
// constraint; an unparseable surface cell never matches an area constraint.
type PremisesFilter struct{}

// NewPremisesFilter filters on establishment premises properties.
func NewPremisesFilter() *PremisesFilter { return &PremisesFilter{} }

func (f *PremisesFilter) Name() string  { return "vestiging" }
func (f *PremisesFilter) Label() string { return "Vestiging" }
func (f *PremisesFilter) Kind() Kind    { return KindGroup }

func (f *PremisesFilter) DistinctValues(context.Context) ([]string, error) {
	values := make([]string, len(UsageBuckets))
	for i, b := range UsageBuckets {
		if b == "unknown" {
			values[i] = UnknownBucket
			continue
		}
		values[i] = b
	}
	return values, nil
}

// Decode accepts the flat token form: "gd=<usage>", "hv=TRUE|FALSE",
// "nm=TRUE|FALSE", "oppmin=<n>", "oppmax=<n>".
func (f *PremisesFilter) Decode(raw any) (Selection, error) {
	tokens, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}

	var usages []string
	var hvTrue, hvFalse, nmTrue, nmFalse bool
	var sel PremisesSelection

	for _, token := range tokens {
		t := strings.TrimSpace(token)
		if t == "" {
			continue
		}
		key, value, ok := strings.Cut(t, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "gd":
			usages = append(usages, strings.ToLower(value))
		case "hv":
			switch strings.ToLower(value) {
			case "true":
				hvTrue = true
			case "false":
				hvFalse = true
			}
		case "nm":
			switch strings.ToLower(value) {
			case "true":
				nmTrue = true
			case "false":
				nmFalse = true
			}
		case "oppmin":
			if v, ok := ParseInt(value); ok {
				sel.AreaMin = &v
			}
		case "oppmax":
			if v, ok := ParseInt(value); ok {
				sel.AreaMax = &v
			}
		}
	}

	sel.Usages = NewValueSet(usages...)
	sel.MainSite = triState(hvTrue, hvFalse)
	sel.NonMailing = triState(nmTrue, nmFalse)
	return sel, nil
}

func (f *PremisesFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	premises, ok := sel.(PremisesSelection)
	if !ok || !premises.Active() {
		return passthrough(rows)
	}

	usageIdx, usageFound := header.Index(usageColumns...)
	mainIdx, mainFound := header.Index(mainSiteColumns...)
	nonMailIdx, nonMailFound := header.Index(nonMailingColumns...)
	surfaceIdx, surfaceFound := header.Index(surfaceColumns...)

	if premises.Usages.Active() && !usageFound {
		return nothing
	}
	if premises.MainSite != nil && !mainFound {
		return nothing
	}
	if premises.NonMailing != nil && !nonMailFound {
		return nothing
	}
	if (premises.AreaMin != nil || premises.AreaMax != nil) && !surfaceFound {
		return nothing
	}

	areaMin := 0
	if premises.AreaMin != nil {
		areaMin = *premises.AreaMin
	}
	areaMax := 1 << 62
	if premises.AreaMax != nil {
		areaMax = *premises.AreaMax
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			if premises.Usages.Active() {
				if !premises.Usages.Contains(NormalizeUsage(row.Cell(usageIdx))) {
					continue
				}
			}
			if premises.MainSite != nil {
				v, parsed := ParseBool(row.Cell(mainIdx))
				if !parsed || v != *premises.MainSite {
					continue
				}
			}
			if premises.NonMailing != nil {
				v, parsed := ParseBool(row.Cell(nonMailIdx))
				if !parsed || v != *premises.NonMailing {
					continue
				}
			}
			if premises.AreaMin != nil || premises.AreaMax != nil {
				area, parsed := ParseInt(row.Cell(surfaceIdx))
				if !parsed || area < areaMin || area > areaMax {
					continue
				}
			}
			if !yield(row) {
				return
			}
		}
	}
}
