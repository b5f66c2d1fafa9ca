package analysis

import (
	"log/slog"
	"math"
	"strings"

	"regpulse/internal/filter"
	"regpulse/internal/geo"
	"regpulse/internal/schema"
)

// MediaFields are the presence-counted contact channels, in report order.
var MediaFields = []string{
	"email", "facebook", "instagram", "linkedin",
	"pinterest", "twitter", "youtube", "internetaddress",
}

// columnCandidates maps each aggregated signal to its column aliases. A
// signal whose column does not resolve is skipped, never fatal.
var columnCandidates = map[string][]string{
	"rechtsvorm":       {"rechtsvorm", "legal_form", "rechts_vorm"},
	"economischactief": {"economischactief", "is_economisch_actief"},
	"contactpersoon":   {"contactpersoon", "contact_person", "contacten", "contactperson"},
	"kvk":              {"kvk", "kvknummer", "kvk_nummer", "kvk-nummer"},
	"email":            {"email", "e-mail", "mail"},
	"facebook":         {"facebook"},
	"instagram":        {"instagram"},
	"linkedin":         {"linkedin"},
	"pinterest":        {"pinterest"},
	"twitter":          {"twitter", "x_twitter"},
	"youtube":          {"youtube", "you_tube"},
	"internetaddress":  {"internetaddress", "website", "homepage", "internetadres", "url"},
	"phone":            {"phonenumber_formatted", "phone", "phone_number", "telefoon", "telefoonnummer"},
	"fax":              {"faxnumber_formatted", "fax", "faxnummer"},
	"gebruiksdoel":     {"gebruiksdoelverblijfsobject", "gebruiksdoel", "gebruiksfunctie"},
	"oppervlakte":      {"oppervlakteverblijfsobject", "oppervlakte", "area_m2"},
	"working_min":      {"workingminimum", "working_minimum", "min_employees", "werknemers_min"},
	"working_max":      {"workingmaximum", "working_maximum", "max_employees", "werknemers_max"},
	"oprichtingsdatum": {"oprichtingsdatum", "foundationdate", "oprichting", "datum_oprichting", "foundation_date"},
	"allsbi":           {"allsbi", "sbi_all", "all_sbi", "sbicodes", "sbi_codes", "sbi"},
}

// truthy is the aggregator's own affirmative-token set, wider than the
// filter side's strict TRUE/FALSE vocabulary.
func truthy(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "1", "yes", "ja", "y", "t":
		return true
	}
	return false
}

// Metric is one absolute count with its share of total rows.
type Metric struct {
	Abs int     `json:"abs"`
	Pct float64 `json:"pct"`
}

// FoundingAverage is the mean founding date, derived from the average of
// per-row ordinal day numbers.
type FoundingAverage struct {
	Value   string `json:"value,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
	Count   int    `json:"count"`
}

// MultiIdentifier summarizes identifier cardinality: distinct identifiers
// seen, and how many of them occurred more than once.
type MultiIdentifier struct {
	Unique int     `json:"unique"`
	Multi  int     `json:"multi"`
	Pct    float64 `json:"pct"`
}

// Aggregates is the finalized outcome of one streamed pass.
type Aggregates struct {
	TotalRows       int                 `json:"total_rows"`
	Metrics         map[string]Metric   `json:"metrics"`
	Averages        map[string]*float64 `json:"averages"`
	FoundingDate    FoundingAverage     `json:"avg_oprichtingsdatum"`
	MultiIdentifier MultiIdentifier     `json:"multi_kvk"`
	LegalForms      map[string]Metric   `json:"rechtsvorm"`
	Regions         map[string]Metric   `json:"province"`
	Codes           map[string]Metric   `json:"sbi"`
	Warnings        []string            `json:"warnings"`
}

// Analyzer collects statistics over a streamed pass in O(1) per row. The
// region breakdown resolves coordinates against the full administrative
// polygon set, regardless of whether a location filter ran upstream.
type Analyzer struct {
	indices  map[string]int
	resolver *geo.Resolver
	lonIdx   int
	latIdx   int

	totalRows    int
	contactCount int
	econTrue     int
	mediaCounts  map[string]int
	phoneCount   int
	faxCount     int
	usageCounts  map[string]int
	surfaceSum   float64
	surfaceN     int
	wminSum      int
	wminN        int
	wmaxSum      int
	wmaxN        int
	dateSum      int64
	dateN        int
	idCounts     map[string]int
	legalForms   map[string]int
	regionCounts map[string]int
	codeCounts   map[string]int
	warnings     []string
}

// NewAnalyzer resolves the header once and prepares all counters. store may
// be nil; the region breakdown is then skipped with a warning, like any
// other unresolvable signal.
func NewAnalyzer(header schema.Header, store *geo.Store, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analyzer{
		indices:      make(map[string]int, len(columnCandidates)),
		lonIdx:       -1,
		latIdx:       -1,
		mediaCounts:  make(map[string]int, len(MediaFields)),
		usageCounts:  make(map[string]int),
		idCounts:     make(map[string]int),
		legalForms:   make(map[string]int),
		regionCounts: make(map[string]int),
		codeCounts:   make(map[string]int),
	}
	for key, candidates := range columnCandidates {
		if idx, ok := header.Index(candidates...); ok {
			a.indices[key] = idx
		}
	}

	lonIdx, lonOK := header.Index(filter.LonColumns...)
	latIdx, latOK := header.Index(filter.LatColumns...)
	switch {
	case !lonOK || !latOK:
		a.warnings = append(a.warnings, "coordinate columns missing, region breakdown skipped")
	case store == nil:
		a.warnings = append(a.warnings, "region polygons unavailable, region breakdown skipped")
	default:
		regions, err := store.Regions()
		if err != nil || len(regions) == 0 {
			a.warnings = append(a.warnings, "region polygons unavailable, region breakdown skipped")
			logger.Warn("region polygons unavailable for analysis")
			break
		}
		a.lonIdx, a.latIdx = lonIdx, latIdx
		a.resolver = geo.NewResolver(regions)
	}
	return a
}

func (a *Analyzer) index(key string) (int, bool) {
	idx, ok := a.indices[key]
	return idx, ok
}

// Consume folds one row into every counter.
func (a *Analyzer) Consume(row schema.Row) {
	a.totalRows++

	form := ""
	if idx, ok := a.index("rechtsvorm"); ok {
		form = row.Cell(idx)
	}
	if form == "" {
		form = filter.UnknownBucket
	}
	a.legalForms[form]++

	if idx, ok := a.index("contactpersoon"); ok && filter.HasValue(row.RawCell(idx)) {
		a.contactCount++
	}
	if idx, ok := a.index("economischactief"); ok && truthy(row.Cell(idx)) {
		a.econTrue++
	}
	for _, field := range MediaFields {
		if idx, ok := a.index(field); ok && filter.HasValue(row.RawCell(idx)) {
			a.mediaCounts[field]++
		}
	}
	if idx, ok := a.index("phone"); ok && filter.HasValue(row.RawCell(idx)) {
		a.phoneCount++
	}
	if idx, ok := a.index("fax"); ok && filter.HasValue(row.RawCell(idx)) {
		a.faxCount++
	}
	if idx, ok := a.index("gebruiksdoel"); ok {
		a.usageCounts[filter.NormalizeUsage(row.Cell(idx))]++
	}
	if idx, ok := a.index("oppervlakte"); ok {
		if area, okF := filter.ParseFloat(row.Cell(idx)); okF && area > 0 {
			a.surfaceSum += area
			a.surfaceN++
		}
	}
	if idx, ok := a.index("working_min"); ok {
		if v, okV := filter.ParseInt(row.Cell(idx)); okV {
			a.wminSum += v
			a.wminN++
		}
	}
	if idx, ok := a.index("working_max"); ok {
		if v, okV := filter.ParseInt(row.Cell(idx)); okV {
			// the reserved unknown sentinel counts as zero, not excluded
			if v == filter.UnknownEmployeeSentinel {
				v = 0
			}
			a.wmaxSum += v
			a.wmaxN++
		}
	}
	if idx, ok := a.index("oprichtingsdatum"); ok {
		if t, okD := filter.ParseDate(row.Cell(idx)); okD {
			a.dateSum += int64(dateOrdinal(t))
			a.dateN++
		}
	}
	if idx, ok := a.index("kvk"); ok {
		if id := row.Cell(idx); id != "" {
			a.idCounts[id]++
		}
	}
	if a.resolver != nil {
		lon, lonOK := filter.ParseFloat(row.Cell(a.lonIdx))
		lat, latOK := filter.ParseFloat(row.Cell(a.latIdx))
		if lonOK && latOK {
			if name, inside := a.resolver.Resolve(lon, lat); inside {
				if canonical := geo.CanonicalRegionName(name); canonical != "" {
					name = canonical
				}
				a.regionCounts[name]++
			}
		}
	}
	if idx, ok := a.index("allsbi"); ok {
		for code := range filter.ParseCodeCell(row.RawCell(idx)) {
			a.codeCounts[code]++
		}
	}
}

// Finalize converts counters to percentages of total rows (exactly 0 when
// total is 0) and derives the mean founding date.
func (a *Analyzer) Finalize() *Aggregates {
	total := a.totalRows
	pct := func(count int) float64 {
		if total == 0 {
			return 0
		}
		return round6(100 * float64(count) / float64(total))
	}
	asMetrics := func(counts map[string]int) map[string]Metric {
		out := make(map[string]Metric, len(counts))
		for k, v := range counts {
			out[k] = Metric{Abs: v, Pct: pct(v)}
		}
		return out
	}

	metrics := make(map[string]Metric)
	metrics["contactpersoon"] = Metric{Abs: a.contactCount, Pct: pct(a.contactCount)}
	metrics["economischactief_true"] = Metric{Abs: a.econTrue, Pct: pct(a.econTrue)}
	for _, field := range MediaFields {
		metrics[field] = Metric{Abs: a.mediaCounts[field], Pct: pct(a.mediaCounts[field])}
	}
	metrics["phone"] = Metric{Abs: a.phoneCount, Pct: pct(a.phoneCount)}
	metrics["fax"] = Metric{Abs: a.faxCount, Pct: pct(a.faxCount)}
	for _, bucket := range filter.UsageBuckets {
		count := a.usageCounts[bucket]
		key := "gebruiksdoel_" + strings.ReplaceAll(bucket, " ", "_")
		metrics[key] = Metric{Abs: count, Pct: pct(count)}
	}

	averages := map[string]*float64{
		"oppervlakte_avg_m2": average(a.surfaceSum, a.surfaceN),
		"working_min_avg":    average(float64(a.wminSum), a.wminN),
		"working_max_avg":    average(float64(a.wmaxSum), a.wmaxN),
	}

	var founding FoundingAverage
	founding.Count = a.dateN
	if a.dateN > 0 {
		founding.Ordinal = int(math.Round(float64(a.dateSum) / float64(a.dateN)))
		founding.Value = dateFromOrdinal(founding.Ordinal).Format("2006-01-02")
	}

	unique := len(a.idCounts)
	multi := 0
	for _, count := range a.idCounts {
		if count > 1 {
			multi++
		}
	}
	multiPct := 0.0
	if unique > 0 {
		multiPct = round6(100 * float64(multi) / float64(unique))
	}

	return &Aggregates{
		TotalRows:       total,
		Metrics:         metrics,
		Averages:        averages,
		FoundingDate:    founding,
		MultiIdentifier: MultiIdentifier{Unique: unique, Multi: multi, Pct: multiPct},
		LegalForms:      asMetrics(a.legalForms),
		Regions:         asMetrics(a.regionCounts),
		Codes:           asMetrics(a.codeCounts),
		Warnings:        a.warnings,
	}
}

func average(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := round6(sum / float64(n))
	return &v
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
