package analysis

import (
	"sort"
	"strings"

	"regpulse/internal/filter"
	"regpulse/internal/geo"
)

// Per-dimension display caps for ranked breakdowns.
const (
	legalFormDisplayCap = 40
	codeDisplayCap      = 50
)

// MetricComparison is one summary metric measured against its baseline
// share.
type MetricComparison struct {
	Key         string  `json:"key"`
	Label       string  `json:"label"`
	FilteredPct float64 `json:"filtered_pct"`
	FilteredAbs int     `json:"filtered_abs"`
	BaselinePct float64 `json:"baseline_pct"`
	ExpectedAbs float64 `json:"expected_abs"`
	DiffPct     float64 `json:"diff_pct"`
	AbsDiffPct  float64 `json:"abs_diff_pct"`
	Direction   string  `json:"direction"`
}

// AverageComparison compares a continuous average against its baseline
// value. Either side may be absent.
type AverageComparison struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Unit     string   `json:"unit,omitempty"`
	Filtered *float64 `json:"filtered"`
	Baseline *float64 `json:"baseline"`
	Diff     *float64 `json:"diff"`
}

// DateComparison expresses the mean founding date delta in days.
type DateComparison struct {
	Filtered  string `json:"filtered,omitempty"`
	Baseline  string `json:"baseline,omitempty"`
	DiffDays  *int   `json:"diff_days"`
	Direction string `json:"direction,omitempty"`
}

// MultiIdentifierComparison compares the duplicate-identifier rate.
type MultiIdentifierComparison struct {
	Unique        int     `json:"unique"`
	Multi         int     `json:"multi"`
	FilteredPct   float64 `json:"filtered_pct"`
	BaselinePct   float64 `json:"baseline_pct"`
	ExpectedMulti float64 `json:"expected_multi"`
	DiffPct       float64 `json:"diff_pct"`
}

// Highlights are the strongest deviations in either direction.
type Highlights struct {
	Positive []MetricComparison `json:"positive"`
	Negative []MetricComparison `json:"negative"`
}

// SummaryComparison is the always-included summary block.
type SummaryComparison struct {
	Metrics         []MetricComparison        `json:"metrics"`
	Averages        []AverageComparison       `json:"averages"`
	FoundingDate    DateComparison            `json:"avg_oprichtingsdatum"`
	MultiIdentifier MultiIdentifierComparison `json:"multi_kvk"`
	Highlights      Highlights                `json:"highlights"`
}

// BreakdownRow is one category of a ranked categorical comparison.
type BreakdownRow struct {
	Value       string  `json:"value"`
	FilteredAbs int     `json:"filtered_abs"`
	FilteredPct float64 `json:"filtered_pct"`
	BaselinePct float64 `json:"baseline_pct"`
	ExpectedAbs float64 `json:"expected_abs"`
	DiffPct     float64 `json:"diff_pct"`
	AbsDiffPct  float64 `json:"abs_diff_pct"`
	Direction   string  `json:"direction"`
}

// Breakdown is one categorical dimension ranked by absolute deviation,
// capped for display with the overflow reported as Omitted.
type Breakdown struct {
	Label   string         `json:"label"`
	Rows    []BreakdownRow `json:"rows"`
	Omitted int            `json:"omitted"`
}

// Report is the full structured comparison of one filtered pass against
// the baseline.
type Report struct {
	TotalRows         int                  `json:"total_rows"`
	BaselineTotalRows int                  `json:"baseline_total_rows"`
	Dimensions        []string             `json:"dimensions"`
	Summary           SummaryComparison    `json:"summary"`
	Groups            map[string]Breakdown `json:"groups"`
	Warnings          []string             `json:"warnings"`
}

type summaryMetric struct {
	key   string
	label string
}

// summaryMetrics fixes the report order of the summary block.
var summaryMetrics = buildSummaryMetrics()

func buildSummaryMetrics() []summaryMetric {
	out := []summaryMetric{
		{"contactpersoon", "Contactpersoon aanwezig"},
		{"economischactief_true", "Economisch actief (ja)"},
		{"phone", "Telefoonnummer aanwezig"},
		{"fax", "Faxnummer aanwezig"},
	}
	for _, field := range MediaFields {
		out = append(out, summaryMetric{field, capitalize(field) + " aanwezig"})
	}
	for _, bucket := range filter.UsageBuckets {
		key := "gebruiksdoel_" + strings.ReplaceAll(bucket, " ", "_")
		out = append(out, summaryMetric{key, "Gebruiksdoel: " + bucket})
	}
	return out
}

var averageMetrics = []struct {
	key   string
	label string
	unit  string
}{
	{"oppervlakte_avg_m2", "Gemiddelde oppervlakte (m²)", "m²"},
	{"working_min_avg", "Gemiddeld minimum aantal werknemers", ""},
	{"working_max_avg", "Gemiddeld maximum aantal werknemers", ""},
}

// Compare builds the deviation report for the requested breakdown
// dimensions. The summary block is always included.
func Compare(aggregates *Aggregates, baseline *Baseline, dimensions []string) *Report {
	dims := map[string]bool{"summary": true}
	for _, d := range dimensions {
		if d = strings.TrimSpace(d); d != "" {
			dims[d] = true
		}
	}
	sorted := make([]string, 0, len(dims))
	for d := range dims {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	report := &Report{
		TotalRows:         aggregates.TotalRows,
		BaselineTotalRows: baseline.TotalRows,
		Dimensions:        sorted,
		Summary:           compareSummary(aggregates, baseline),
		Groups:            make(map[string]Breakdown),
		Warnings:          aggregates.Warnings,
	}

	if dims["rechtsvorm"] {
		baselinePct := make(map[string]float64, len(baseline.LegalFormTotals))
		if baseline.TotalRows > 0 {
			for form, count := range baseline.LegalFormTotals {
				baselinePct[form] = 100 * float64(count) / float64(baseline.TotalRows)
			}
		}
		report.Groups["rechtsvorm"] = compareDistribution(
			aggregates.LegalForms, baselinePct, aggregates.TotalRows, "Rechtsvorm", legalFormDisplayCap)
	}
	if dims["province"] {
		report.Groups["province"] = compareDistribution(
			aggregates.Regions, baseline.RegionPct, aggregates.TotalRows, "Province", len(geo.CanonicalProvinces))
	}
	if dims["sbi"] {
		report.Groups["sbi"] = compareDistribution(
			aggregates.Codes, baseline.CodePct, aggregates.TotalRows, "SBI", codeDisplayCap)
	}
	return report
}

func compareSummary(aggregates *Aggregates, baseline *Baseline) SummaryComparison {
	total := aggregates.TotalRows
	var rows []MetricComparison
	for _, m := range summaryMetrics {
		metric, ok := aggregates.Metrics[m.key]
		if !ok {
			continue
		}
		baselinePct, ok := baseline.Summary[sanitizeColumn(m.key+"_pct")]
		if !ok {
			continue
		}
		diff := metric.Pct - baselinePct
		rows = append(rows, MetricComparison{
			Key:         m.key,
			Label:       m.label,
			FilteredPct: metric.Pct,
			FilteredAbs: metric.Abs,
			BaselinePct: baselinePct,
			ExpectedAbs: expectedCount(total, baselinePct),
			DiffPct:     diff,
			AbsDiffPct:  abs(diff),
			Direction:   direction(diff),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AbsDiffPct > rows[j].AbsDiffPct })

	var highlights Highlights
	for _, row := range rows {
		if row.DiffPct > 0 && len(highlights.Positive) < 3 {
			highlights.Positive = append(highlights.Positive, row)
		}
		if row.DiffPct < 0 && len(highlights.Negative) < 3 {
			highlights.Negative = append(highlights.Negative, row)
		}
	}

	var averages []AverageComparison
	for _, am := range averageMetrics {
		cmp := AverageComparison{Key: am.key, Label: am.label, Unit: am.unit}
		cmp.Filtered = aggregates.Averages[am.key]
		if v, ok := baseline.Summary[sanitizeColumn(am.key)]; ok {
			baselineValue := v
			cmp.Baseline = &baselineValue
		}
		if cmp.Filtered != nil && cmp.Baseline != nil {
			diff := *cmp.Filtered - *cmp.Baseline
			cmp.Diff = &diff
		}
		averages = append(averages, cmp)
	}

	dateCmp := DateComparison{
		Filtered: aggregates.FoundingDate.Value,
		Baseline: baseline.FoundingDate,
	}
	if aggregates.FoundingDate.Ordinal != 0 && baseline.FoundingDateOrdinal != 0 {
		diffDays := aggregates.FoundingDate.Ordinal - baseline.FoundingDateOrdinal
		dateCmp.DiffDays = &diffDays
		switch {
		case diffDays > 0:
			dateCmp.Direction = "newer"
		case diffDays < 0:
			dateCmp.Direction = "older"
		default:
			dateCmp.Direction = "same"
		}
	}

	multi := MultiIdentifierComparison{
		Unique:      aggregates.MultiIdentifier.Unique,
		Multi:       aggregates.MultiIdentifier.Multi,
		FilteredPct: aggregates.MultiIdentifier.Pct,
		BaselinePct: baseline.Summary["multi_kvk_pct"],
	}
	if multi.Unique > 0 {
		multi.ExpectedMulti = float64(multi.Unique) * multi.BaselinePct / 100
	}
	multi.DiffPct = multi.FilteredPct - multi.BaselinePct

	return SummaryComparison{
		Metrics:         rows,
		Averages:        averages,
		FoundingDate:    dateCmp,
		MultiIdentifier: multi,
		Highlights:      highlights,
	}
}

// compareDistribution ranks one categorical dimension by absolute
// deviation. Baseline categories with a nonzero share that never occur in
// the live data still appear, with a zero live count.
func compareDistribution(live map[string]Metric, baselinePct map[string]float64, total int, label string, limit int) Breakdown {
	rows := make([]BreakdownRow, 0, len(live))
	for value, metric := range live {
		base := baselinePct[value]
		diff := metric.Pct - base
		rows = append(rows, BreakdownRow{
			Value:       value,
			FilteredAbs: metric.Abs,
			FilteredPct: metric.Pct,
			BaselinePct: base,
			ExpectedAbs: expectedCount(total, base),
			DiffPct:     diff,
			AbsDiffPct:  abs(diff),
			Direction:   direction(diff),
		})
	}
	for value, base := range baselinePct {
		if _, seen := live[value]; seen || base <= 0 {
			continue
		}
		rows = append(rows, BreakdownRow{
			Value:       value,
			BaselinePct: base,
			ExpectedAbs: expectedCount(total, base),
			DiffPct:     -base,
			AbsDiffPct:  base,
			Direction:   "lower",
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AbsDiffPct != rows[j].AbsDiffPct {
			return rows[i].AbsDiffPct > rows[j].AbsDiffPct
		}
		return rows[i].Value < rows[j].Value
	})

	omitted := 0
	if len(rows) > limit {
		omitted = len(rows) - limit
		rows = rows[:limit]
	}
	return Breakdown{Label: label, Rows: rows, Omitted: omitted}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func expectedCount(total int, pct float64) float64 {
	if total == 0 {
		return 0
	}
	return pct / 100 * float64(total)
}

func direction(diff float64) string {
	switch {
	case diff > 0:
		return "higher"
	case diff < 0:
		return "lower"
	default:
		return "same"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
