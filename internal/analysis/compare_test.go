package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBaseline() *Baseline {
	return &Baseline{
		TotalRows: 1000,
		Summary: map[string]float64{
			"email_pct":          40,
			"phone_pct":          60,
			"contactpersoon_pct": 20,
			"multi_kvk_pct":      5,
			"working_min_avg":    3.5,
		},
		LegalFormTotals:     map[string]int{"BV": 600, "Stichting": 400},
		RegionPct:           map[string]float64{"Utrecht": 10, "Groningen": 5},
		CodePct:             map[string]float64{"6201": 8},
		FoundingDate:        "2010-06-15",
		FoundingDateOrdinal: 733938,
	}
}

func testAggregates() *Aggregates {
	wmin := 4.5
	return &Aggregates{
		TotalRows: 200,
		Metrics: map[string]Metric{
			"email":          {Abs: 100, Pct: 50},
			"phone":          {Abs: 110, Pct: 55},
			"contactpersoon": {Abs: 40, Pct: 20},
		},
		Averages: map[string]*float64{"working_min_avg": &wmin},
		FoundingDate: FoundingAverage{
			Value:   "2012-06-14",
			Ordinal: 733938 + 730,
			Count:   150,
		},
		MultiIdentifier: MultiIdentifier{Unique: 180, Multi: 18, Pct: 10},
		LegalForms: map[string]Metric{
			"BV": {Abs: 180, Pct: 90},
		},
		Regions: map[string]Metric{
			"Utrecht": {Abs: 30, Pct: 15},
		},
		Codes: map[string]Metric{
			"6201": {Abs: 10, Pct: 5},
		},
	}
}

func metricByKey(t *testing.T, rows []MetricComparison, key string) MetricComparison {
	t.Helper()
	for _, row := range rows {
		if row.Key == key {
			return row
		}
	}
	t.Fatalf("metric %q not in comparison", key)
	return MetricComparison{}
}

func TestCompareSummaryMetrics(t *testing.T) {
	report := Compare(testAggregates(), testBaseline(), nil)

	assert.Equal(t, 200, report.TotalRows)
	assert.Equal(t, 1000, report.BaselineTotalRows)
	assert.Equal(t, []string{"summary"}, report.Dimensions)
	assert.Empty(t, report.Groups)

	email := metricByKey(t, report.Summary.Metrics, "email")
	assert.InDelta(t, 10, email.DiffPct, 1e-9)
	assert.Equal(t, "higher", email.Direction)
	assert.InDelta(t, 80, email.ExpectedAbs, 1e-9) // 40% of 200

	contact := metricByKey(t, report.Summary.Metrics, "contactpersoon")
	assert.Equal(t, "same", contact.Direction)
	assert.Zero(t, contact.DiffPct)

	// ranked by absolute deviation descending
	require.NotEmpty(t, report.Summary.Metrics)
	assert.Equal(t, "email", report.Summary.Metrics[0].Key)

	// metrics without a baseline column are dropped, not zeroed
	for _, row := range report.Summary.Metrics {
		assert.NotEqual(t, "fax", row.Key)
	}
}

func TestCompareHighlightsAndAverages(t *testing.T) {
	report := Compare(testAggregates(), testBaseline(), nil)

	require.NotEmpty(t, report.Summary.Highlights.Positive)
	assert.LessOrEqual(t, len(report.Summary.Highlights.Positive), 3)
	for _, row := range report.Summary.Highlights.Positive {
		assert.Positive(t, row.DiffPct)
	}
	for _, row := range report.Summary.Highlights.Negative {
		assert.Negative(t, row.DiffPct)
	}

	var wmin *AverageComparison
	for i := range report.Summary.Averages {
		if report.Summary.Averages[i].Key == "working_min_avg" {
			wmin = &report.Summary.Averages[i]
		}
	}
	require.NotNil(t, wmin)
	require.NotNil(t, wmin.Diff)
	assert.InDelta(t, 1.0, *wmin.Diff, 1e-9)

	// founding date: two years newer
	require.NotNil(t, report.Summary.FoundingDate.DiffDays)
	assert.Equal(t, 730, *report.Summary.FoundingDate.DiffDays)
	assert.Equal(t, "newer", report.Summary.FoundingDate.Direction)

	multi := report.Summary.MultiIdentifier
	assert.InDelta(t, 5, multi.DiffPct, 1e-9)
	assert.InDelta(t, 9, multi.ExpectedMulti, 1e-9) // 5% of 180 unique
}

func TestCompareBreakdowns(t *testing.T) {
	report := Compare(testAggregates(), testBaseline(), []string{"rechtsvorm", "province", "sbi"})

	rechtsvorm, ok := report.Groups["rechtsvorm"]
	require.True(t, ok)
	// BV live 90% vs baseline 60%; Stichting absent live but baseline 40%
	require.Len(t, rechtsvorm.Rows, 2)
	assert.Equal(t, "Stichting", rechtsvorm.Rows[0].Value)
	assert.Equal(t, 0, rechtsvorm.Rows[0].FilteredAbs)
	assert.Equal(t, "lower", rechtsvorm.Rows[0].Direction)
	assert.InDelta(t, -40, rechtsvorm.Rows[0].DiffPct, 1e-9)
	assert.Equal(t, "BV", rechtsvorm.Rows[1].Value)
	assert.InDelta(t, 30, rechtsvorm.Rows[1].DiffPct, 1e-9)

	province, ok := report.Groups["province"]
	require.True(t, ok)
	// Groningen appears as a zero-live baseline category
	values := make([]string, 0, len(province.Rows))
	for _, row := range province.Rows {
		values = append(values, row.Value)
	}
	assert.Contains(t, values, "Utrecht")
	assert.Contains(t, values, "Groningen")

	sbi, ok := report.Groups["sbi"]
	require.True(t, ok)
	require.Len(t, sbi.Rows, 1)
	assert.Equal(t, "lower", sbi.Rows[0].Direction)
}

func TestCompareBreakdownCapAndOmitted(t *testing.T) {
	aggregates := testAggregates()
	aggregates.Codes = make(map[string]Metric)
	baseline := testBaseline()
	for i := 0; i < codeDisplayCap+7; i++ {
		code := fmt.Sprintf("%04d", i)
		aggregates.Codes[code] = Metric{Abs: 1, Pct: float64(i) / 10}
	}

	report := Compare(aggregates, baseline, []string{"sbi"})
	sbi := report.Groups["sbi"]
	assert.Len(t, sbi.Rows, codeDisplayCap)
	// 57 live codes plus the unmatched baseline code 6201
	assert.Equal(t, 8, sbi.Omitted)
}

func TestCompareZeroTotal(t *testing.T) {
	aggregates := &Aggregates{
		TotalRows: 0,
		Metrics:   map[string]Metric{"email": {}},
		Averages:  map[string]*float64{},
	}
	report := Compare(aggregates, testBaseline(), []string{"province"})

	email := metricByKey(t, report.Summary.Metrics, "email")
	assert.Zero(t, email.ExpectedAbs)
	assert.Equal(t, "lower", email.Direction)

	for _, row := range report.Groups["province"].Rows {
		assert.Zero(t, row.ExpectedAbs)
	}
}
