package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"regpulse/internal/config"
	"regpulse/internal/filter"
)

// Reference table file names inside the baseline directory.
const (
	summaryFile = "per_rechtsvorm_summary.csv"
	regionFile  = "per_rechtsvorm_province.csv"
	codeFile    = "per_rechtsvorm_sbi.csv"
)

// allRow marks the sentinel row carrying whole-dataset values in every
// reference table.
const allRow = "ALL"

// Baseline is the immutable reference distribution the live aggregates are
// compared against. Loaded once per process, never invalidated at runtime.
type Baseline struct {
	TotalRows int

	// Summary holds the sentinel row's numeric columns keyed by sanitized
	// column name ("email_pct", "working_min_avg", "multi_kvk_pct", ...).
	Summary map[string]float64

	UniqueIdentifiers   int
	MultiIdentifiersAbs int
	LegalFormTotals     map[string]int
	RegionPct           map[string]float64
	CodePct             map[string]float64
	FoundingDate        string
	FoundingDateOrdinal int
}

// BaselineLoader lazily loads and caches the three reference tables. A
// missing table is a configuration error and is surfaced on every call
// until the file appears; a successful load is cached for the process
// lifetime.
type BaselineLoader struct {
	data      config.DataConfig
	delimiter rune
	logger    *slog.Logger

	mu     sync.Mutex
	cached *Baseline
}

// NewBaselineLoader reads reference tables from the configured baseline
// directory with the given delimiter.
func NewBaselineLoader(data config.DataConfig, delimiter rune, logger *slog.Logger) *BaselineLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaselineLoader{
		data:      data,
		delimiter: delimiter,
		logger:    logger.With(slog.String("component", "baseline")),
	}
}

// Load returns the cached baseline, reading the tables on first use.
func (l *BaselineLoader) Load() (*Baseline, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cached != nil {
		return l.cached, nil
	}

	baseline := &Baseline{
		Summary:         make(map[string]float64),
		LegalFormTotals: make(map[string]int),
		RegionPct:       make(map[string]float64),
		CodePct:         make(map[string]float64),
	}

	if err := l.readSummary(baseline); err != nil {
		return nil, err
	}
	if err := l.readPctTable(regionFile, "province", baseline.RegionPct); err != nil {
		return nil, err
	}
	if err := l.readPctTable(codeFile, "sbi_code", baseline.CodePct); err != nil {
		return nil, err
	}

	l.cached = baseline
	l.logger.Info("baseline tables loaded",
		slog.Int("total_rows", baseline.TotalRows),
		slog.Int("legal_forms", len(baseline.LegalFormTotals)),
		slog.Int("regions", len(baseline.RegionPct)),
		slog.Int("codes", len(baseline.CodePct)))
	return baseline, nil
}

func (l *BaselineLoader) readSummary(baseline *Baseline) error {
	rows, err := l.readTable(summaryFile)
	if err != nil {
		return err
	}
	for _, row := range rows {
		form := strings.TrimSpace(row["rechtsvorm"])
		if form == "" {
			continue
		}
		if form != allRow {
			if total, ok := parseBaselineInt(row["total_rows"]); ok {
				baseline.LegalFormTotals[form] = total
			}
			continue
		}

		if total, ok := parseBaselineInt(row["total_rows"]); ok {
			baseline.TotalRows = total
		}
		for column, value := range row {
			key := sanitizeColumn(column)
			switch {
			case key == "rechtsvorm" || key == "total_rows":
			case key == "avg_oprichtingsdatum_yyyy_mm_dd":
				if t, ok := filter.ParseDate(value); ok {
					baseline.FoundingDate = t.Format("2006-01-02")
					baseline.FoundingDateOrdinal = dateOrdinal(t)
				}
			case key == "unique_kvk":
				if v, ok := parseBaselineInt(value); ok {
					baseline.UniqueIdentifiers = v
				}
			case key == "multi_kvk_abs":
				if v, ok := parseBaselineInt(value); ok {
					baseline.MultiIdentifiersAbs = v
				}
			case strings.HasSuffix(key, "_pct") || strings.Contains(key, "_avg"):
				if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					baseline.Summary[key] = v
				}
			}
		}
	}
	return nil
}

// readPctTable collects the per-category shares from the sentinel rows of a
// breakdown table.
func (l *BaselineLoader) readPctTable(name, categoryColumn string, out map[string]float64) error {
	rows, err := l.readTable(name)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if strings.TrimSpace(row["rechtsvorm"]) != allRow {
			continue
		}
		category := strings.TrimSpace(row[categoryColumn])
		if category == "" {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(row["pct_of_all_rows"]), 64); err == nil {
			out[category] = v
		} else {
			out[category] = 0
		}
	}
	return nil
}

func (l *BaselineLoader) readTable(name string) ([]map[string]string, error) {
	path := l.data.BaselinePath(name)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reference table %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = l.delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reference table %s: read header: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reference table %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var columnSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// sanitizeColumn slugs a reference-table column name: lowercased, spaces
// and hyphens folded to underscores, everything else stripped.
func sanitizeColumn(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "-", "_")
	return columnSanitizer.ReplaceAllString(slug, "")
}

func parseBaselineInt(value string) (int, bool) {
	return filter.ParseInt(value)
}
