package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/analysis"
	"regpulse/internal/config"
)

func writeAnalysisBaseline(t *testing.T) config.DataConfig {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"per_rechtsvorm_summary.csv": "rechtsvorm,total_rows,email_pct,contactpersoon_pct,multi_kvk_pct\n" +
			"ALL,1000,40,30,5\n" +
			"BV,600,50,35,6\n",
		"per_rechtsvorm_province.csv": "rechtsvorm,province,pct_of_all_rows\nALL,Utrecht,10\n",
		"per_rechtsvorm_sbi.csv":      "rechtsvorm,sbi_code,pct_of_all_rows\nALL,6201,8\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return config.DataConfig{BaselineDir: dir}
}

func TestAnalysisService(t *testing.T) {
	export := newTestExportService(t)
	loader := analysis.NewBaselineLoader(writeAnalysisBaseline(t), ',', nil)
	svc := NewAnalysisService(export, nil, loader, nil)

	report, err := svc.Analyze(context.Background(), map[string]any{
		"rechtsvorm": []any{"BV"},
	}, AdvancedOptions{}, []string{"rechtsvorm"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 1000, report.BaselineTotalRows)
	assert.Contains(t, report.Dimensions, "summary")
	assert.Contains(t, report.Dimensions, "rechtsvorm")

	group, ok := report.Groups["rechtsvorm"]
	require.True(t, ok)
	assert.NotEmpty(t, group.Rows)

	// no coordinate columns in the source: warning, not failure
	assert.NotEmpty(t, report.Warnings)
}

func TestAnalysisServiceMissingBaseline(t *testing.T) {
	export := newTestExportService(t)
	loader := analysis.NewBaselineLoader(config.DataConfig{BaselineDir: t.TempDir()}, ',', nil)
	svc := NewAnalysisService(export, nil, loader, nil)

	_, err := svc.Analyze(context.Background(), nil, AdvancedOptions{}, nil)
	assert.Error(t, err)
}
