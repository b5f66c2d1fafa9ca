package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/config"
	apierrors "regpulse/internal/errors"
	"regpulse/internal/exporter"
	"regpulse/internal/filter"
	"regpulse/internal/schema"
)

const testTable = "kvk,rechtsvorm,email,contactpersoon\n" +
	"111,BV,a@b.nl,A. de Vries\n" +
	"222,Stichting,,\n" +
	"333,BV,c@d.nl,\n" +
	"444,,e@f.nl,B. Jansen\n" +
	"333,BV,c@d.nl,\n"

func newTestExportService(t *testing.T) *ExportService {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.csv")
	require.NoError(t, os.WriteFile(path, []byte(testTable), 0o644))

	source := schema.NewSource(config.SourceConfig{Path: path, Delimiter: ","}, nil)
	registry := filter.NewRegistry(
		filter.NewLegalFormFilter(source),
		filter.NewContactPersonFilter(),
		filter.NewMediaFilter(),
	)
	return NewExportService(source, registry, filter.NewDuplicateIndex(',', nil), nil, nil)
}

func TestExportServiceCount(t *testing.T) {
	svc := newTestExportService(t)
	ctx := context.Background()

	t.Run("no selection counts everything", func(t *testing.T) {
		count, err := svc.Count(ctx, nil, AdvancedOptions{})
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("selection narrows the count", func(t *testing.T) {
		count, err := svc.Count(ctx, map[string]any{
			"rechtsvorm": []any{"BV", "UNKNOWN"},
		}, AdvancedOptions{})
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("unknown filter name is a validation error", func(t *testing.T) {
		_, err := svc.Count(ctx, map[string]any{"typo": []any{"x"}}, AdvancedOptions{})
		require.Error(t, err)
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 400, apiErr.StatusCode)
	})
}

func TestExportServiceDuplicateExclusion(t *testing.T) {
	svc := newTestExportService(t)
	ctx := context.Background()

	exclusionDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(exclusionDir, "campaign.csv"),
		[]byte("kvk\n111\n"), 0o644))

	// 111 excluded externally, the repeated 333 deduplicated in-stream
	count, err := svc.Count(ctx, nil, AdvancedOptions{
		ExcludeDuplicates: true,
		DuplicateFolder:   exclusionDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("missing folder is surfaced", func(t *testing.T) {
		_, err := svc.Count(ctx, nil, AdvancedOptions{
			ExcludeDuplicates: true,
			DuplicateFolder:   filepath.Join(exclusionDir, "absent"),
		})
		assert.Error(t, err)
	})

	t.Run("folder required when enabled", func(t *testing.T) {
		_, err := svc.Count(ctx, nil, AdvancedOptions{ExcludeDuplicates: true})
		assert.Error(t, err)
	})
}

func TestExportServiceDownload(t *testing.T) {
	svc := newTestExportService(t)

	var buf bytes.Buffer
	count, err := svc.Download(context.Background(), &buf, map[string]any{
		"contactpersoon": []any{"TRUE"},
	}, AdvancedOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	body := buf.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
	assert.Contains(t, body, "kvk,rechtsvorm,email,contactpersoon\r\n")
	assert.Contains(t, body, "111,BV,a@b.nl,A. de Vries\r\n")
	assert.NotContains(t, body, "222")
}

func TestExportServiceSave(t *testing.T) {
	svc := newTestExportService(t)
	ctx := context.Background()
	outDir := t.TempDir()

	t.Run("routes across destinations", func(t *testing.T) {
		result, err := svc.Save(ctx, nil, AdvancedOptions{}, []exporter.Destination{
			{Dir: filepath.Join(outDir, "a"), BaseName: "part", MaxRowsPerFile: 2, RowsRequested: 3},
			{Dir: filepath.Join(outDir, "b"), BaseName: "rest", MaxRowsPerFile: 10, Rest: true},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, result.TotalRows)
		assert.Equal(t, 3, result.Destinations[0].Rows)
		assert.Equal(t, 2, result.Destinations[1].Rows)
	})

	t.Run("invalid destinations rejected before reading", func(t *testing.T) {
		_, err := svc.Save(ctx, nil, AdvancedOptions{}, []exporter.Destination{
			{Dir: outDir, BaseName: "x", MaxRowsPerFile: 0, RowsRequested: 1},
		})
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 400, apiErr.StatusCode)
	})

	t.Run("capacity overflow maps to 422", func(t *testing.T) {
		_, err := svc.Save(ctx, nil, AdvancedOptions{}, []exporter.Destination{
			{Dir: filepath.Join(outDir, "c"), BaseName: "tiny", MaxRowsPerFile: 5, RowsRequested: 2},
		})
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 422, apiErr.StatusCode)
	})
}
