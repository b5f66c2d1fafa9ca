package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "registry.csv")
	require.NoError(t, os.WriteFile(sourcePath,
		[]byte("kvk,rechtsvorm\n111,BV\n222,Stichting\n"), 0o644))

	return &config.Config{
		Server: config.ServerConfig{
			Port:            3004,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Source: config.SourceConfig{Path: sourcePath, Delimiter: ","},
		Data: config.DataConfig{
			BaselineDir:   filepath.Join(dir, "baseline"),
			RegionsFile:   filepath.Join(dir, "regions.geojson"),
			CustomAreaDir: filepath.Join(dir, "custom_areas"),
			CodeListDir:   filepath.Join(dir, "code_lists"),
		},
	}
}

func TestNewWithConfig(t *testing.T) {
	a, err := NewWithConfig(testConfig(t), slog.Default())
	require.NoError(t, err)

	assert.Equal(t, ":3004", a.Server.Addr)
	require.Len(t, a.Registry.All(), 10)
	assert.Equal(t, "rechtsvorm", a.Registry.All()[0].Name())

	t.Run("health endpoint is served", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preview is served end to end", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/preview",
			strings.NewReader(`{"selections":{"rechtsvorm":["BV"]}}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":1`)
	})
}
