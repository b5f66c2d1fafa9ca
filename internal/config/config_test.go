package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REGPULSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3004, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "bigdata/registry.csv", cfg.Source.Path)
	assert.Equal(t, ",", cfg.Source.Delimiter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 50.0, cfg.RateLimit.RPS)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "regpulse.yaml")
	content := `
server:
  port: 8080
source:
  path: /data/registry.csv
  delimiter: ";"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))
	t.Setenv("REGPULSE_CONFIG", configFile)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/data/registry.csv", cfg.Source.Path)
	assert.Equal(t, ';', cfg.Source.DelimiterRune())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "regpulse.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 8080\n"), 0o644))
	t.Setenv("REGPULSE_CONFIG", configFile)
	t.Setenv("REGPULSE_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"REGPULSE_SERVER_PORT": "70000"}},
		{"multi-char delimiter", map[string]string{"REGPULSE_SOURCE_DELIMITER": ",,"}},
		{"bad log level", map[string]string{"REGPULSE_LOGGING_LEVEL": "chatty"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("REGPULSE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestBaselinePath(t *testing.T) {
	data := DataConfig{BaselineDir: "/srv/baseline"}
	assert.Equal(t, filepath.Join("/srv/baseline", "per_rechtsvorm_summary.csv"),
		data.BaselinePath("per_rechtsvorm_summary.csv"))
}
