package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"3004"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SourceConfig describes the registry table every request streams over.
type SourceConfig struct {
	Path      string `yaml:"path" envconfig:"PATH" default:"bigdata/registry.csv"`
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" default:","`
	Encoding  string `yaml:"encoding" envconfig:"ENCODING" default:"utf-8"`
}

// DataConfig contains the directories holding reference data: the baseline
// summary tables, administrative region polygons, uploaded custom areas and
// uploaded code lists.
type DataConfig struct {
	BaselineDir   string `yaml:"baseline_dir" envconfig:"BASELINE_DIR" default:"bigdata"`
	RegionsFile   string `yaml:"regions_file" envconfig:"REGIONS_FILE" default:"data/provincies_wgs84.geojson"`
	CustomAreaDir string `yaml:"custom_area_dir" envconfig:"CUSTOM_AREA_DIR" default:"data/custom_aoi"`
	CodeListDir   string `yaml:"code_list_dir" envconfig:"CODE_LIST_DIR" default:"data/sbi_lists"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output string `yaml:"output" envconfig:"OUTPUT" default:"console"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment variables win over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REGPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func getConfigFilePath() string {
	if path := os.Getenv("REGPULSE_CONFIG"); path != "" {
		return path
	}
	return "regpulse.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// mergeConfigs overlays file values with the env-processed config. The env
// side holds both defaults and explicit variables, so an env field only
// wins when its variable is actually set; otherwise the file value stands
// and defaults fill whatever the file leaves out.
func mergeConfigs(file, env Config) Config {
	merged := file
	if merged.Server.Port == 0 || envSet("REGPULSE_SERVER_PORT") {
		merged.Server.Port = env.Server.Port
	}
	if merged.Server.ReadTimeout == 0 || envSet("REGPULSE_SERVER_READ_TIMEOUT") {
		merged.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if envSet("REGPULSE_SERVER_WRITE_TIMEOUT") {
		merged.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if merged.Server.IdleTimeout == 0 || envSet("REGPULSE_SERVER_IDLE_TIMEOUT") {
		merged.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if merged.Server.ShutdownTimeout == 0 || envSet("REGPULSE_SERVER_SHUTDOWN_TIMEOUT") {
		merged.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}
	if merged.Source.Path == "" || envSet("REGPULSE_SOURCE_PATH") {
		merged.Source.Path = env.Source.Path
	}
	if merged.Source.Delimiter == "" || envSet("REGPULSE_SOURCE_DELIMITER") {
		merged.Source.Delimiter = env.Source.Delimiter
	}
	if merged.Source.Encoding == "" || envSet("REGPULSE_SOURCE_ENCODING") {
		merged.Source.Encoding = env.Source.Encoding
	}
	if merged.Data.BaselineDir == "" || envSet("REGPULSE_DATA_BASELINE_DIR") {
		merged.Data.BaselineDir = env.Data.BaselineDir
	}
	if merged.Data.RegionsFile == "" || envSet("REGPULSE_DATA_REGIONS_FILE") {
		merged.Data.RegionsFile = env.Data.RegionsFile
	}
	if merged.Data.CustomAreaDir == "" || envSet("REGPULSE_DATA_CUSTOM_AREA_DIR") {
		merged.Data.CustomAreaDir = env.Data.CustomAreaDir
	}
	if merged.Data.CodeListDir == "" || envSet("REGPULSE_DATA_CODE_LIST_DIR") {
		merged.Data.CodeListDir = env.Data.CodeListDir
	}
	if merged.Logging.Level == "" || envSet("REGPULSE_LOGGING_LEVEL") {
		merged.Logging.Level = env.Logging.Level
	}
	if merged.Logging.Format == "" || envSet("REGPULSE_LOGGING_FORMAT") {
		merged.Logging.Format = env.Logging.Format
	}
	if merged.Logging.Output == "" || envSet("REGPULSE_LOGGING_OUTPUT") {
		merged.Logging.Output = env.Logging.Output
	}
	if envSet("REGPULSE_RATE_LIMIT_ENABLED") {
		merged.RateLimit.Enabled = env.RateLimit.Enabled
	}
	if merged.RateLimit.RPS == 0 || envSet("REGPULSE_RATE_LIMIT_RPS") {
		merged.RateLimit.RPS = env.RateLimit.RPS
	}
	if merged.RateLimit.Burst == 0 || envSet("REGPULSE_RATE_LIMIT_BURST") {
		merged.RateLimit.Burst = env.RateLimit.Burst
	}
	return merged
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Source.Path == "" {
		return fmt.Errorf("source path must not be empty")
	}
	if len([]rune(c.Source.Delimiter)) != 1 {
		return fmt.Errorf("source delimiter must be a single character, got %q", c.Source.Delimiter)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	return nil
}

// DelimiterRune returns the configured source delimiter as a rune.
func (c *SourceConfig) DelimiterRune() rune {
	return []rune(c.Delimiter)[0]
}

// BaselinePath returns the path of one of the precomputed reference tables.
func (c *DataConfig) BaselinePath(name string) string {
	return filepath.Join(c.BaselineDir, name)
}
