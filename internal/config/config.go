package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. SITEMAP_API_PORT
const EnvPrefix = "SITEMAP_"

// Supported database drivers
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported artifact backends
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// DefaultConfig returns the configuration used when a field is not set anywhere else
func DefaultConfig() types.Config {
	return types.Config{
		API: types.APIConfig{
			Host:           "localhost",
			Port:           8086,
			ReadTimeout:    types.Duration(15 * time.Second),
			WriteTimeout:   types.Duration(15 * time.Second),
			IdleTimeout:    types.Duration(60 * time.Second),
			AllowedOrigins: []string{"*"},
			RateLimit:      600,
			MaxUploadBytes: 32 << 20,
		},
		Database: types.DatabaseConfig{
			Driver: DriverDuckDB,
			DSN:    "./sitemap.db",
		},
		Artifacts: types.ArtifactsConfig{
			Backend: BackendLocal,
			Root:    "./artifacts",
			Bucket:  "sitemap",
		},
		Cache: types.CacheConfig{
			TTL: types.Duration(5 * time.Minute),
		},
		Log: types.LogConfig{
			Level: "info",
		},
		Telemetry: types.TelemetryConfig{
			SamplingRate: 1.0,
		},
	}
}

// Load builds the effective configuration: defaults, then the optional file,
// then SITEMAP_* environment variables.
func Load(configPath string) (*types.Config, error) {
	var cfg *types.Config
	if configPath != "" {
		loaded, err := LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		def := DefaultConfig()
		cfg = &def
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a JSON or YAML file on top of the defaults
func LoadFromFile(configPath string) (*types.Config, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with any SITEMAP_* variables present in the environment
func ApplyEnv(cfg *types.Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

func finalize(cfg *types.Config) error {
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// File-backed databases resolve relative to the working directory
	if cfg.Database.Driver != DriverPostgres && cfg.Database.DSN != ":memory:" && !filepath.IsAbs(cfg.Database.DSN) {
		absPath, err := filepath.Abs(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
		cfg.Database.DSN = absPath
	}

	if cfg.Artifacts.Backend == BackendLocal && !filepath.IsAbs(cfg.Artifacts.Root) {
		absPath, err := filepath.Abs(cfg.Artifacts.Root)
		if err != nil {
			return fmt.Errorf("failed to resolve artifacts root: %w", err)
		}
		cfg.Artifacts.Root = absPath
	}
	return nil
}

// Validate checks that the configuration parameters are valid
func Validate(cfg *types.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535, got %d", cfg.API.Port)
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %d", cfg.API.RateLimit)
	}
	if cfg.API.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", cfg.API.MaxUploadBytes)
	}

	switch cfg.Database.Driver {
	case DriverDuckDB, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	switch cfg.Artifacts.Backend {
	case BackendLocal:
		if cfg.Artifacts.Root == "" {
			return fmt.Errorf("artifacts root is required for the local backend")
		}
	case BackendS3:
		if cfg.Artifacts.Endpoint == "" || cfg.Artifacts.Bucket == "" {
			return fmt.Errorf("artifacts endpoint and bucket are required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported artifacts backend %q", cfg.Artifacts.Backend)
	}

	if cfg.Cache.RedisURL != "" && cfg.Cache.TTL.Std() <= 0 {
		return fmt.Errorf("cache ttl must be positive when redis is configured")
	}

	if cfg.Telemetry.SamplingRate < 0.0 || cfg.Telemetry.SamplingRate > 1.0 {
		return fmt.Errorf("sampling_rate must be between 0.0 and 1.0, got %f", cfg.Telemetry.SamplingRate)
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
	}

	return nil
}

// SaveToFile saves configuration to a JSON or YAML file, chosen by extension
func SaveToFile(cfg *types.Config, configPath string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
