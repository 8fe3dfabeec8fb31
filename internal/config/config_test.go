package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Errorf("default driver = %q, want %q", cfg.Database.Driver, DriverDuckDB)
	}
}

// TestLoadFromFile tests loading JSON and YAML files over the defaults
func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		expectError bool
		validate    func(*testing.T, *types.Config)
	}{
		{
			name:    "json overrides only what it names",
			file:    "config.json",
			content: `{"api": {"port": 9000, "read_timeout": "30s"}, "database": {"driver": "sqlite", "dsn": "site.db"}}`,
			validate: func(t *testing.T, cfg *types.Config) {
				if cfg.API.Port != 9000 {
					t.Errorf("port = %d, want 9000", cfg.API.Port)
				}
				if cfg.API.ReadTimeout.Std() != 30*time.Second {
					t.Errorf("read timeout = %v, want 30s", cfg.API.ReadTimeout.Std())
				}
				if cfg.API.Host != "localhost" {
					t.Errorf("host should keep its default, got %q", cfg.API.Host)
				}
				if !filepath.IsAbs(cfg.Database.DSN) || filepath.Base(cfg.Database.DSN) != "site.db" {
					t.Errorf("dsn should resolve to an absolute path, got %q", cfg.Database.DSN)
				}
			},
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
api:
  port: 7000
  allowed_origins: ["https://plan.example.com"]
artifacts:
  backend: s3
  endpoint: localhost:9000
  bucket: sites
cache:
  redis_url: redis://localhost:6379/0
  ttl: 2m
`,
			validate: func(t *testing.T, cfg *types.Config) {
				if cfg.API.Port != 7000 {
					t.Errorf("port = %d, want 7000", cfg.API.Port)
				}
				if diff := cmp.Diff([]string{"https://plan.example.com"}, cfg.API.AllowedOrigins); diff != "" {
					t.Errorf("origins mismatch (-want +got):\n%s", diff)
				}
				if cfg.Artifacts.Backend != BackendS3 || cfg.Artifacts.Bucket != "sites" {
					t.Errorf("unexpected artifacts config %+v", cfg.Artifacts)
				}
				if cfg.Cache.TTL.Std() != 2*time.Minute {
					t.Errorf("ttl = %v, want 2m", cfg.Cache.TTL.Std())
				}
			},
		},
		{
			name:        "invalid JSON",
			file:        "config.json",
			content:     `{"invalid": json}`,
			expectError: true,
		},
		{
			name:        "invalid duration",
			file:        "config.json",
			content:     `{"api": {"read_timeout": "soon"}}`,
			expectError: true,
		},
		{
			name:        "fails validation",
			file:        "config.json",
			content:     `{"database": {"driver": "oracle"}}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(writeFile(t, tt.file, tt.content))
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

// TestLoadEnvOverrides tests that SITEMAP_* variables win over the file
func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.json", `{"api": {"port": 7000}, "log": {"level": "warn"}}`)
	t.Setenv("SITEMAP_API_PORT", "9090")
	t.Setenv("SITEMAP_API_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("SITEMAP_DATABASE_DRIVER", "sqlite")
	t.Setenv("SITEMAP_DATABASE_DSN", ":memory:")
	t.Setenv("SITEMAP_CACHE_TTL", "45s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.API.Port)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "https://b.example.com"}, cfg.API.AllowedOrigins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("in-memory dsn should stay as is, got %q", cfg.Database.DSN)
	}
	if cfg.Cache.TTL.Std() != 45*time.Second {
		t.Errorf("ttl = %v, want 45s", cfg.Cache.TTL.Std())
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("file value should survive when no variable is set, got %q", cfg.Log.Level)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("SITEMAP_API_RATE_LIMIT", "-1")
	if _, err := Load(""); err == nil {
		t.Error("a negative rate limit from the environment should fail validation")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Config)
	}{
		{"port too low", func(c *types.Config) { c.API.Port = 0 }},
		{"port too high", func(c *types.Config) { c.API.Port = 70000 }},
		{"negative rate limit", func(c *types.Config) { c.API.RateLimit = -5 }},
		{"zero upload limit", func(c *types.Config) { c.API.MaxUploadBytes = 0 }},
		{"unknown driver", func(c *types.Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *types.Config) { c.Database.DSN = "" }},
		{"unknown backend", func(c *types.Config) { c.Artifacts.Backend = "ftp" }},
		{"local without root", func(c *types.Config) { c.Artifacts.Root = "" }},
		{"s3 without endpoint", func(c *types.Config) { c.Artifacts.Backend = BackendS3 }},
		{"redis without ttl", func(c *types.Config) { c.Cache.RedisURL = "redis://x"; c.Cache.TTL = 0 }},
		{"sampling rate out of range", func(c *types.Config) { c.Telemetry.SamplingRate = 1.5 }},
		{"telemetry without endpoint", func(c *types.Config) { c.Telemetry.Enabled = true }},
	}

	if err := Validate(nil); err == nil {
		t.Error("nil config should fail")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := Validate(&cfg); err == nil {
				t.Error("expected validation error but got none")
			}
		})
	}
}

// TestSaveToFile tests that saved configs load back unchanged
func TestSaveToFile(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.API.Port = 9191
			cfg.Database.Driver = DriverSQLite
			cfg.Database.DSN = filepath.Join(t.TempDir(), "site.db")
			cfg.Artifacts.Root = t.TempDir()
			cfg.Cache.TTL = types.Duration(90 * time.Second)

			path := filepath.Join(t.TempDir(), name)
			if err := SaveToFile(&cfg, path); err != nil {
				t.Fatalf("SaveToFile failed: %v", err)
			}
			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("LoadFromFile failed: %v", err)
			}
			if diff := cmp.Diff(cfg, *loaded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
