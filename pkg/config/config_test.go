package config

import (
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/cache"
	"github.com/goliatone/go-synapse/pkg/testsupport"
	"github.com/goliatone/go-synapse/remote"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.StorageEnabled() {
		t.Error("expected storage to be disabled by default")
	}
	if cfg.Database.Driver != remote.DriverSQLite {
		t.Errorf("expected sqlite by default, got %q", cfg.Database.Driver)
	}
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(testsupport.FixturePath("synapse.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Cache.Backend != cache.BackendMemory || cfg.Cache.TTL != 10*time.Minute || cfg.Cache.NumShards != 16 {
		t.Errorf("unexpected cache section: %+v", cfg.Cache)
	}
	if cfg.Database.Driver != remote.DriverPostgres || cfg.Database.MaxOpenConns != 10 {
		t.Errorf("unexpected database section: %+v", cfg.Database)
	}
	if !cfg.StorageEnabled() || cfg.Storage.Bucket != "images" || cfg.Storage.Timeout != 15*time.Second {
		t.Errorf("unexpected storage section: %+v", cfg.Storage)
	}
	if cfg.Log.Format != "json" || cfg.Paging.PageSize != 10 || cfg.Metrics.Addr != ":9100" {
		t.Errorf("unexpected sections: log=%+v paging=%+v metrics=%+v", cfg.Log, cfg.Paging, cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected fixture to validate, got %v", err)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromFile(dir + "/missing.yaml"); !goerrors.IsNotFound(err) {
		t.Errorf("expected not found for a missing file, got %v", err)
	}

	unknown := testsupport.WriteFixture(t, dir, "unknown.yaml", []byte("cache:\n  capacityy: 10\n"))
	if _, err := LoadFromFile(unknown); !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Errorf("expected bad input for an unknown key, got %v", err)
	}

	partial := testsupport.WriteFixture(t, dir, "partial.yaml", []byte("paging:\n  page_size: 50\n"))
	cfg, err := LoadFromFile(partial)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Paging.PageSize != 50 || cfg.Cache.Capacity != cache.DefaultConfig().Capacity {
		t.Errorf("expected file values over defaults, got %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYNAPSE_CACHE_BACKEND", "sturdyc")
	t.Setenv("SYNAPSE_CACHE_TTL", "90s")
	t.Setenv("SYNAPSE_DATABASE_DRIVER", "postgres")
	t.Setenv("SYNAPSE_DATABASE_DSN", "postgres://env")
	t.Setenv("SYNAPSE_STORAGE_URL", "https://env.supabase.co")
	t.Setenv("SYNAPSE_STORAGE_BUCKET", "media")
	t.Setenv("SYNAPSE_STORAGE_API_KEY", "k")
	t.Setenv("SYNAPSE_LOG_LEVEL", "warn")
	t.Setenv("SYNAPSE_PAGE_SIZE", "30")
	t.Setenv("SYNAPSE_METRICS_ENABLED", "true")

	cfg := DefaultConfig()
	if err := LoadFromEnv(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Cache.Backend != cache.BackendSturdyc || cfg.Cache.TTL != 90*time.Second {
		t.Errorf("unexpected cache overrides: %+v", cfg.Cache)
	}
	if cfg.Database.DSN != "postgres://env" || cfg.Storage.Bucket != "media" || cfg.Log.Level != "warn" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.Paging.PageSize != 30 || !cfg.Metrics.Enabled {
		t.Errorf("unexpected numeric overrides: paging=%+v metrics=%+v", cfg.Paging, cfg.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected overridden config to validate, got %v", err)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	for _, name := range []string{"SYNAPSE_CACHE_TTL", "SYNAPSE_PAGE_SIZE", "SYNAPSE_METRICS_ENABLED"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, "not-a-value")
			if err := LoadFromEnv(DefaultConfig()); !goerrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"storage without bucket", func(c *Config) { c.Storage.URL = "https://x.supabase.co"; c.Storage.APIKey = "k" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"zero page size", func(c *Config) { c.Paging.PageSize = 0 }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !goerrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("SYNAPSE_LOG_FORMAT", "text")

	cfg, err := Load(testsupport.FixturePath("synapse.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected env to win over file, got %q", cfg.Log.Format)
	}

	cfg, err = Load("")
	if err != nil || cfg.Paging.PageSize != 20 {
		t.Errorf("expected defaults without a file, got %+v %v", cfg, err)
	}
}
