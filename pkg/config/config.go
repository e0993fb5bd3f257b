package config

import (
	"bytes"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/cache"
	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/media"
	"github.com/goliatone/go-synapse/remote"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "SYNAPSE_"

// PagingConfig holds the defaults for list loading.
type PagingConfig struct {
	PageSize       int  `yaml:"page_size" json:"page_size"`
	EndOnEmptyOnly bool `yaml:"end_on_empty_only" json:"end_on_empty_only"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Addr      string `yaml:"addr" json:"addr"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Config is the central configuration struct embedding all component configs.
// Storage is optional; uploads are disabled while Storage.URL is empty.
type Config struct {
	Cache    cache.Config          `yaml:"cache" json:"cache"`
	Database remote.DatabaseConfig `yaml:"database" json:"database"`
	Storage  media.StorageConfig   `yaml:"storage" json:"storage"`
	Log      logging.Config        `yaml:"log" json:"log"`
	Paging   PagingConfig          `yaml:"paging" json:"paging"`
	Metrics  MetricsConfig         `yaml:"metrics" json:"metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		Cache:    cache.DefaultConfig(),
		Database: remote.DefaultDatabaseConfig(),
		Log:      logging.DefaultConfig(),
		Paging: PagingConfig{
			PageSize: 20,
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "synapse",
		},
	}
}

// StorageEnabled reports whether an upload backend is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.URL != ""
}

// Validate checks every section. Storage is only checked when enabled.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Cache),
		validation.Field(&c.Database),
		validation.Field(&c.Storage, validation.Skip.When(!c.StorageEnabled())),
		validation.Field(&c.Log),
		validation.Field(&c.Paging),
		validation.Field(&c.Metrics),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration")
	}
	return nil
}

func (p PagingConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PageSize, validation.Required, validation.Min(1), validation.Max(500)),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Addr, validation.When(m.Enabled, validation.Required)),
		validation.Field(&m.Namespace, validation.Required),
	)
}

// LoadFromFile reads a YAML file over the defaults. Unknown keys are rejected.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryNotFound, "read config file").
			WithMetadata(map[string]any{"path": path})
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "parse config file").
			WithMetadata(map[string]any{"path": path})
	}
	return cfg, nil
}

// LoadFromEnv applies SYNAPSE_* environment overrides to cfg.
func LoadFromEnv(cfg *Config) error {
	if v, ok := lookup("CACHE_BACKEND"); ok {
		cfg.Cache.Backend = cache.Backend(v)
	}
	if v, ok := lookup("DATABASE_DRIVER"); ok {
		cfg.Database.Driver = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := lookup("STORAGE_URL"); ok {
		cfg.Storage.URL = v
	}
	if v, ok := lookup("STORAGE_BUCKET"); ok {
		cfg.Storage.Bucket = v
	}
	if v, ok := lookup("STORAGE_API_KEY"); ok {
		cfg.Storage.APIKey = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup("METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}

	if v, ok := lookup("CACHE_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return envError("CACHE_TTL", err)
		}
		cfg.Cache.TTL = ttl
	}
	if v, ok := lookup("PAGE_SIZE"); ok {
		size, err := strconv.Atoi(v)
		if err != nil {
			return envError("PAGE_SIZE", err)
		}
		cfg.Paging.PageSize = size
	}
	if v, ok := lookup("METRICS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return envError("METRICS_ENABLED", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}

// Load reads path when it is not empty, applies the environment and validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envError(name string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid "+EnvPrefix+name).
		WithMetadata(map[string]any{"variable": EnvPrefix + name})
}
