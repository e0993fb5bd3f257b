package cache

import (
	"time"

	"github.com/goliatone/go-synapse/internal/cacheinfra"
)

// Backend selects the CacheService implementation.
type Backend = cacheinfra.Backend

const (
	// BackendSturdyc is a sharded cache with capacity based eviction.
	BackendSturdyc = cacheinfra.BackendSturdyc
	// BackendMemory is an unbounded map that never evicts or expires entries.
	BackendMemory = cacheinfra.BackendMemory
)

// NeverExpire is the TTL used when entries should live until explicitly invalidated.
const NeverExpire = cacheinfra.NeverExpire

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend              Backend             `yaml:"backend" json:"backend"`
	Capacity             int                 `yaml:"capacity" json:"capacity"`
	NumShards            int                 `yaml:"num_shards" json:"num_shards"`
	TTL                  time.Duration       `yaml:"ttl" json:"ttl"`
	EvictionPercentage   int                 `yaml:"eviction_percentage" json:"eviction_percentage"`
	EarlyRefresh         *EarlyRefreshConfig `yaml:"early_refresh,omitempty" json:"early_refresh,omitempty"`
	MissingRecordStorage bool                `yaml:"missing_record_storage" json:"missing_record_storage"`
	EvictionInterval     time.Duration       `yaml:"eviction_interval" json:"eviction_interval"`
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration `yaml:"min_async_refresh_time" json:"min_async_refresh_time"`
	MaxAsyncRefreshTime time.Duration `yaml:"max_async_refresh_time" json:"max_async_refresh_time"`
	SyncRefreshTime     time.Duration `yaml:"sync_refresh_time" json:"sync_refresh_time"`
	RetryBaseDelay      time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
}

// DefaultConfig returns a Config populated with the defaults for entity caching:
// no expiry, no early refresh and no negative caching.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewCacheService constructs the cache service selected by cfg.Backend.
func NewCacheService(cfg Config) (CacheService, error) {
	internal := cfg.toInternal()
	if err := internal.Validate(); err != nil {
		return nil, err
	}

	if internal.Backend == cacheinfra.BackendMemory {
		return cacheinfra.NewMemoryStore(), nil
	}
	return cacheinfra.NewSturdycService(internal)
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: c.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     c.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Backend:              c.Backend,
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefreshTime: cfg.EarlyRefresh.MinAsyncRefreshTime,
			MaxAsyncRefreshTime: cfg.EarlyRefresh.MaxAsyncRefreshTime,
			SyncRefreshTime:     cfg.EarlyRefresh.SyncRefreshTime,
			RetryBaseDelay:      cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Backend:              cfg.Backend,
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		EarlyRefresh:         early,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
}
