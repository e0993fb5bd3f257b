package di

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-synapse/cache"
	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/repositorycache"
)

// Container owns the cache shared by every cached repository it creates.
// The cache lives exactly as long as the container.
type Container struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	config        cache.Config
	observer      repositorycache.Observer
	logger        *slog.Logger
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithObserver is handed to every repository built by the container.
func WithObserver(observer repositorycache.Observer) ContainerOption {
	return func(c *Container) { c.observer = observer }
}

// WithLogger is handed to every repository built by the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) { c.logger = logger }
}

// NewContainer creates the cache service selected by config and the default
// key serializer.
func NewContainer(config cache.Config, opts ...ContainerOption) (*Container, error) {
	cacheService, err := cache.NewCacheService(config)
	if err != nil {
		return nil, err
	}

	c := &Container{
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		config:        config,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// NewContainerWithDefaults uses cache.DefaultConfig.
func NewContainerWithDefaults(opts ...ContainerOption) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns a copy of the cache configuration.
func (c *Container) Config() cache.Config {
	return c.config
}

// Reset drops every cached entry of every repository.
func (c *Container) Reset(ctx context.Context) error {
	return c.cacheService.Reset(ctx)
}

// NewCachedRepository wraps source with the container's cache. Options given
// here override the container's observer and logger.
//
// Since Go methods cannot have type parameters, this is a package-level function:
//
//	users := di.NewCachedRepository[domain.User](container, source)
func NewCachedRepository[T any](c *Container, source repositorycache.Source[T], opts ...repositorycache.Option) *repositorycache.CachedRepository[T] {
	base := []repositorycache.Option{repositorycache.WithLogger(c.logger)}
	if c.observer != nil {
		base = append(base, repositorycache.WithObserver(c.observer))
	}
	return repositorycache.New(source, c.cacheService, c.keySerializer, append(base, opts...)...)
}
