package repositorycache

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/cache"
	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/outcome"
)

const getByIDMethod = "GetByID"

// Source fetches a single entity by id from the remote backend.
type Source[T any] interface {
	FetchByID(ctx context.Context, id string) (T, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc[T any] func(ctx context.Context, id string) (T, error)

// FetchByID calls f.
func (f SourceFunc[T]) FetchByID(ctx context.Context, id string) (T, error) {
	return f(ctx, id)
}

// Saver is implemented by sources that can persist an entity.
type Saver[T any] interface {
	Save(ctx context.Context, record T) (T, error)
}

// CachedRepository serves entities from a CacheService and falls back to its Source on a
// miss. Concurrent misses for one id share a single fetch. Failed fetches are never
// stored, so the next Get for the same id reaches the source again.
type CachedRepository[T any] struct {
	source        Source[T]
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	namespace     string
	keyRegistry   *sync.Map // key -> struct{}
	tags          *tagIndex
	observer      Observer
	logger        *slog.Logger
	idOf          func(record any) (string, bool)
}

// New creates a CachedRepository over source. The cache service is owned by the caller and
// may be shared between repositories; keys are namespaced by the entity type name.
func New[T any](source Source[T], cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedRepository[T] {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}

	s := settings{
		namespace: namespaceOf[T](),
		observer:  nopObserver{},
		logger:    logging.Discard(),
		idOf:      extractID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}

	return &CachedRepository[T]{
		source:        source,
		cache:         cacheService,
		keySerializer: keySerializer,
		namespace:     s.namespace,
		keyRegistry:   &sync.Map{},
		tags:          newTagIndex(),
		observer:      s.observer,
		logger:        s.logger,
		idOf:          s.idOf,
	}
}

// Namespace returns the key prefix used for this repository's entries.
func (c *CachedRepository[T]) Namespace() string {
	return c.namespace
}

// Get returns the entity for id, from the cache when present.
// Errors are *goerrors.Error (or *goerrors.RetryableError for remote failures) with a
// category telling not found, remote, decode and cancellation failures apart.
func (c *CachedRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, classifyError(err, c.namespace, id)
	}

	key := c.key(id)
	c.trackKey(ctx, key)

	var fetched atomic.Bool
	value, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		fetched.Store(true)
		c.logger.DebugContext(ctx, "cache miss", "namespace", c.namespace, "id", id)
		return c.source.FetchByID(ctx, id)
	})
	if err != nil {
		typed := classifyError(err, c.namespace, id)
		c.observer.FetchFailed(c.namespace, typed)
		attrs := append([]slog.Attr{
			slog.String("namespace", c.namespace),
			slog.String("id", id),
			slog.String("error", typed.Error()),
		}, goerrors.ToSlogAttributes(typed)...)
		c.logger.LogAttrs(ctx, slog.LevelWarn, "fetch failed", attrs...)
		return zero, typed
	}

	if fetched.Load() {
		c.observer.CacheMiss(c.namespace)
	} else {
		c.observer.CacheHit(c.namespace)
	}

	return value, nil
}

// Find is Get wrapped in an Outcome.
func (c *CachedRepository[T]) Find(ctx context.Context, id string) outcome.Outcome[T] {
	return outcome.FromResult(c.Get(ctx, id))
}

// Save persists record through the source and drops the cached entry for its id,
// along with every entry registered under the tags carried by ctx.
func (c *CachedRepository[T]) Save(ctx context.Context, record T) (T, error) {
	var zero T

	saver, ok := c.source.(Saver[T])
	if !ok {
		return zero, goerrors.New(fmt.Sprintf("%s source does not support saving", c.namespace), goerrors.CategoryOperation).
			WithTextCode("SAVE_UNSUPPORTED")
	}

	id, _ := c.idOf(record)

	saved, err := saver.Save(ctx, record)
	if err != nil {
		return zero, classifyError(err, c.namespace, id)
	}

	if savedID, ok := c.idOf(saved); ok {
		id = savedID
	}

	if id != "" {
		if err := c.Invalidate(ctx, id); err != nil {
			return saved, err
		}
	}

	for _, tag := range cacheTagsFromContext(ctx) {
		if err := c.InvalidateTag(ctx, tag); err != nil {
			return saved, err
		}
	}

	return saved, nil
}

// Invalidate drops the cached entry for id.
func (c *CachedRepository[T]) Invalidate(ctx context.Context, id string) error {
	key := c.key(id)
	c.untrackKey(key)
	if err := c.cache.Delete(ctx, key); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalidate "+key)
	}
	return nil
}

// InvalidateTag drops every entry read under tag.
func (c *CachedRepository[T]) InvalidateTag(ctx context.Context, tag string) error {
	keys := c.tags.take(tag)
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		c.untrackKey(key)
	}
	if err := c.cache.InvalidateKeys(ctx, keys); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalidate tag "+tag)
	}
	return nil
}

// Reset drops every entry of this repository. Entries of other namespaces sharing the
// same cache service are kept.
func (c *CachedRepository[T]) Reset(ctx context.Context) error {
	c.keyRegistry.Range(func(k, _ any) bool {
		c.keyRegistry.Delete(k)
		return true
	})
	c.tags.reset()
	if err := c.cache.DeleteByPrefix(ctx, cache.KeyPrefix(c.namespace)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "reset "+c.namespace)
	}
	return nil
}

// CachedKeys returns the keys read through this repository that have not been invalidated.
func (c *CachedRepository[T]) CachedKeys() []string {
	var keys []string
	c.keyRegistry.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	return keys
}

func (c *CachedRepository[T]) key(id string) string {
	return c.namespace + cache.KeySeparator + c.keySerializer.SerializeKey(getByIDMethod, id)
}

// trackKey registers a cache key and any tags carried by ctx.
func (c *CachedRepository[T]) trackKey(ctx context.Context, key string) {
	c.keyRegistry.Store(key, struct{}{})
	for _, tag := range cacheTagsFromContext(ctx) {
		c.tags.add(tag, key)
	}
}

func (c *CachedRepository[T]) untrackKey(key string) {
	c.keyRegistry.Delete(key)
	c.tags.remove(key)
}

// namespaceOf derives the key namespace from the entity type, e.g. UserProfile -> user_profile.
func namespaceOf[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.Index(name, "["); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = t.String()
	}
	return toSnake(name)
}

// extractID reads the ID field of record. uuid.UUID and other Stringer ids use their
// String form.
func extractID(record any) (string, bool) {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}

	for _, name := range []string{"ID", "Id"} {
		field := v.FieldByName(name)
		if !field.IsValid() || !field.CanInterface() {
			continue
		}
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return "", false
			}
			field = field.Elem()
		}
		if field.IsZero() {
			return "", false
		}
		return fmt.Sprint(field.Interface()), true
	}
	return "", false
}
