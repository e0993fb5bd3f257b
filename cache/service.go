package cache

import (
	"context"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeInvalidResultType marks GetOrFetch errors for a cached value of the wrong type.
const TextCodeInvalidResultType = "INVALID_RESULT_TYPE"

// ErrInvalidResultType is the cause of the error GetOrFetch returns when the cached
// value cannot be converted to the requested type. This usually means two entity types
// share a key. Match it with errors.Is.
var ErrInvalidResultType = errors.New("cached value has unexpected type")

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations used by cached repositories.
// Implementations own their entries: nothing is shared through package level state.
//
// GetOrFetch must coalesce concurrent misses for the same key into a single call to
// fetchFn, and must not store a value when fetchFn fails.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
	// Reset drops every entry.
	Reset(ctx context.Context) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T

	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}

	// a nil interface is a valid cached value for interface and pointer types
	if result == nil {
		return zero, nil
	}

	typed, ok := result.(T)
	if !ok {
		return zero, goerrors.Wrap(ErrInvalidResultType, goerrors.CategoryInternal, fmt.Sprintf("key %s holds %T, want %T", key, result, zero)).
			WithTextCode(TextCodeInvalidResultType)
	}
	return typed, nil
}
