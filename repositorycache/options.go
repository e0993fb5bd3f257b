package repositorycache

import "log/slog"

// Observer receives per-lookup cache events. Implementations must be safe for
// concurrent use.
type Observer interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
	FetchFailed(namespace string, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)           {}
func (nopObserver) CacheMiss(string)          {}
func (nopObserver) FetchFailed(string, error) {}

type settings struct {
	namespace string
	observer  Observer
	logger    *slog.Logger
	idOf      func(record any) (string, bool)
}

// Option configures a CachedRepository.
type Option func(*settings)

// WithNamespace overrides the key namespace derived from the entity type.
func WithNamespace(namespace string) Option {
	return func(s *settings) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithObserver reports hits, misses and failed fetches to o.
// A lookup that waited on another caller's fetch counts as a hit.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger used for misses and failed fetches.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDOf sets the id Save invalidates for a saved record. It must return the id
// the source is looked up by. Without it the record's ID field is used.
func WithIDOf[T any](idOf func(T) string) Option {
	return func(s *settings) {
		if idOf == nil {
			return
		}
		s.idOf = func(record any) (string, bool) {
			typed, ok := record.(T)
			if !ok {
				return "", false
			}
			id := idOf(typed)
			return id, id != ""
		}
	}
}
