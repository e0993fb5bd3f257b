// Package cache provides the read-through cache service and key serialization used by
// cached repositories.
//
// # Overview
//
//   - CacheService: read-through lookups plus explicit invalidation (Delete,
//     DeleteByPrefix, InvalidateKeys, Reset)
//   - KeySerializer: builds "::" separated keys from a method name and its arguments
//   - GetOrFetch: typed wrapper over CacheService.GetOrFetch
//
// A CacheService is created by the caller and handed to each repository that uses it.
// There is no package level cache.
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	user, err := cache.GetOrFetch(ctx, svc, "user::GetByID::u1", func(ctx context.Context) (domain.User, error) {
//		return source.FetchByID(ctx, "u1")
//	})
//
// # Backends
//
// BackendSturdyc is the default: a sharded cache with capacity based eviction. The
// DefaultConfig TTL is NeverExpire, so entries stay until evicted for capacity or
// invalidated. BackendMemory keeps every entry until it is invalidated.
//
// Both backends coalesce concurrent misses for the same key into one fetch and never
// store a failed fetch, so a later lookup always reaches the source again.
//
// # Keys
//
// Values implementing fmt.Stringer use their String form, so uuid.UUID and time.Time
// ids produce readable keys. Function arguments are rendered by address and are only
// stable within one process.
package cache
