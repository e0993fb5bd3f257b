// Package repositorycache serves domain entities through a caller owned cache, falling
// back to a remote Source on a miss.
//
// # Basic Usage
//
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	users := repositorycache.New[domain.User](remote.NewEntitySource[domain.User](db, "id"), svc, nil)
//
//	user, err := users.Get(ctx, "u1")   // remote fetch, stored under user::GetByID::u1
//	user, err = users.Get(ctx, "u1")    // served from the cache
//	result := users.Find(ctx, "u1")     // same lookup as an outcome.Outcome[domain.User]
//
// # Lookup Rules
//
//  1. A cached id is returned without calling the source.
//  2. Concurrent misses for one id share a single source call.
//  3. A successful fetch is stored; a failed fetch is not, so the next lookup retries.
//  4. Each caller stops waiting when its own context is done.
//
// # Errors
//
// Failures are go-errors values so callers can tell them apart:
//
//   - not_found: the source returned ErrNotFound or sql.ErrNoRows
//   - external (retryable): network or backend failure
//   - bad_input: the row could not be decoded
//   - operation: the context was canceled or timed out
//
// Errors that already carry a go-errors category are returned unchanged.
//
// # Invalidation
//
// Entries never expire on their own. Save drops the entry for the saved id, Invalidate
// and InvalidateTag drop entries explicitly, and Reset drops every entry in the
// repository namespace. Reads made with a context from WithCacheTags are registered
// under those tags:
//
//	feedCtx := repositorycache.WithCacheTags(ctx, "feed")
//	posts.Get(feedCtx, id)
//	posts.InvalidateTag(ctx, "feed")
package repositorycache
