package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// MemoryStore is an explicitly owned map cache. Entries never expire and are never
// evicted; they are replaced by a later successful fetch or removed by invalidation.
//
// Every fetched key carries a generation that invalidation bumps. A fetch only stores
// its result when the generation it started under is still current, so a fetch that
// was in flight during an invalidation cannot write the old value back.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]any
	gens    map[string]uint64
	flight  singleflight.Group
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
	}
}

// GetOrFetch returns the entry for key or runs fetchFn once for all concurrent callers
// missing the same key. Each caller stops waiting when its own ctx is done.
func (m *MemoryStore) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	for {
		if v, ok := m.lookup(key); ok {
			return v, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ch := m.flight.DoChan(key, func() (any, error) {
			gen := m.generation(key)
			v, err := callFetch(ctx, fetchFn)
			if err != nil {
				return nil, err
			}
			m.mu.Lock()
			if m.gens[key] == gen {
				m.entries[key] = v
			}
			m.mu.Unlock()
			return v, nil
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			// the shared fetch ran under another caller's context
			if res.Shared && isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return res.Val, res.Err
		}
	}
}

// generation registers key and returns its current generation.
func (m *MemoryStore) generation(key string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen, ok := m.gens[key]
	if !ok {
		m.gens[key] = 0
	}
	return gen
}

// invalidate drops key and bumps its generation. Callers hold m.mu.
func (m *MemoryStore) invalidate(key string) {
	delete(m.entries, key)
	if _, ok := m.gens[key]; ok {
		m.gens[key]++
	}
	m.flight.Forget(key)
}

func (m *MemoryStore) lookup(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Delete removes a single entry.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	m.invalidate(key)
	m.mu.Unlock()
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (m *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// gens also holds keys whose first fetch is still running
	for key := range m.gens {
		if strings.HasPrefix(key, prefix) {
			m.invalidate(key)
		}
	}
	return nil
}

// InvalidateKeys removes multiple entries.
func (m *MemoryStore) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		_ = m.Delete(ctx, key)
	}
	return nil
}

// Reset drops every entry.
func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.gens {
		m.invalidate(key)
	}
	m.entries = make(map[string]any)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
