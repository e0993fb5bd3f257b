package cacheinfra

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/viccon/sturdyc"
)

// sturdycService wraps a sturdyc client providing caching behaviour.
// sturdyc tracks in-flight fetches per key, so concurrent misses share one call.
//
// Entries are stored under the caller's key suffixed with its generation.
// Invalidation bumps the generation, so later callers start a fresh fetch and a
// fetch that was in flight stores under a key nobody reads, which is then dropped.
type sturdycService struct {
	client *sturdyc.Client[any]

	mu   sync.Mutex
	gens map[string]uint64
}

// NewSturdycService creates a new sturdyc cache service adapter.
// It validates the configuration and initializes a sturdyc client with the provided settings.
//
// Version compatibility note: This implementation assumes sturdyc v1.x API.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client, gens: make(map[string]uint64)}, nil
}

// GetOrFetch returns the cached value for key, or runs fetchFn and stores its result.
// fetchFn must be a func(context.Context) (T, error). Failed fetches are not stored.
// Each caller stops waiting when its own ctx is done.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gen := s.generation(key)
		stored := versionedKey(key, gen)
		if v, ok := s.client.Get(stored); ok {
			return v, nil
		}

		ch := make(chan fetchResult, 1)
		go func() {
			v, err := s.client.GetOrFetch(ctx, stored, func(ctx context.Context) (any, error) {
				return callFetch(ctx, fetchFn)
			})
			if err == nil && s.stale(key, gen) {
				s.client.Delete(stored)
			}
			ch <- fetchResult{val: v, err: err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			// the shared fetch ran under another caller's context
			if isContextErr(res.err) && ctx.Err() == nil && attempt < maxSharedRetries {
				continue
			}
			return res.val, res.err
		}
	}
}

// Delete removes a single entry.
func (s *sturdycService) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *sturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.gens {
		if strings.HasPrefix(key, prefix) {
			s.invalidate(key)
		}
	}
	return nil
}

// InvalidateKeys removes multiple entries.
func (s *sturdycService) InvalidateKeys(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.invalidate(key)
	}
	return nil
}

// Reset drops every entry.
func (s *sturdycService) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.gens {
		s.invalidate(key)
	}
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
	return nil
}

// generation registers key and returns its current generation.
func (s *sturdycService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.gens[key]
	if !ok {
		s.gens[key] = 0
	}
	return gen
}

func (s *sturdycService) stale(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key] != gen
}

// invalidate drops the current entry for key and bumps its generation. Callers hold s.mu.
func (s *sturdycService) invalidate(key string) {
	gen, ok := s.gens[key]
	if !ok {
		return
	}
	s.client.Delete(versionedKey(key, gen))
	s.gens[key] = gen + 1
}

func versionedKey(key string, gen uint64) string {
	return key + "@" + strconv.FormatUint(gen, 10)
}
