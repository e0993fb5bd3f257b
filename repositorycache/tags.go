package repositorycache

import (
	"context"
	"sync"
)

type cacheTagsContextKey struct{}

// WithCacheTags attaches cache tags to ctx. Reads made with the returned context are
// registered under each tag, and Save called with it drops every entry under those tags.
func WithCacheTags(ctx context.Context, tags ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(tags) == 0 {
		return ctx
	}

	combined := dedupeStrings(append(cacheTagsFromContext(ctx), tags...))
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, cacheTagsContextKey{}, combined)
}

func cacheTagsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(cacheTagsContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// tagIndex maps tags to the keys read under them.
type tagIndex struct {
	mu   sync.Mutex
	keys map[string]map[string]struct{}
}

func newTagIndex() *tagIndex {
	return &tagIndex{keys: make(map[string]map[string]struct{})}
}

func (t *tagIndex) add(tag, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.keys[tag]
	if !ok {
		set = make(map[string]struct{})
		t.keys[tag] = set
	}
	set[key] = struct{}{}
}

// take removes tag and returns its keys.
func (t *tagIndex) take(tag string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.keys[tag]
	delete(t.keys, tag)
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	return out
}

// remove drops key from every tag.
func (t *tagIndex) remove(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for tag, set := range t.keys {
		delete(set, key)
		if len(set) == 0 {
			delete(t.keys, tag)
		}
	}
}

func (t *tagIndex) reset() {
	t.mu.Lock()
	t.keys = make(map[string]map[string]struct{})
	t.mu.Unlock()
}
