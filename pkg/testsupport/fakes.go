package testsupport

import (
	"context"
	"database/sql"
	"sync"
)

// FakeSource is an in-memory entity source that counts fetches per id.
// Missing ids fail with sql.ErrNoRows.
type FakeSource[T any] struct {
	mu       sync.Mutex
	records  map[string]T
	failures map[string]error
	failAll  error
	calls    map[string]int
	gate     chan struct{}
	saved    []T

	// IDOf extracts the id used to store saved records. Save only records the call
	// when it is nil.
	IDOf func(T) string
}

// NewFakeSource creates a source seeded with records.
func NewFakeSource[T any](records map[string]T) *FakeSource[T] {
	f := &FakeSource[T]{
		records:  make(map[string]T, len(records)),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for id, rec := range records {
		f.records[id] = rec
	}
	return f
}

// FetchByID returns the record for id.
func (f *FakeSource[T]) FetchByID(ctx context.Context, id string) (T, error) {
	var zero T

	f.mu.Lock()
	f.calls[id]++
	gate := f.gate
	err := f.failures[id]
	if err == nil {
		err = f.failAll
	}
	rec, ok := f.records[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, sql.ErrNoRows
	}
	return rec, nil
}

// Save stores record under IDOf(record).
func (f *FakeSource[T]) Save(ctx context.Context, record T) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		var zero T
		return zero, f.failAll
	}
	f.saved = append(f.saved, record)
	if f.IDOf != nil {
		f.records[f.IDOf(record)] = record
	}
	return record, nil
}

// Put replaces the record stored for id.
func (f *FakeSource[T]) Put(id string, record T) {
	f.mu.Lock()
	f.records[id] = record
	f.mu.Unlock()
}

// Fail makes fetches for id return err. A nil err clears the failure.
func (f *FakeSource[T]) Fail(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, id)
		return
	}
	f.failures[id] = err
}

// FailAll makes every fetch and save return err. A nil err clears it.
func (f *FakeSource[T]) FailAll(err error) {
	f.mu.Lock()
	f.failAll = err
	f.mu.Unlock()
}

// Block holds every subsequent fetch until the returned release func is called.
func (f *FakeSource[T]) Block() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times id was fetched.
func (f *FakeSource[T]) Calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// TotalCalls returns the number of fetches across all ids.
func (f *FakeSource[T]) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Saved returns the records passed to Save.
func (f *FakeSource[T]) Saved() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]T(nil), f.saved...)
}

// RangeCall records the bounds of one FakeRange.Range call.
type RangeCall struct {
	From, To int
}

// FakeRange serves inclusive ranges over a fixed slice of rows.
type FakeRange[T any] struct {
	mu    sync.Mutex
	rows  []T
	err   error
	calls []RangeCall
}

// NewFakeRange creates a range query over rows.
func NewFakeRange[T any](rows []T) *FakeRange[T] {
	return &FakeRange[T]{rows: append([]T(nil), rows...)}
}

// Range returns rows[from:to+1], clamped to the available rows.
func (f *FakeRange[T]) Range(ctx context.Context, from, to int) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, RangeCall{From: from, To: to})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}

	if from >= len(f.rows) || to < from {
		return []T{}, nil
	}
	end := to + 1
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return append([]T(nil), f.rows[from:end]...), nil
}

// Fail makes every Range call return err. A nil err clears it.
func (f *FakeRange[T]) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Calls returns the bounds of every Range call so far.
func (f *FakeRange[T]) Calls() []RangeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RangeCall(nil), f.calls...)
}
