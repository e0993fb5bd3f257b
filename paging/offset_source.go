package paging

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/outcome"
)

const (
	TextCodeInvalidLoad = "INVALID_LOAD_PARAMS"
	TextCodeLoadFailed  = "PAGE_LOAD_FAILED"
)

// RangeQuery fetches the rows at positions from..to, both inclusive, in backend order.
type RangeQuery[T any] interface {
	Range(ctx context.Context, from, to int) ([]T, error)
}

// RangeFunc adapts a plain function to RangeQuery.
type RangeFunc[T any] func(ctx context.Context, from, to int) ([]T, error)

// Range calls f.
func (f RangeFunc[T]) Range(ctx context.Context, from, to int) ([]T, error) {
	return f(ctx, from, to)
}

// Observer receives page load events.
type Observer interface {
	PageLoaded(source string, rows int)
	PageFailed(source string, err error)
}

type nopObserver struct{}

func (nopObserver) PageLoaded(string, int)   {}
func (nopObserver) PageFailed(string, error) {}

// OffsetSource turns a RangeQuery into offset keyed pages.
// It holds no per-session state; the host must not issue overlapping loads it cannot
// reconcile.
type OffsetSource[T any] struct {
	query          RangeQuery[T]
	name           string
	endOnEmptyOnly bool
	observer       Observer
	logger         *slog.Logger
}

// Option configures an OffsetSource.
type Option func(*options)

type options struct {
	name           string
	endOnEmptyOnly bool
	observer       Observer
	logger         *slog.Logger
}

// WithName labels the source in errors, logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithEndOnEmptyOnly keeps NextKey set for short pages; only an empty page ends the list.
// By default any page shorter than the load size ends it.
func WithEndOnEmptyOnly() Option {
	return func(o *options) { o.endOnEmptyOnly = true }
}

// WithObserver reports page loads to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger sets the logger used for failed loads.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOffsetSource creates a source over query.
func NewOffsetSource[T any](query RangeQuery[T], opts ...Option) *OffsetSource[T] {
	o := options{name: "offset", observer: nopObserver{}, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &OffsetSource[T]{
		query:          query,
		name:           o.name,
		endOnEmptyOnly: o.endOnEmptyOnly,
		observer:       o.observer,
		logger:         o.logger,
	}
}

// Name returns the label given with WithName.
func (s *OffsetSource[T]) Name() string {
	return s.name
}

// Load fetches LoadSize rows starting at the key position (0 when Key is nil).
// Rows keep the backend order. PrevKey is nil at position 0 and otherwise points one
// load size back, clamped to 0. NextKey points one load size forward and is nil when
// the page ends the list.
func (s *OffsetSource[T]) Load(ctx context.Context, params LoadParams[int]) (Page[int, T], error) {
	position := 0
	if params.Key != nil {
		position = *params.Key
	}

	if params.LoadSize <= 0 {
		return Page[int, T]{}, goerrors.New(fmt.Sprintf("load size must be positive, got %d", params.LoadSize), goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidLoad)
	}
	if position < 0 {
		return Page[int, T]{}, goerrors.New(fmt.Sprintf("load position must not be negative, got %d", position), goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidLoad)
	}
	// the last row position and the next key must both fit in an int
	if position > math.MaxInt-params.LoadSize {
		return Page[int, T]{}, goerrors.New(fmt.Sprintf("load position %d with size %d overflows", position, params.LoadSize), goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidLoad)
	}

	if err := ctx.Err(); err != nil {
		return Page[int, T]{}, s.failure(ctx, err, position)
	}

	rows, err := s.query.Range(ctx, position, position+params.LoadSize-1)
	if err != nil {
		return Page[int, T]{}, s.failure(ctx, err, position)
	}

	page := Page[int, T]{Data: rows}
	if page.Data == nil {
		page.Data = []T{}
	}
	if position > 0 {
		page.PrevKey = ptr(max(position-params.LoadSize, 0))
	}
	if !s.endsList(len(rows), params.LoadSize) {
		page.NextKey = ptr(position + params.LoadSize)
	}

	s.observer.PageLoaded(s.name, len(rows))
	return page, nil
}

// LoadOutcome is Load wrapped in an Outcome.
func (s *OffsetSource[T]) LoadOutcome(ctx context.Context, params LoadParams[int]) outcome.Outcome[Page[int, T]] {
	return outcome.FromResult(s.Load(ctx, params))
}

// RefreshKey picks the position to reload from after invalidation, based on the page
// closest to the anchor: one past its PrevKey, else one before its NextKey, else nil.
func (s *OffsetSource[T]) RefreshKey(state State[int, T]) *int {
	return RefreshKey(state)
}

// RefreshKey is the offset refresh rule shared by every OffsetSource.
func RefreshKey[T any](state State[int, T]) *int {
	if state.AnchorPosition == nil {
		return nil
	}
	page := state.ClosestPageToPosition(*state.AnchorPosition)
	if page == nil {
		return nil
	}
	if page.PrevKey != nil {
		return ptr(*page.PrevKey + 1)
	}
	if page.NextKey != nil {
		return ptr(*page.NextKey - 1)
	}
	return nil
}

// Pages loads forward from start until the list ends, the consumer stops or a load
// fails. A failure is yielded once and ends the sequence.
func (s *OffsetSource[T]) Pages(ctx context.Context, start, size int) iter.Seq2[Page[int, T], error] {
	return func(yield func(Page[int, T], error) bool) {
		key := ptr(start)
		for key != nil {
			page, err := s.Load(ctx, LoadParams[int]{Key: key, LoadSize: size})
			if err != nil {
				yield(Page[int, T]{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			key = page.NextKey
		}
	}
}

func (s *OffsetSource[T]) endsList(rows, size int) bool {
	if s.endOnEmptyOnly {
		return rows == 0
	}
	return rows < size
}

func (s *OffsetSource[T]) failure(ctx context.Context, cause error, position int) error {
	category := goerrors.CategoryExternal
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		category = goerrors.CategoryOperation
	}

	err := goerrors.New(fmt.Sprintf("load %s at %d", s.name, position), category).
		WithTextCode(TextCodeLoadFailed).
		WithMetadata(map[string]any{"source": s.name, "position": position})
	err.Source = cause

	s.observer.PageFailed(s.name, err)
	s.logger.LogAttrs(ctx, slog.LevelWarn, "page load failed",
		append([]slog.Attr{slog.String("error", cause.Error())}, goerrors.ToSlogAttributes(err)...)...)
	return err
}
