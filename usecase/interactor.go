package usecase

import (
	"context"
	"log/slog"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/internal/logging"
	"github.com/goliatone/go-synapse/outcome"
)

const (
	TextCodeCanceled    = "CANCELED"
	TextCodeInvalidArgs = "INVALID_ARGUMENTS"
)

// Operation is the single call an Interactor performs.
type Operation[P, T any] func(ctx context.Context, params P) (T, error)

// Interactor exposes one operation as a Flow. It does not retry and passes the
// operation result through unchanged.
type Interactor[P, T any] struct {
	name     string
	op       Operation[P, T]
	logger   *slog.Logger
	observer Observer
}

// Observer is told about every completed run.
type Observer interface {
	UsecaseCompleted(name string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) UsecaseCompleted(string, time.Duration, error) {}

// Option configures an Interactor.
type Option func(*settings)

type settings struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger logs every invocation at debug level and failures at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver reports run durations and results to obs.
func WithObserver(obs Observer) Option {
	return func(s *settings) {
		if obs != nil {
			s.observer = obs
		}
	}
}

// New creates an Interactor named name around op.
func New[P, T any](name string, op Operation[P, T], opts ...Option) *Interactor[P, T] {
	s := settings{logger: logging.Discard(), observer: nopObserver{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return &Interactor[P, T]{
		name:     name,
		op:       op,
		logger:   s.logger.With(slog.String("usecase", name)),
		observer: s.observer,
	}
}

// Name returns the name given to New.
func (i *Interactor[P, T]) Name() string {
	return i.name
}

// Invoke binds params and returns a Flow that has not started yet.
func (i *Interactor[P, T]) Invoke(params P) Flow[T] {
	return NewFlow(func(ctx context.Context) (T, error) {
		return i.call(ctx, params)
	})
}

// Execute is Invoke(params).Await(ctx).
func (i *Interactor[P, T]) Execute(ctx context.Context, params P) outcome.Outcome[T] {
	return i.Invoke(params).Await(ctx)
}

func (i *Interactor[P, T]) call(ctx context.Context, params P) (T, error) {
	start := time.Now()
	value, err := i.op(ctx, params)
	elapsed := time.Since(start)
	i.observer.UsecaseCompleted(i.name, elapsed, err)

	if err != nil {
		attrs := append([]slog.Attr{
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		}, goerrors.ToSlogAttributes(err)...)
		i.logger.LogAttrs(ctx, slog.LevelWarn, "usecase failed", attrs...)
		return value, err
	}

	i.logger.LogAttrs(ctx, slog.LevelDebug, "usecase completed", slog.Duration("elapsed", elapsed))
	return value, nil
}
