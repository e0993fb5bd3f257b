package usecase

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/outcome"
)

// Flow is a lazily started stream that yields exactly one Outcome.
// Nothing runs until Collect or Await is called, and each call runs the
// operation again.
type Flow[T any] struct {
	run func(ctx context.Context) (T, error)
}

// NewFlow wraps op in a Flow.
func NewFlow[T any](op func(ctx context.Context) (T, error)) Flow[T] {
	return Flow[T]{run: op}
}

// Collect starts the operation and returns a channel that receives its single
// Outcome and is then closed. The channel is buffered, so an abandoned
// receiver does not leak the goroutine.
func (f Flow[T]) Collect(ctx context.Context) <-chan outcome.Outcome[T] {
	ch := make(chan outcome.Outcome[T], 1)
	go func() {
		defer close(ch)
		ch <- f.result(ctx)
	}()
	return ch
}

// Await runs the operation and waits for its Outcome or for ctx to end,
// whichever happens first.
func (f Flow[T]) Await(ctx context.Context) outcome.Outcome[T] {
	select {
	case result := <-f.Collect(ctx):
		return result
	case <-ctx.Done():
		return outcome.Failure[T](canceled(ctx.Err()), "operation canceled")
	}
}

func (f Flow[T]) result(ctx context.Context) outcome.Outcome[T] {
	if f.run == nil {
		return outcome.Failure[T](goerrors.New("flow has no operation", goerrors.CategoryInternal), "")
	}
	if err := ctx.Err(); err != nil {
		return outcome.Failure[T](canceled(err), "operation canceled")
	}
	return outcome.FromResult(f.run(ctx))
}

func canceled(cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryOperation, "operation canceled").
		WithTextCode(TextCodeCanceled)
}
