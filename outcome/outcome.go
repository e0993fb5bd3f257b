// Package outcome provides a tri-state result wrapper used at every boundary between
// the UI/host layer and the data layer.
//
// An Outcome is exactly one of:
//
//   - Success: holds a value of type T
//   - Failure: holds an error and a human readable message
//   - Loading: holds nothing, signals that an operation is in flight
//
// Loading is a transient UI signal, not a terminal result. Fold refuses to reduce it and
// returns ErrFoldLoading instead, callers are expected to filter it out first.
//
// The zero value of Outcome is Loading.
package outcome

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Kind identifies the active variant of an Outcome.
type Kind uint8

const (
	KindLoading Kind = iota
	KindSuccess
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "loading"
	}
}

// TextCodeInvalidState marks the error Fold returns for a Loading outcome.
const TextCodeInvalidState = "INVALID_STATE"

// ErrFoldLoading is the cause of the error Fold returns for a Loading outcome.
// Match it with errors.Is; every call gets its own *goerrors.Error around it.
var ErrFoldLoading = errors.New("outcome is loading")

// Outcome is an immutable tri-state value.
type Outcome[T any] struct {
	kind    Kind
	value   T
	err     error
	message string
}

// Success wraps a value.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{kind: KindSuccess, value: value}
}

// Failure wraps an error with a human readable message. When message is empty it is
// derived from err.
func Failure[T any](err error, message string) Outcome[T] {
	if message == "" {
		message = messageOf(err)
	}
	return Outcome[T]{kind: KindFailure, err: err, message: message}
}

// Loading returns the in-flight variant.
func Loading[T any]() Outcome[T] {
	return Outcome[T]{kind: KindLoading}
}

// FromResult adapts a Go style (value, error) pair.
func FromResult[T any](value T, err error) Outcome[T] {
	if err != nil {
		return Failure[T](err, "")
	}
	return Success(value)
}

func (o Outcome[T]) Kind() Kind { return o.kind }

func (o Outcome[T]) IsSuccess() bool { return o.kind == KindSuccess }

func (o Outcome[T]) IsError() bool { return o.kind == KindFailure }

func (o Outcome[T]) IsLoading() bool { return o.kind == KindLoading }

// GetOrNil returns a pointer to a copy of the success payload, nil otherwise.
func (o Outcome[T]) GetOrNil() *T {
	if o.kind != KindSuccess {
		return nil
	}
	v := o.value
	return &v
}

// GetOrDefault returns the success payload or fallback.
func (o Outcome[T]) GetOrDefault(fallback T) T {
	if o.kind != KindSuccess {
		return fallback
	}
	return o.value
}

// Err returns the failure error, nil for Success and Loading.
func (o Outcome[T]) Err() error {
	if o.kind != KindFailure {
		return nil
	}
	return o.err
}

// Message returns the failure message, empty for Success and Loading.
func (o Outcome[T]) Message() string {
	if o.kind != KindFailure {
		return ""
	}
	return o.message
}

// OnSuccess runs action with the payload when o is a Success and returns o unchanged.
func (o Outcome[T]) OnSuccess(action func(T)) Outcome[T] {
	if o.kind == KindSuccess && action != nil {
		action(o.value)
	}
	return o
}

// OnError runs action when o is a Failure and returns o unchanged.
func (o Outcome[T]) OnError(action func(err error, message string)) Outcome[T] {
	if o.kind == KindFailure && action != nil {
		action(o.err, o.message)
	}
	return o
}

// OnLoading runs action when o is Loading and returns o unchanged.
func (o Outcome[T]) OnLoading(action func()) Outcome[T] {
	if o.kind == KindLoading && action != nil {
		action()
	}
	return o
}

func (o Outcome[T]) String() string {
	switch o.kind {
	case KindFailure:
		return "Failure(" + o.message + ")"
	case KindSuccess:
		return "Success"
	default:
		return "Loading"
	}
}

// Map transforms the payload of a Success. Failure and Loading pass through with the
// same variant and payload.
func Map[T, R any](o Outcome[T], transform func(T) R) Outcome[R] {
	switch o.kind {
	case KindSuccess:
		return Success(transform(o.value))
	case KindFailure:
		return Outcome[R]{kind: KindFailure, err: o.err, message: o.message}
	default:
		return Loading[R]()
	}
}

// Fold reduces a terminal outcome to a single value. Loading yields ErrFoldLoading.
func Fold[T, R any](o Outcome[T], onSuccess func(T) R, onError func(err error, message string) R) (R, error) {
	switch o.kind {
	case KindSuccess:
		return onSuccess(o.value), nil
	case KindFailure:
		return onError(o.err, o.message), nil
	default:
		var zero R
		return zero, goerrors.Wrap(ErrFoldLoading, goerrors.CategoryOperation, "cannot fold a loading outcome").
			WithTextCode(TextCodeInvalidState)
	}
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	return err.Error()
}
