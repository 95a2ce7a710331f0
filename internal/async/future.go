// internal/async/future.go
package async

import (
	"context"
	"errors"
)

// ErrEmptyFuture is returned when resolving a zero Future.
var ErrEmptyFuture = errors.New("async: empty future")

// Future is a suspended exchange.
// Nothing happens until Resolve is called; each Resolve runs the exchange once.
type Future[T any] struct {
	op  string
	run func(ctx context.Context) (T, error)
}

// NewFuture wraps run as a named suspended computation.
func NewFuture[T any](op string, run func(ctx context.Context) (T, error)) Future[T] {
	return Future[T]{op: op, run: run}
}

// Failed returns a future that resolves to err without any I/O.
func Failed[T any](op string, err error) Future[T] {
	return NewFuture(op, func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

// Then chains fn onto f. The result keeps f's operation name.
func Then[T, U any](f Future[T], fn func(T) (U, error)) Future[U] {
	return NewFuture(f.op, func(ctx context.Context) (U, error) {
		v, err := f.Resolve(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	})
}

// Op names the operation this future performs.
func (f Future[T]) Op() string { return f.op }

// Resolve runs the computation to completion on the calling goroutine.
func (f Future[T]) Resolve(ctx context.Context) (T, error) {
	if f.run == nil {
		var zero T
		return zero, ErrEmptyFuture
	}
	return f.run(ctx)
}
