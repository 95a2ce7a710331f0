// internal/reactor/core.go
package reactor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/modbus-sync/internal/async"
)

var (
	// ErrBusy is returned when Run is entered while another future is in flight.
	ErrBusy = errors.New("reactor: core busy with another exchange")
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("reactor: core closed")
)

// Observer receives one report per resolved future.
type Observer interface {
	Observe(op string, d time.Duration, err error)
}

// Core drives exactly one future at a time to completion on the caller's goroutine.
// It is owned by a single client and is not meant to be shared.
type Core struct {
	ctx    context.Context
	cancel context.CancelFunc

	busy   atomic.Bool
	closed atomic.Bool

	log *slog.Logger
	obs Observer
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the exchange logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver sets the exchange observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Core) {
		c.obs = o
	}
}

// New creates an idle Core.
func New(opts ...Option) *Core {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Core{
		ctx:    ctx,
		cancel: cancel,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close ends the core's lifetime. It is safe to call more than once.
func (c *Core) Close() error {
	c.closed.Store(true)
	c.cancel()
	return nil
}

// Run resolves f and returns its value or error unchanged.
// No second future is started while f is unresolved.
func Run[T any](c *Core, f async.Future[T]) (T, error) {
	var zero T

	if c.closed.Load() {
		return zero, ErrClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return zero, ErrBusy
	}
	defer c.busy.Store(false)

	id := uuid.NewString()
	start := time.Now()

	c.log.Debug("exchange start", "exchange_id", id, "op", f.Op())

	v, err := f.Resolve(c.ctx)
	d := time.Since(start)

	if err != nil {
		c.log.Warn("exchange failed", "exchange_id", id, "op", f.Op(), "duration", d, "err", err)
	} else {
		c.log.Debug("exchange done", "exchange_id", id, "op", f.Op(), "duration", d)
	}

	if c.obs != nil {
		c.obs.Observe(f.Op(), d, err)
	}

	return v, err
}
