package reactor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sync/internal/async"
)

type recordingObserver struct {
	ops  []string
	errs []error
}

func (r *recordingObserver) Observe(op string, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func TestRunReturnsValue(t *testing.T) {
	obs := &recordingObserver{}
	c := New(WithObserver(obs))

	v, err := Run(c, async.NewFuture("answer", func(context.Context) (int, error) {
		return 42, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []string{"answer"}, obs.ops)
	assert.Nil(t, obs.errs[0])
}

func TestRunPassesErrorThrough(t *testing.T) {
	boom := errors.New("boom")
	obs := &recordingObserver{}
	c := New(WithObserver(obs))

	_, err := Run(c, async.Failed[int]("op", boom))
	assert.Same(t, boom, err)
	assert.Same(t, boom, obs.errs[0])

	// core stays usable after a failure
	v, err := Run(c, async.NewFuture("op", func(context.Context) (string, error) { return "ok", nil }))
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestRunRejectsOverlap(t *testing.T) {
	c := New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := Run(c, async.NewFuture("slow", func(context.Context) (int, error) {
			close(entered)
			<-release
			return 1, nil
		}))
		done <- err
	}()

	<-entered
	started := false
	_, err := Run(c, async.NewFuture("second", func(context.Context) (int, error) {
		started = true
		return 2, nil
	}))
	assert.ErrorIs(t, err, ErrBusy)
	assert.False(t, started, "second exchange must not start while the first is unresolved")

	close(release)
	require.NoError(t, <-done)

	_, err = Run(c, async.NewFuture("third", func(context.Context) (int, error) { return 3, nil }))
	assert.NoError(t, err)
}

func TestRunAfterClose(t *testing.T) {
	c := New()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := Run(c, async.NewFuture("op", func(context.Context) (int, error) { return 1, nil }))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunLogsExchange(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(WithLogger(l))

	_, _ = Run(c, async.Failed[int]("read_coils", errors.New("timeout")))

	out := buf.String()
	assert.Contains(t, out, "exchange start")
	assert.Contains(t, out, "exchange failed")
	assert.Contains(t, out, "op=read_coils")
	assert.Contains(t, out, "exchange_id=")
}
