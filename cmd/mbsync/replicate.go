package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-sync/internal/api"
	"github.com/tamzrod/modbus-sync/internal/config"
	"github.com/tamzrod/modbus-sync/internal/logging"
	"github.com/tamzrod/modbus-sync/internal/metrics"
	"github.com/tamzrod/modbus-sync/internal/poller"
	"github.com/tamzrod/modbus-sync/internal/status"
	"github.com/tamzrod/modbus-sync/internal/writer"
)

// newReplicateCmd creates the replicate command.
func newReplicateCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replicate <config.yaml>",
		Short: "Poll source devices and mirror their data into targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var logLevel string
			if cmd.Flags().Changed("log-level") {
				logLevel = o.logLevel
			}
			return runReplicate(ctx, args[0], logLevel)
		},
	}
}

// runReplicate runs one pipeline per unit until ctx is done.
// A non-empty logLevel overrides the configured one.
func runReplicate(ctx context.Context, path, logLevel string) error {
	// --------------------
	// Load + validate config
	// --------------------

	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(c)

	if logLevel != "" {
		c.Logging.Level = logLevel
	}

	log := logging.New(logging.Config{Level: c.Logging.Level, Format: c.Logging.Format})
	m := metrics.New()

	board := status.NewBoard()

	if c.HTTP.Listen != "" {
		srv := api.NewServer(c.HTTP.Listen, board, m.Handler(), log)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	// --------------------
	// Build per-unit pipelines
	// --------------------

	ctx, cancel := context.WithCancel(ctx)

	var (
		wg      sync.WaitGroup
		closers []func() error
	)
	// stop the goroutines before releasing what they use
	defer func() {
		cancel()
		wg.Wait()
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	for _, unit := range c.Units {
		ulog := log.With("unit", unit.ID)

		// ---- poller ----
		p, err := poller.Build(unit, log, m.Connection(unit.ID+"/source"))
		if err != nil {
			return fmt.Errorf("poller build failed (unit=%s): %w", unit.ID, err)
		}
		closers = append(closers, p.Close)

		// ---- writer plan ----
		plan, err := writer.BuildPlan(unit)
		if err != nil {
			return fmt.Errorf("writer plan failed (unit=%s): %w", unit.ID, err)
		}

		// ---- writer clients (DATA + STATUS) ----
		clients, closeWriters, err := writer.BuildEndpointClients(unit, log, m.Connection(unit.ID+"/targets"))
		if err != nil {
			return fmt.Errorf("writer clients failed (unit=%s): %w", unit.ID, err)
		}
		closers = append(closers, closeWriters)

		loop := &unitLoop{
			id:      unit.ID,
			data:    writer.New(plan, clients),
			tracker: status.NewTracker(),
			publish: publishers{m, board},
			log:     ulog,
		}
		if sw, enabled := writer.NewDeviceStatusWriter(plan, clients); enabled {
			loop.status = sw
		}

		// ---- channel between poller and writer ----
		out := make(chan poller.PollResult)

		wg.Add(2)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			loop.run(ctx, out, ticker.C)
		}()
		go func() {
			defer wg.Done()
			p.Run(ctx, out)
		}()

		ulog.Info("unit started", "source", unit.Source.Endpoint, "reads", len(unit.Reads), "targets", len(unit.Targets))
	}

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// statusPublisher receives every status change.
// *metrics.Collector and *status.Board implement it.
type statusPublisher interface {
	SetUnitStatus(unit string, health, lastErrorCode, secondsInError uint16)
}

type publishers []statusPublisher

func (ps publishers) SetUnitStatus(unit string, health, lastErrorCode, secondsInError uint16) {
	for _, p := range ps {
		p.SetUnitStatus(unit, health, lastErrorCode, secondsInError)
	}
}

// unitLoop delivers poll results and owns the unit's status state.
type unitLoop struct {
	id      string
	data    writer.Writer
	status  writer.StatusWriter // nil => status block disabled
	tracker *status.Tracker
	publish statusPublisher
	log     *slog.Logger
}

func (u *unitLoop) run(ctx context.Context, in <-chan poller.PollResult, tick <-chan time.Time) {
	// Full block write on start (identity re-assert).
	u.deliver(u.tracker.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			if res.Err != nil {
				u.log.Warn("poll failed", "error", res.Err)
			}

			// --- data delivery ---
			if err := u.data.Write(res); err != nil {
				u.log.Warn("writer error", "error", err)
			}

			// --- status update ---
			if snap, changed := u.tracker.Observe(res.Err); changed {
				u.deliver(snap)
			}

		case <-tick:
			if snap, changed := u.tracker.Tick(); changed {
				u.deliver(snap)
			}
		}
	}
}

func (u *unitLoop) deliver(s status.Snapshot) {
	u.publish.SetUnitStatus(u.id, s.Health, s.LastErrorCode, s.SecondsInError)

	if u.status == nil {
		return
	}
	if err := u.status.WriteStatus(s); err != nil {
		u.log.Warn("status write failed", "error", err)
	}
}
