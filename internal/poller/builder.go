// internal/poller/builder.go
package poller

import (
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-sync/internal/bridge"
	cfg "github.com/tamzrod/modbus-sync/internal/config"
	"github.com/tamzrod/modbus-sync/internal/reactor"
)

// Build constructs a Poller and wires the bridge client lifecycle.
// Connection is reused while healthy.
// On a failed cycle, Poller discards the client and uses factory on a future tick.
func Build(u cfg.UnitConfig, log *slog.Logger, obs reactor.Observer) (*Poller, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("unit", u.ID)

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		c, err := bridge.Connect(u.Source, log, obs)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, err
	}

	reads := make([]ReadBlock, 0, len(u.Reads))
	for _, r := range u.Reads {
		reads = append(reads, ReadBlock{
			FC:       r.FC,
			Address:  r.Address,
			Quantity: r.Quantity,
		})
	}

	return New(
		Config{
			UnitID:   u.ID,
			Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
			Reads:    reads,
		},
		client,
		factory,
	)
}
