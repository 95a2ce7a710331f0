// internal/bridge/connect.go
package bridge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-sync/internal/async"
	cfg "github.com/tamzrod/modbus-sync/internal/config"
	"github.com/tamzrod/modbus-sync/internal/logging"
	"github.com/tamzrod/modbus-sync/internal/reactor"
	"github.com/tamzrod/modbus-sync/internal/transport/rtu"
	"github.com/tamzrod/modbus-sync/internal/transport/tcp"
)

// Connect opens the transport described by c and returns a Client owning it.
// c is expected to be normalized. ONE attempt per call.
func Connect(c cfg.ConnectionConfig, log *slog.Logger, obs reactor.Observer) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("endpoint", c.Endpoint)
	timeout := time.Duration(c.TimeoutMs) * time.Millisecond

	var h async.Handler

	switch c.Transport {
	case cfg.TransportTCP, "":
		th, err := tcp.Dial(tcp.Config{
			Endpoint: c.Endpoint,
			UnitID:   c.UnitID,
			Timeout:  timeout,
			Logger:   logging.TraceLogger(log),
		})
		if err != nil {
			return nil, err
		}
		h = th

	case cfg.TransportRTU:
		sc := cfg.SerialConfig{}
		if c.Serial != nil {
			sc = *c.Serial
		}
		rh, err := rtu.Open(rtu.Config{
			Device:   c.Endpoint,
			UnitID:   c.UnitID,
			BaudRate: sc.BaudRate,
			DataBits: sc.DataBits,
			Parity:   sc.Parity,
			StopBits: sc.StopBits,
			Timeout:  timeout,
			Logger:   logging.TraceLogger(log),
		})
		if err != nil {
			return nil, err
		}
		h = rh

	default:
		return nil, fmt.Errorf("bridge: unsupported transport %q", c.Transport)
	}

	opts := []reactor.Option{reactor.WithLogger(log)}
	if obs != nil {
		opts = append(opts, reactor.WithObserver(obs))
	}
	return New(async.New(h), opts...), nil
}
