package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/tamzrod/modbus-sync/internal/bridge"
	cfg "github.com/tamzrod/modbus-sync/internal/config"
	"github.com/tamzrod/modbus-sync/internal/logging"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	conn       cfg.ConnectionConfig
	serial     cfg.SerialConfig
	logLevel   string
	logFormat  string
	jsonOutput bool
}

func (o *globalOptions) logger() *slog.Logger {
	return logging.New(logging.Config{Level: o.logLevel, Format: o.logFormat})
}

// connection returns the normalized connection described by the flags.
func (o *globalOptions) connection() (cfg.ConnectionConfig, error) {
	c := o.conn
	switch c.Transport {
	case cfg.TransportTCP:
	case cfg.TransportRTU:
		s := o.serial
		c.Serial = &s
	default:
		return c, fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if c.Endpoint == "" {
		return c, fmt.Errorf("endpoint required")
	}
	cfg.NormalizeConnection(&c)
	return c, nil
}

// withClient connects, runs fn and closes the client.
func (o *globalOptions) withClient(fn func(c *bridge.Client) error) error {
	cc, err := o.connection()
	if err != nil {
		return err
	}

	c, err := bridge.Connect(cc, o.logger(), nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cc.Endpoint, err)
	}
	defer c.Close()

	return fn(c)
}

// print writes v as JSON or through the plain printer.
func (o *globalOptions) print(w io.Writer, v any, plain func(io.Writer)) error {
	if o.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	plain(w)
	return nil
}
