// internal/transport/tcp/handler.go
package tcp

import (
	"errors"
	"log"
	"time"

	"github.com/goburrow/modbus"
)

// Handler is a Modbus TCP packager + transporter bound to one endpoint.
type Handler struct {
	*modbus.TCPClientHandler
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration

	// Logger receives raw ADU traces when set.
	Logger *log.Logger
}

// Dial creates a connected Modbus TCP handler.
// The connection is established eagerly so misconfiguration fails fast.
func Dial(cfg Config) (*Handler, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus tcp: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.SlaveId = cfg.UnitID
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	h.Logger = cfg.Logger

	if err := h.Connect(); err != nil {
		return nil, err
	}
	return &Handler{TCPClientHandler: h}, nil
}

// SetSlave selects the unit id stamped into subsequent MBAP headers.
func (h *Handler) SetSlave(id byte) {
	h.SlaveId = id
}
