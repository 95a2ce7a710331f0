// internal/transport/rtu/handler.go
package rtu

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"go.bug.st/serial"
)

// ErrTimeout means no complete frame arrived before the deadline.
var ErrTimeout = errors.New("modbus rtu: response timed out")

const (
	rtuMinSize       = 4 // slave + fc + crc
	rtuExceptionSize = 5
	rtuMaxSize       = 256

	// Silence that terminates a frame of unknown length.
	frameGap = 50 * time.Millisecond
)

// port is the slice of serial.Port the handler uses.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

type opener func(name string, mode *serial.Mode) (port, error)

func openSerial(name string, mode *serial.Mode) (port, error) {
	return serial.Open(name, mode)
}

// Config is the serial line setup.
type Config struct {
	Device   string
	UnitID   uint8
	BaudRate int
	DataBits int
	Parity   string // N, E or O
	StopBits int
	Timeout  time.Duration

	// Logger receives raw ADU traces when set.
	Logger *log.Logger
}

// Handler frames PDUs as RTU ADUs (slave id + CRC, from goburrow)
// and moves them over a go.bug.st serial port.
type Handler struct {
	*modbus.RTUClientHandler

	mu      sync.Mutex
	device  string
	mode    *serial.Mode
	timeout time.Duration
	logger  *log.Logger
	open    opener
	port    port
}

// Open creates a handler and opens the serial device.
func Open(cfg Config) (*Handler, error) {
	h, err := newHandler(cfg, openSerial)
	if err != nil {
		return nil, err
	}
	if err := h.Connect(); err != nil {
		return nil, err
	}
	return h, nil
}

func newHandler(cfg Config, open opener) (*Handler, error) {
	if cfg.Device == "" {
		return nil, errors.New("modbus rtu: device required")
	}

	mode, err := serialMode(cfg)
	if err != nil {
		return nil, err
	}

	packager := modbus.NewRTUClientHandler(cfg.Device)
	packager.SlaveId = cfg.UnitID

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}

	return &Handler{
		RTUClientHandler: packager,
		device:           cfg.Device,
		mode:             mode,
		timeout:          timeout,
		logger:           cfg.Logger,
		open:             open,
	}, nil
}

func serialMode(cfg Config) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
	}

	switch cfg.Parity {
	case "", "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		return nil, fmt.Errorf("modbus rtu: unsupported parity %q", cfg.Parity)
	}

	switch cfg.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("modbus rtu: unsupported stop bits %d", cfg.StopBits)
	}

	return mode, nil
}

// SetSlave selects the slave address of subsequent frames.
func (h *Handler) SetSlave(id byte) {
	h.SlaveId = id
}

// Connect opens the serial device if it is not open yet.
func (h *Handler) Connect() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connect()
}

func (h *Handler) connect() error {
	if h.port != nil {
		return nil
	}
	p, err := h.open(h.device, h.mode)
	if err != nil {
		return fmt.Errorf("modbus rtu: open %s: %w", h.device, err)
	}
	h.port = p
	return nil
}

// Close closes the serial device.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.port == nil {
		return nil
	}
	err := h.port.Close()
	h.port = nil
	return err
}

// Send writes one request ADU and reads back one response ADU.
func (h *Handler) Send(aduRequest []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.connect(); err != nil {
		return nil, err
	}

	// Drop stale bytes from an earlier timed-out exchange.
	if err := h.port.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("modbus rtu: reset input: %w", err)
	}

	h.logf("modbus rtu: sending % x", aduRequest)
	if _, err := h.port.Write(aduRequest); err != nil {
		return nil, fmt.Errorf("modbus rtu: write: %w", err)
	}

	aduResponse, err := h.readFrame(responseLength(aduRequest))
	if err != nil {
		return nil, err
	}
	h.logf("modbus rtu: received % x", aduResponse)
	return aduResponse, nil
}

func (h *Handler) readFrame(want int) ([]byte, error) {
	deadline := time.Now().Add(h.timeout)
	buf := make([]byte, 0, rtuMaxSize)
	chunk := make([]byte, rtuMaxSize)

	for {
		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, fmt.Errorf("%w: got %d bytes", ErrTimeout, len(buf))
		}
		if want == 0 && len(buf) > 0 && wait > frameGap {
			wait = frameGap
		}
		if err := h.port.SetReadTimeout(wait); err != nil {
			return nil, err
		}

		n, err := h.port.Read(chunk)
		if err != nil {
			return nil, fmt.Errorf("modbus rtu: read: %w", err)
		}
		buf = append(buf, chunk[:n]...)

		switch {
		case len(buf) >= rtuExceptionSize && buf[1]&0x80 != 0:
			return buf[:rtuExceptionSize], nil
		case want > 0 && len(buf) >= want:
			return buf[:want], nil
		case want == 0 && n == 0 && len(buf) >= rtuMinSize:
			return buf, nil
		case len(buf) >= rtuMaxSize:
			return nil, fmt.Errorf("modbus rtu: frame exceeds %d bytes", rtuMaxSize)
		}
	}
}

func (h *Handler) logf(format string, v ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, v...)
	}
}
