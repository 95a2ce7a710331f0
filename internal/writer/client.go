// internal/writer/client.go
package writer

import (
	"errors"
	"sync"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-sync/internal/bridge"
	"github.com/tamzrod/modbus-sync/internal/frame"
)

// endpointClient is the exact contract the writers use.
type endpointClient interface {
	WriteBits(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// bridgeConn is the part of *bridge.Client an EndpointClient drives.
type bridgeConn interface {
	bridge.Writer
	SetSlave(id byte)
	Close() error
}

// EndpointClient is a single connection to one target endpoint.
// It serializes writes because it switches the unit id per write.
// A transport failure drops the connection; the next write dials again.
// Device exceptions and rejected requests keep it.
type EndpointClient struct {
	mu   sync.Mutex
	dial func() (bridgeConn, error)
	conn bridgeConn
}

func newEndpointClient(dial func() (bridgeConn, error)) (*EndpointClient, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	return &EndpointClient{dial: dial, conn: conn}, nil
}

// Close releases the current connection, if any.
func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// WriteBits writes coils (FC 15).
func (c *EndpointClient) WriteBits(unitID uint8, addr uint16, bits []bool) error {
	return c.do(unitID, func(w bridge.Writer) error {
		return w.WriteMultipleCoils(addr, bits)
	})
}

// WriteRegisters writes holding registers (FC 16).
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	return c.do(unitID, func(w bridge.Writer) error {
		return w.WriteMultipleRegisters(addr, regs)
	})
}

func (c *EndpointClient) do(unitID uint8, fn func(bridge.Writer) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		conn, err := c.dial()
		if err != nil {
			return err
		}
		c.conn = conn
	}

	c.conn.SetSlave(unitID)

	if err := fn(c.conn); err != nil {
		if linkBroken(err) {
			_ = c.conn.Close()
			c.conn = nil
		}
		return err
	}
	return nil
}

// linkBroken reports whether err leaves the connection unusable.
// An exception response or a request refused before encoding does not.
func linkBroken(err error) bool {
	var mbErr *modbus.ModbusError
	switch {
	case errors.As(err, &mbErr),
		errors.Is(err, frame.ErrInvalidQuantity),
		errors.Is(err, frame.ErrAddressOverflow):
		return false
	}
	return true
}
