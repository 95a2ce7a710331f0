// internal/bridge/bridge.go
package bridge

import (
	"errors"

	"github.com/tamzrod/modbus-sync/internal/async"
	"github.com/tamzrod/modbus-sync/internal/frame"
	"github.com/tamzrod/modbus-sync/internal/reactor"
)

// Caller performs raw request/response exchanges.
type Caller interface {
	Call(req frame.Request) (frame.Response, error)
}

// Reader is the blocking read surface.
type Reader interface {
	ReadCoils(addr frame.Address, cnt frame.Quantity) ([]frame.Coil, error)            // FC 1
	ReadDiscreteInputs(addr frame.Address, cnt frame.Quantity) ([]frame.Coil, error)   // FC 2
	ReadHoldingRegisters(addr frame.Address, cnt frame.Quantity) ([]frame.Word, error) // FC 3
	ReadInputRegisters(addr frame.Address, cnt frame.Quantity) ([]frame.Word, error)   // FC 4
	ReadWriteMultipleRegisters(readAddr frame.Address, readCnt frame.Quantity,
		writeAddr frame.Address, regs []frame.Word) ([]frame.Word, error) // FC 23
}

// Writer is the blocking write surface.
type Writer interface {
	WriteSingleCoil(addr frame.Address, coil frame.Coil) error           // FC 5
	WriteSingleRegister(addr frame.Address, word frame.Word) error       // FC 6
	WriteMultipleCoils(addr frame.Address, coils []frame.Coil) error     // FC 15
	WriteMultipleRegisters(addr frame.Address, words []frame.Word) error // FC 16
}

// AsyncClient is the non-blocking handle the bridge drives.
// *async.Context implements it.
type AsyncClient interface {
	Call(req frame.Request) async.Future[frame.Response]

	ReadCoils(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Coil]
	ReadDiscreteInputs(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Coil]
	ReadHoldingRegisters(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Word]
	ReadInputRegisters(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Word]
	ReadWriteMultipleRegisters(readAddr frame.Address, readCnt frame.Quantity,
		writeAddr frame.Address, regs []frame.Word) async.Future[[]frame.Word]

	WriteSingleCoil(addr frame.Address, coil frame.Coil) async.Future[struct{}]
	WriteSingleRegister(addr frame.Address, word frame.Word) async.Future[struct{}]
	WriteMultipleCoils(addr frame.Address, coils []frame.Coil) async.Future[struct{}]
	WriteMultipleRegisters(addr frame.Address, words []frame.Word) async.Future[struct{}]

	SetSlave(id byte)
	Close() error
}

// Client is a blocking Modbus client.
// It owns one driver and one async handle; both live and die together.
// A Client must not be used from more than one goroutine at a time.
type Client struct {
	core *reactor.Core
	ac   AsyncClient
}

var (
	_ Caller = (*Client)(nil)
	_ Reader = (*Client)(nil)
	_ Writer = (*Client)(nil)
)

// New takes ownership of ac and pairs it with a fresh driver.
func New(ac AsyncClient, opts ...reactor.Option) *Client {
	return &Client{
		core: reactor.New(opts...),
		ac:   ac,
	}
}

// Close releases the driver and the async handle together.
func (c *Client) Close() error {
	return errors.Join(c.core.Close(), c.ac.Close())
}

// SetSlave selects the unit id for subsequent requests.
func (c *Client) SetSlave(id byte) {
	c.ac.SetSlave(id)
}

func (c *Client) Call(req frame.Request) (frame.Response, error) {
	return reactor.Run(c.core, c.ac.Call(req))
}

func (c *Client) ReadCoils(addr frame.Address, cnt frame.Quantity) ([]frame.Coil, error) {
	return reactor.Run(c.core, c.ac.ReadCoils(addr, cnt))
}

func (c *Client) ReadDiscreteInputs(addr frame.Address, cnt frame.Quantity) ([]frame.Coil, error) {
	return reactor.Run(c.core, c.ac.ReadDiscreteInputs(addr, cnt))
}

func (c *Client) ReadHoldingRegisters(addr frame.Address, cnt frame.Quantity) ([]frame.Word, error) {
	return reactor.Run(c.core, c.ac.ReadHoldingRegisters(addr, cnt))
}

func (c *Client) ReadInputRegisters(addr frame.Address, cnt frame.Quantity) ([]frame.Word, error) {
	return reactor.Run(c.core, c.ac.ReadInputRegisters(addr, cnt))
}

func (c *Client) ReadWriteMultipleRegisters(readAddr frame.Address, readCnt frame.Quantity, writeAddr frame.Address, regs []frame.Word) ([]frame.Word, error) {
	return reactor.Run(c.core, c.ac.ReadWriteMultipleRegisters(readAddr, readCnt, writeAddr, regs))
}

func (c *Client) WriteSingleCoil(addr frame.Address, coil frame.Coil) error {
	_, err := reactor.Run(c.core, c.ac.WriteSingleCoil(addr, coil))
	return err
}

func (c *Client) WriteSingleRegister(addr frame.Address, word frame.Word) error {
	_, err := reactor.Run(c.core, c.ac.WriteSingleRegister(addr, word))
	return err
}

func (c *Client) WriteMultipleCoils(addr frame.Address, coils []frame.Coil) error {
	_, err := reactor.Run(c.core, c.ac.WriteMultipleCoils(addr, coils))
	return err
}

func (c *Client) WriteMultipleRegisters(addr frame.Address, words []frame.Word) error {
	_, err := reactor.Run(c.core, c.ac.WriteMultipleRegisters(addr, words))
	return err
}
