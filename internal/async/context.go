// internal/async/context.go
package async

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-sync/internal/frame"
)

// ErrUnexpectedFunction means the device answered with a different function code.
var ErrUnexpectedFunction = errors.New("async: unexpected response function code")

// Handler is a transport-specific packager + transporter pair.
// It owns framing, checksums, timeouts and the connection.
type Handler interface {
	modbus.ClientHandler
	SetSlave(id byte)
}

// Context is the transport independent asynchronous client.
// Every operation returns a Future; no I/O happens until it is resolved.
type Context struct {
	handler Handler
}

// New creates a Context over h.
func New(h Handler) *Context {
	return &Context{handler: h}
}

// SetSlave selects the unit id for subsequent requests.
func (c *Context) SetSlave(id byte) {
	c.handler.SetSlave(id)
}

// Close releases the handler's connection, if it holds one.
func (c *Context) Close() error {
	if cl, ok := c.handler.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// Call performs one raw request/response exchange.
// Exception responses resolve to *modbus.ModbusError.
func (c *Context) Call(req frame.Request) Future[frame.Response] {
	return NewFuture(req.Function.String(), func(ctx context.Context) (frame.Response, error) {
		return c.exchange(ctx, req)
	})
}

func (c *Context) ReadCoils(addr frame.Address, cnt frame.Quantity) Future[[]frame.Coil] {
	return c.readBits(frame.NewReadCoils, frame.ReadCoils, addr, cnt)
}

func (c *Context) ReadDiscreteInputs(addr frame.Address, cnt frame.Quantity) Future[[]frame.Coil] {
	return c.readBits(frame.NewReadDiscreteInputs, frame.ReadDiscreteInputs, addr, cnt)
}

func (c *Context) ReadInputRegisters(addr frame.Address, cnt frame.Quantity) Future[[]frame.Word] {
	return c.readWords(frame.NewReadInputRegisters, frame.ReadInputRegisters, addr, cnt)
}

func (c *Context) ReadHoldingRegisters(addr frame.Address, cnt frame.Quantity) Future[[]frame.Word] {
	return c.readWords(frame.NewReadHoldingRegisters, frame.ReadHoldingRegisters, addr, cnt)
}

// ReadWriteMultipleRegisters writes regs at writeAddr and reads readCnt
// registers at readAddr in a single exchange.
func (c *Context) ReadWriteMultipleRegisters(readAddr frame.Address, readCnt frame.Quantity, writeAddr frame.Address, regs []frame.Word) Future[[]frame.Word] {
	req, err := frame.NewReadWriteMultipleRegisters(readAddr, readCnt, writeAddr, regs)
	if err != nil {
		return Failed[[]frame.Word](frame.ReadWriteMultipleRegisters.String(), err)
	}
	return Then(c.Call(req), func(resp frame.Response) ([]frame.Word, error) {
		return frame.DecodeRegisters(resp, readCnt)
	})
}

func (c *Context) WriteSingleCoil(addr frame.Address, coil frame.Coil) Future[struct{}] {
	return c.write(frame.NewWriteSingleCoil(addr, coil))
}

func (c *Context) WriteMultipleCoils(addr frame.Address, coils []frame.Coil) Future[struct{}] {
	req, err := frame.NewWriteMultipleCoils(addr, coils)
	if err != nil {
		return Failed[struct{}](frame.WriteMultipleCoils.String(), err)
	}
	return c.write(req)
}

func (c *Context) WriteSingleRegister(addr frame.Address, word frame.Word) Future[struct{}] {
	return c.write(frame.NewWriteSingleRegister(addr, word))
}

func (c *Context) WriteMultipleRegisters(addr frame.Address, words []frame.Word) Future[struct{}] {
	req, err := frame.NewWriteMultipleRegisters(addr, words)
	if err != nil {
		return Failed[struct{}](frame.WriteMultipleRegisters.String(), err)
	}
	return c.write(req)
}

// ---- internal helpers ----

type readBuilder func(frame.Address, frame.Quantity) (frame.Request, error)

func (c *Context) readBits(build readBuilder, fc frame.FunctionCode, addr frame.Address, cnt frame.Quantity) Future[[]frame.Coil] {
	req, err := build(addr, cnt)
	if err != nil {
		return Failed[[]frame.Coil](fc.String(), err)
	}
	return Then(c.Call(req), func(resp frame.Response) ([]frame.Coil, error) {
		return frame.DecodeBits(resp, cnt)
	})
}

func (c *Context) readWords(build readBuilder, fc frame.FunctionCode, addr frame.Address, cnt frame.Quantity) Future[[]frame.Word] {
	req, err := build(addr, cnt)
	if err != nil {
		return Failed[[]frame.Word](fc.String(), err)
	}
	return Then(c.Call(req), func(resp frame.Response) ([]frame.Word, error) {
		return frame.DecodeRegisters(resp, cnt)
	})
}

func (c *Context) write(req frame.Request) Future[struct{}] {
	return Then(c.Call(req), func(resp frame.Response) (struct{}, error) {
		return struct{}{}, frame.VerifyEcho(req, resp)
	})
}

func (c *Context) exchange(ctx context.Context, req frame.Request) (frame.Response, error) {
	if err := ctx.Err(); err != nil {
		return frame.Response{}, err
	}

	aduReq, err := c.handler.Encode(&modbus.ProtocolDataUnit{
		FunctionCode: byte(req.Function),
		Data:         req.Data,
	})
	if err != nil {
		return frame.Response{}, err
	}

	aduResp, err := c.handler.Send(aduReq)
	if err != nil {
		return frame.Response{}, err
	}
	if err := c.handler.Verify(aduReq, aduResp); err != nil {
		return frame.Response{}, err
	}

	pdu, err := c.handler.Decode(aduResp)
	if err != nil {
		return frame.Response{}, err
	}

	got := frame.FunctionCode(pdu.FunctionCode)
	switch {
	case got == req.Function:
		return frame.Response{Function: got, Data: pdu.Data}, nil
	case got == req.Function.Exception() && len(pdu.Data) > 0:
		return frame.Response{}, &modbus.ModbusError{
			FunctionCode:  pdu.FunctionCode,
			ExceptionCode: pdu.Data[0],
		}
	default:
		return frame.Response{}, fmt.Errorf("%w: got=%s want=%s", ErrUnexpectedFunction, got, req.Function)
	}
}
