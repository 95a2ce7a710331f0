package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sync/internal/async"
	"github.com/tamzrod/modbus-sync/internal/frame"
	"github.com/tamzrod/modbus-sync/internal/reactor"
)

// ---- fake async client ----

type exchange struct {
	op   string
	args []any
}

// fakeAsync resolves every future from preprogrammed values and records
// each exchange as it is resolved (not when the future is built).
type fakeAsync struct {
	coils    []frame.Coil
	words    []frame.Word
	response frame.Response
	err      error

	exchanges []exchange
	events    []string
	inFlight  int
	overlap   bool

	slave  byte
	closed bool
}

func resolveWith[T any](f *fakeAsync, op string, v T, args ...any) async.Future[T] {
	return async.NewFuture(op, func(context.Context) (T, error) {
		f.inFlight++
		if f.inFlight > 1 {
			f.overlap = true
		}
		f.events = append(f.events, "begin "+op)
		f.exchanges = append(f.exchanges, exchange{op: op, args: args})
		f.events = append(f.events, "end "+op)
		f.inFlight--

		if f.err != nil {
			var zero T
			return zero, f.err
		}
		return v, nil
	})
}

func (f *fakeAsync) Call(req frame.Request) async.Future[frame.Response] {
	return resolveWith(f, "call", f.response, req)
}

func (f *fakeAsync) ReadCoils(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Coil] {
	return resolveWith(f, "read_coils", f.coils, addr, cnt)
}

func (f *fakeAsync) ReadDiscreteInputs(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Coil] {
	return resolveWith(f, "read_discrete_inputs", f.coils, addr, cnt)
}

func (f *fakeAsync) ReadHoldingRegisters(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Word] {
	return resolveWith(f, "read_holding_registers", f.words, addr, cnt)
}

func (f *fakeAsync) ReadInputRegisters(addr frame.Address, cnt frame.Quantity) async.Future[[]frame.Word] {
	return resolveWith(f, "read_input_registers", f.words, addr, cnt)
}

func (f *fakeAsync) ReadWriteMultipleRegisters(readAddr frame.Address, readCnt frame.Quantity, writeAddr frame.Address, regs []frame.Word) async.Future[[]frame.Word] {
	return resolveWith(f, "read_write_multiple_registers", f.words, readAddr, readCnt, writeAddr, regs)
}

func (f *fakeAsync) WriteSingleCoil(addr frame.Address, coil frame.Coil) async.Future[struct{}] {
	return resolveWith(f, "write_single_coil", struct{}{}, addr, coil)
}

func (f *fakeAsync) WriteSingleRegister(addr frame.Address, word frame.Word) async.Future[struct{}] {
	return resolveWith(f, "write_single_register", struct{}{}, addr, word)
}

func (f *fakeAsync) WriteMultipleCoils(addr frame.Address, coils []frame.Coil) async.Future[struct{}] {
	return resolveWith(f, "write_multiple_coils", struct{}{}, addr, coils)
}

func (f *fakeAsync) WriteMultipleRegisters(addr frame.Address, words []frame.Word) async.Future[struct{}] {
	return resolveWith(f, "write_multiple_registers", struct{}{}, addr, words)
}

func (f *fakeAsync) SetSlave(id byte) { f.slave = id }

func (f *fakeAsync) Close() error {
	f.closed = true
	return nil
}

// ---- end-to-end scenarios ----

func TestReadCoilsReturnsResolvedValue(t *testing.T) {
	fa := &fakeAsync{coils: []frame.Coil{true, false, false, true}}
	c := New(fa)

	got, err := c.ReadCoils(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []frame.Coil{true, false, false, true}, got)
	assert.Equal(t, []exchange{{op: "read_coils", args: []any{frame.Address(0), frame.Quantity(4)}}}, fa.exchanges)
}

func TestWriteSingleRegisterSucceeds(t *testing.T) {
	fa := &fakeAsync{}
	c := New(fa)

	require.NoError(t, c.WriteSingleRegister(10, 0x1234))
	require.Len(t, fa.exchanges, 1)
	assert.Equal(t, []any{frame.Address(10), frame.Word(0x1234)}, fa.exchanges[0].args)
}

func TestReadHoldingRegistersReturnsSameFailure(t *testing.T) {
	ioErr := errors.New("connection reset by peer")
	fa := &fakeAsync{err: ioErr}
	c := New(fa)

	got, err := c.ReadHoldingRegisters(0, 2)
	assert.Nil(t, got)
	assert.Same(t, ioErr, err)
}

func TestReadWriteMultipleRegistersIsOneExchange(t *testing.T) {
	fa := &fakeAsync{words: []frame.Word{9, 9}}
	c := New(fa)

	got, err := c.ReadWriteMultipleRegisters(0, 2, 4, []frame.Word{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []frame.Word{9, 9}, got)

	require.Len(t, fa.exchanges, 1)
	assert.Equal(t, "read_write_multiple_registers", fa.exchanges[0].op)
	assert.Equal(t, []any{frame.Address(0), frame.Quantity(2), frame.Address(4), []frame.Word{1, 2}}, fa.exchanges[0].args)
}

// ---- properties ----

func TestEveryOperationIsTransparent(t *testing.T) {
	resp := frame.Response{Function: 0x2B, Data: []byte{0x0E}}
	fa := &fakeAsync{
		coils:    []frame.Coil{true, true, false},
		words:    []frame.Word{1, 65535},
		response: resp,
	}
	c := New(fa)

	coils, err := c.ReadDiscreteInputs(3, 3)
	require.NoError(t, err)
	assert.Equal(t, fa.coils, coils)

	words, err := c.ReadInputRegisters(3, 2)
	require.NoError(t, err)
	assert.Equal(t, fa.words, words)

	got, err := c.Call(frame.Request{Function: 0x2B, Data: []byte{0x0E, 0x01}})
	require.NoError(t, err)
	assert.Equal(t, resp, got)

	require.NoError(t, c.WriteSingleCoil(1, true))
	require.NoError(t, c.WriteMultipleCoils(1, []frame.Coil{true, false}))
	require.NoError(t, c.WriteMultipleRegisters(1, []frame.Word{7, 8}))

	assert.Len(t, fa.exchanges, 6)
}

func TestSequentialCallsCompleteInIssueOrder(t *testing.T) {
	fa := &fakeAsync{coils: []frame.Coil{true}, words: []frame.Word{1}}
	c := New(fa)

	_, _ = c.ReadCoils(0, 1)
	_ = c.WriteSingleRegister(1, 2)
	_, _ = c.ReadHoldingRegisters(2, 1)

	assert.Equal(t, []string{
		"begin read_coils", "end read_coils",
		"begin write_single_register", "end write_single_register",
		"begin read_holding_registers", "end read_holding_registers",
	}, fa.events)
	assert.False(t, fa.overlap)
}

func TestFailureDoesNotPoisonClient(t *testing.T) {
	fa := &fakeAsync{err: errors.New("timeout"), words: []frame.Word{5}}
	c := New(fa)

	_, err := c.ReadHoldingRegisters(0, 1)
	require.Error(t, err)

	fa.err = nil
	got, err := c.ReadHoldingRegisters(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []frame.Word{5}, got)
}

func TestWrappedCauseIsPreserved(t *testing.T) {
	cause := errors.New("device busy")
	fa := &fakeAsync{err: errors.Join(cause)}
	c := New(fa)

	err := c.WriteMultipleRegisters(0, []frame.Word{1})
	assert.ErrorIs(t, err, cause)
	assert.Same(t, fa.err, err)
}

func TestCloseReleasesBoth(t *testing.T) {
	fa := &fakeAsync{}
	c := New(fa)

	c.SetSlave(3)
	require.NoError(t, c.Close())
	assert.True(t, fa.closed)
	assert.Equal(t, byte(3), fa.slave)

	_, err := c.ReadCoils(0, 1)
	assert.ErrorIs(t, err, reactor.ErrClosed)
	assert.Empty(t, fa.exchanges)
}

func TestBridgeOverRealAsyncContext(t *testing.T) {
	h := &scriptedHandler{reply: []byte{0x01, 0x01, 0x09}}
	c := New(async.New(h))

	got, err := c.ReadCoils(0, 4)
	require.NoError(t, err)
	assert.Equal(t, []frame.Coil{true, false, false, true}, got)
	assert.Equal(t, 1, h.sends)
}
