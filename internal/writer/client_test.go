package writer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-sync/internal/bridge"
	cfg "github.com/tamzrod/modbus-sync/internal/config"
	"github.com/tamzrod/modbus-sync/internal/frame"
)

type fakeConn struct {
	slaves []byte
	coils  [][]bool
	regs   [][]uint16
	err    error
	closed bool
}

func (f *fakeConn) WriteSingleCoil(uint16, bool) error       { return f.err }
func (f *fakeConn) WriteSingleRegister(uint16, uint16) error { return f.err }

func (f *fakeConn) WriteMultipleCoils(_ uint16, coils []bool) error {
	f.coils = append(f.coils, coils)
	return f.err
}

func (f *fakeConn) WriteMultipleRegisters(_ uint16, words []uint16) error {
	f.regs = append(f.regs, words)
	return f.err
}

func (f *fakeConn) SetSlave(id byte) { f.slaves = append(f.slaves, id) }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

var _ bridge.Writer = (*fakeConn)(nil)

func TestEndpointClientSetsUnitPerWrite(t *testing.T) {
	conn := &fakeConn{}
	c, err := newEndpointClient(func() (bridgeConn, error) { return conn, nil })
	require.NoError(t, err)

	require.NoError(t, c.WriteBits(3, 0, []bool{true}))
	require.NoError(t, c.WriteRegisters(9, 0, []uint16{1, 2}))

	assert.Equal(t, []byte{3, 9}, conn.slaves)
	assert.Equal(t, [][]bool{{true}}, conn.coils)
	assert.Equal(t, [][]uint16{{1, 2}}, conn.regs)
}

func TestEndpointClientRedialsAfterFailure(t *testing.T) {
	boom := errors.New("broken pipe")
	first := &fakeConn{err: boom}
	second := &fakeConn{}
	conns := []*fakeConn{first, second}

	c, err := newEndpointClient(func() (bridgeConn, error) {
		next := conns[0]
		conns = conns[1:]
		return next, nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, c.WriteRegisters(1, 0, []uint16{1}), boom)
	assert.True(t, first.closed)

	require.NoError(t, c.WriteRegisters(1, 0, []uint16{1}))
	assert.Len(t, second.regs, 1)

	require.NoError(t, c.Close())
	assert.True(t, second.closed)
	require.NoError(t, c.Close())
}

func TestEndpointClientKeepsConnOnRequestErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"exception", &modbus.ModbusError{FunctionCode: 0x90, ExceptionCode: modbus.ExceptionCodeIllegalDataAddress}},
		{"quantity", frame.ErrInvalidQuantity},
		{"wrapped quantity", fmt.Errorf("write: %w", frame.ErrInvalidQuantity)},
		{"overflow", frame.ErrAddressOverflow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &fakeConn{err: tc.err}
			dials := 0
			c, err := newEndpointClient(func() (bridgeConn, error) {
				dials++
				return conn, nil
			})
			require.NoError(t, err)

			assert.ErrorIs(t, c.WriteRegisters(1, 0, []uint16{1}), tc.err)
			assert.False(t, conn.closed)

			conn.err = nil
			require.NoError(t, c.WriteRegisters(2, 0, []uint16{2}))
			assert.Equal(t, 1, dials)
			assert.Equal(t, []byte{1, 2}, conn.slaves)
		})
	}
}

func TestEndpointClientDialError(t *testing.T) {
	refused := errors.New("refused")
	_, err := newEndpointClient(func() (bridgeConn, error) { return nil, refused })
	assert.ErrorIs(t, err, refused)
}

// echoServer acknowledges FC 16 writes and records the register values.
func echoServer(t *testing.T) (net.Listener, <-chan []uint16) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	got := make(chan []uint16, 8)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			hdr := make([]byte, 7)
			if _, err := io.ReadFull(conn, hdr); err != nil {
				return
			}
			pdu := make([]byte, binary.BigEndian.Uint16(hdr[4:6])-1)
			if _, err := io.ReadFull(conn, pdu); err != nil {
				return
			}

			qty := binary.BigEndian.Uint16(pdu[3:5])
			regs := make([]uint16, qty)
			for i := range regs {
				regs[i] = binary.BigEndian.Uint16(pdu[6+2*i:])
			}
			got <- regs

			resp := append([]byte(nil), hdr[:4]...)
			resp = append(resp, 0, 6, hdr[6])
			resp = append(resp, pdu[:5]...)
			if _, err := conn.Write(resp); err != nil {
				return
			}
		}
	}()
	return ln, got
}

func TestBuildEndpointClientsSharesEndpoint(t *testing.T) {
	ln, got := echoServer(t)
	defer ln.Close()

	ep := cfg.ConnectionConfig{Transport: cfg.TransportTCP, Endpoint: ln.Addr().String(), TimeoutMs: 1000}
	u := cfg.UnitConfig{
		ID: "u1",
		Targets: []cfg.TargetConfig{
			{ConnectionConfig: ep},
			{ConnectionConfig: ep},
		},
		Status: &cfg.StatusConfig{ConnectionConfig: ep},
	}

	clients, closeAll, err := BuildEndpointClients(u, nil, nil)
	require.NoError(t, err)
	defer closeAll()

	require.Len(t, clients, 1)
	require.NoError(t, clients[ep.Endpoint].WriteRegisters(1, 10, []uint16{0xBEEF}))
	assert.Equal(t, []uint16{0xBEEF}, <-got)
}

func TestBuildEndpointClientsDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	u := cfg.UnitConfig{
		ID: "u1",
		Targets: []cfg.TargetConfig{
			{ConnectionConfig: cfg.ConnectionConfig{Transport: cfg.TransportTCP, Endpoint: addr, TimeoutMs: 200}},
		},
	}
	_, _, err = BuildEndpointClients(u, nil, nil)
	assert.Error(t, err)
}

func TestBuildPlan(t *testing.T) {
	u := cfg.UnitConfig{
		ID: "u1",
		Targets: []cfg.TargetConfig{
			{
				ConnectionConfig: cfg.ConnectionConfig{Endpoint: "ep1:502", UnitID: 4},
				Offsets:          map[int]uint16{3: 100},
			},
		},
		Status: &cfg.StatusConfig{
			ConnectionConfig: cfg.ConnectionConfig{Endpoint: "st:502", UnitID: 9},
			BaseSlot:         5,
			DeviceName:       "PLC",
		},
	}

	plan, err := BuildPlan(u)
	require.NoError(t, err)

	assert.Equal(t, []TargetEndpoint{{Endpoint: "ep1:502", UnitID: 4, Offsets: map[int]uint16{3: 100}}}, plan.Targets)
	assert.Equal(t, &StatusPlan{Endpoint: "st:502", UnitID: 9, BaseSlot: 5, DeviceName: "PLC"}, plan.Status)

	_, err = BuildPlan(cfg.UnitConfig{})
	assert.Error(t, err)
}
