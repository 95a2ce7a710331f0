// internal/frame/codec.go
package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("frame: invalid quantity")
	ErrAddressOverflow = errors.New("frame: address range past 0xffff")
	ErrShortResponse   = errors.New("frame: short response payload")
	ErrUnexpectedEcho  = errors.New("frame: write response does not echo request")
)

// Modbus application protocol v1.1b3 limits.
const (
	MaxReadBits         = 2000
	MaxWriteBits        = 1968
	MaxReadRegisters    = 125
	MaxWriteRegisters   = 123
	MaxRWReadRegisters  = 125
	MaxRWWriteRegisters = 121

	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// ---- request builders ----

// NewReadCoils builds an FC 1 request.
func NewReadCoils(addr Address, cnt Quantity) (Request, error) {
	return readRequest(ReadCoils, addr, cnt, MaxReadBits)
}

// NewReadDiscreteInputs builds an FC 2 request.
func NewReadDiscreteInputs(addr Address, cnt Quantity) (Request, error) {
	return readRequest(ReadDiscreteInputs, addr, cnt, MaxReadBits)
}

// NewReadHoldingRegisters builds an FC 3 request.
func NewReadHoldingRegisters(addr Address, cnt Quantity) (Request, error) {
	return readRequest(ReadHoldingRegisters, addr, cnt, MaxReadRegisters)
}

// NewReadInputRegisters builds an FC 4 request.
func NewReadInputRegisters(addr Address, cnt Quantity) (Request, error) {
	return readRequest(ReadInputRegisters, addr, cnt, MaxReadRegisters)
}

// NewWriteSingleCoil builds an FC 5 request.
func NewWriteSingleCoil(addr Address, coil Coil) Request {
	v := coilOff
	if coil {
		v = coilOn
	}
	return Request{Function: WriteSingleCoil, Data: words(addr, v)}
}

// NewWriteSingleRegister builds an FC 6 request.
func NewWriteSingleRegister(addr Address, word Word) Request {
	return Request{Function: WriteSingleRegister, Data: words(addr, word)}
}

// NewWriteMultipleCoils builds an FC 15 request.
func NewWriteMultipleCoils(addr Address, coils []Coil) (Request, error) {
	cnt := len(coils)
	if err := checkRange(WriteMultipleCoils, addr, cnt, MaxWriteBits); err != nil {
		return Request{}, err
	}
	packed := PackBits(coils)

	data := words(addr, uint16(cnt))
	data = append(data, byte(len(packed)))
	data = append(data, packed...)
	return Request{Function: WriteMultipleCoils, Data: data}, nil
}

// NewWriteMultipleRegisters builds an FC 16 request.
func NewWriteMultipleRegisters(addr Address, regs []Word) (Request, error) {
	cnt := len(regs)
	if err := checkRange(WriteMultipleRegisters, addr, cnt, MaxWriteRegisters); err != nil {
		return Request{}, err
	}
	packed := PackRegisters(regs)

	data := words(addr, uint16(cnt))
	data = append(data, byte(len(packed)))
	data = append(data, packed...)
	return Request{Function: WriteMultipleRegisters, Data: data}, nil
}

// NewReadWriteMultipleRegisters builds an FC 23 request.
// The device performs the write before the read, in one transaction.
func NewReadWriteMultipleRegisters(readAddr Address, readCnt Quantity, writeAddr Address, regs []Word) (Request, error) {
	if err := checkRange(ReadWriteMultipleRegisters, readAddr, int(readCnt), MaxRWReadRegisters); err != nil {
		return Request{}, err
	}
	if err := checkRange(ReadWriteMultipleRegisters, writeAddr, len(regs), MaxRWWriteRegisters); err != nil {
		return Request{}, err
	}
	packed := PackRegisters(regs)

	data := words(readAddr, readCnt, writeAddr, uint16(len(regs)))
	data = append(data, byte(len(packed)))
	data = append(data, packed...)
	return Request{Function: ReadWriteMultipleRegisters, Data: data}, nil
}

func readRequest(fc FunctionCode, addr Address, cnt Quantity, limit int) (Request, error) {
	if err := checkRange(fc, addr, int(cnt), limit); err != nil {
		return Request{}, err
	}
	return Request{Function: fc, Data: words(addr, cnt)}, nil
}

func checkRange(fc FunctionCode, addr Address, cnt, limit int) error {
	if cnt < 1 || cnt > limit {
		return fmt.Errorf("%w: %s quantity %d not in 1..%d", ErrInvalidQuantity, fc, cnt, limit)
	}
	if int(addr)+cnt-1 > 0xFFFF {
		return fmt.Errorf("%w: %s addr=%d qty=%d", ErrAddressOverflow, fc, addr, cnt)
	}
	return nil
}

func words(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals), 2*len(vals)+1)
	for i, v := range vals {
		binary.BigEndian.PutUint16(out[2*i:], v)
	}
	return out
}

// ---- response decoders ----

// DecodeBits unpacks cnt coils from an FC 1/2 response.
// payload[0] = byte count, remaining = packed bits (LSB first).
func DecodeBits(resp Response, cnt Quantity) ([]Coil, error) {
	p, err := byteCounted(resp)
	if err != nil {
		return nil, err
	}
	if len(p) < (int(cnt)+7)/8 {
		return nil, fmt.Errorf("%w: %s want %d coils, got %d bytes", ErrShortResponse, resp.Function, cnt, len(p))
	}
	return UnpackBits(p, int(cnt)), nil
}

// DecodeRegisters unpacks cnt registers from an FC 3/4/23 response.
func DecodeRegisters(resp Response, cnt Quantity) ([]Word, error) {
	p, err := byteCounted(resp)
	if err != nil {
		return nil, err
	}
	if len(p) != 2*int(cnt) {
		return nil, fmt.Errorf("%w: %s want %d registers, got %d bytes", ErrShortResponse, resp.Function, cnt, len(p))
	}
	return UnpackRegisters(p), nil
}

// VerifyEcho checks a write response. FC 5/6/15/16 all echo the first
// four request bytes (address + value or address + quantity).
func VerifyEcho(req Request, resp Response) error {
	if len(req.Data) < 4 || len(resp.Data) != 4 {
		return fmt.Errorf("%w: %s response length %d", ErrShortResponse, resp.Function, len(resp.Data))
	}
	if !bytes.Equal(req.Data[:4], resp.Data) {
		return fmt.Errorf("%w: %s sent=% x got=% x", ErrUnexpectedEcho, req.Function, req.Data[:4], resp.Data)
	}
	return nil
}

func byteCounted(resp Response) ([]byte, error) {
	p := resp.Data
	if len(p) < 1 {
		return nil, fmt.Errorf("%w: %s empty payload", ErrShortResponse, resp.Function)
	}
	byteCount := int(p[0])
	if len(p)-1 < byteCount {
		return nil, fmt.Errorf("%w: %s payload shorter than byte count", ErrShortResponse, resp.Function)
	}
	return p[1 : 1+byteCount], nil
}

// ---- helpers (pure geometry) ----

// PackBits packs coils LSB first, 8 per byte.
func PackBits(bits []Coil) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// UnpackBits is the inverse of PackBits for the first count bits.
func UnpackBits(data []byte, count int) []Coil {
	out := make([]Coil, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			continue
		}
		out[i] = data[byteIdx]&(1<<uint(i%8)) != 0
	}
	return out
}

// PackRegisters encodes registers big-endian.
func PackRegisters(regs []Word) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}

// UnpackRegisters decodes big-endian registers; a trailing odd byte is ignored.
func UnpackRegisters(data []byte) []Word {
	n := len(data) / 2
	out := make([]Word, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return out
}
