// internal/frame/frame.go
package frame

import "fmt"

// Protocol value types.
// Aliases keep []Coil and []Word interchangeable with []bool and []uint16.
type (
	Address  = uint16
	Quantity = uint16
	Coil     = bool
	Word     = uint16
)

// FunctionCode identifies a Modbus PDU.
type FunctionCode byte

const (
	ReadCoils                  FunctionCode = 0x01
	ReadDiscreteInputs         FunctionCode = 0x02
	ReadHoldingRegisters       FunctionCode = 0x03
	ReadInputRegisters         FunctionCode = 0x04
	WriteSingleCoil            FunctionCode = 0x05
	WriteSingleRegister        FunctionCode = 0x06
	WriteMultipleCoils         FunctionCode = 0x0F
	WriteMultipleRegisters     FunctionCode = 0x10
	ReadWriteMultipleRegisters FunctionCode = 0x17
)

// exceptionBit is set on the function code of an exception response.
const exceptionBit FunctionCode = 0x80

// IsException reports whether fc is the exception form of some request code.
func (fc FunctionCode) IsException() bool {
	return fc&exceptionBit != 0
}

// Exception returns the exception form of fc.
func (fc FunctionCode) Exception() FunctionCode {
	return fc | exceptionBit
}

func (fc FunctionCode) String() string {
	switch fc {
	case ReadCoils:
		return "read_coils"
	case ReadDiscreteInputs:
		return "read_discrete_inputs"
	case ReadHoldingRegisters:
		return "read_holding_registers"
	case ReadInputRegisters:
		return "read_input_registers"
	case WriteSingleCoil:
		return "write_single_coil"
	case WriteSingleRegister:
		return "write_single_register"
	case WriteMultipleCoils:
		return "write_multiple_coils"
	case WriteMultipleRegisters:
		return "write_multiple_registers"
	case ReadWriteMultipleRegisters:
		return "read_write_multiple_registers"
	}
	return fmt.Sprintf("fc_0x%02x", byte(fc))
}

// Request is one protocol message: a function code and its payload.
type Request struct {
	Function FunctionCode
	Data     []byte
}

// Response is the decoded reply to a Request.
type Response struct {
	Function FunctionCode
	Data     []byte
}
