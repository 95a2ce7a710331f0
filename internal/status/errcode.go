// internal/status/errcode.go
package status

import (
	"errors"

	"github.com/goburrow/modbus"
)

// ErrorCode extracts a uint16 code from a poll error.
// Modbus exceptions yield their exception code, timeouts yield
// ErrorCodeTimeout, anything else is ErrorCodeGeneric.
func ErrorCode(err error) uint16 {
	if err == nil {
		return ErrorCodeNone
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return uint16(me.ExceptionCode)
	}

	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return ErrorCodeTimeout
	}

	return ErrorCodeGeneric
}
