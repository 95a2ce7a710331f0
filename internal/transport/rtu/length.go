// internal/transport/rtu/length.go
package rtu

import "encoding/binary"

// responseLength predicts the size of a normal response ADU from the request.
// 0 means the length cannot be known up front.
//
// ADU:
//   Slave(1) FC(1) Data(n) CRC(2)
func responseLength(adu []byte) int {
	if len(adu) < 6 {
		return 0
	}

	length := rtuMinSize
	count := int(binary.BigEndian.Uint16(adu[4:6]))

	switch adu[1] {
	case 0x01, 0x02: // coils, discrete inputs
		length += 1 + (count+7)/8
	case 0x03, 0x04, 0x17: // registers; FC 23 read quantity sits at the same offset
		length += 1 + 2*count
	case 0x05, 0x06, 0x0F, 0x10: // write echo
		length += 4
	case 0x16: // mask write register
		length += 6
	default:
		return 0
	}
	return length
}
