// internal/status/constants.go
package status

// Device status block layout.
// One block per unit, SlotsPerDevice holding registers long, written to
// the register table of a status endpoint at BaseSlot*SlotsPerDevice.
const (
	SlotsPerDevice = 20

	SlotHealthCode     = 0
	SlotLastErrorCode  = 1
	SlotSecondsInError = 2

	// Slots 3..10 stay zero.
	SlotReservedStart = 3
	SlotReservedEnd   = 10

	// The device name always sits at the end of the block,
	// two ASCII characters per register.
	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	SlotDeviceNameEnd   = SlotDeviceNameStart + SlotDeviceNameSlots - 1

	DeviceNameMaxChars = 2 * SlotDeviceNameSlots
)

// Health codes.
const (
	HealthUnknown uint16 = 0
	HealthOK      uint16 = 1
	HealthError   uint16 = 2
)

// Error codes that are not Modbus exception codes.
const (
	ErrorCodeNone    uint16 = 0
	ErrorCodeGeneric uint16 = 1

	// Same value as the "gateway target device failed to respond" exception.
	ErrorCodeTimeout uint16 = 0x0B
)

// MaxSecondsInError is where the seconds counter saturates.
const MaxSecondsInError uint16 = 0xFFFF
