// internal/config/config.go
package config

type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	HTTP    HTTPConfig    `yaml:"http"`
	Units   []UnitConfig  `yaml:"units" validate:"required,min=1,dive"`
}

// ---- AMBIENT ----

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// HTTPConfig enables the health, metrics and status endpoints when Listen is set.
type HTTPConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID      string           `yaml:"id" validate:"required"`
	Source  ConnectionConfig `yaml:"source"`
	Reads   []ReadConfig     `yaml:"reads" validate:"required,min=1,dive"`
	Targets []TargetConfig   `yaml:"targets" validate:"dive"`
	Status  *StatusConfig    `yaml:"status"`
	Poll    PollConfig       `yaml:"poll"`
}

// ---- CONNECTION ----

const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

// ConnectionConfig describes one Modbus link, TCP or serial RTU.
type ConnectionConfig struct {
	Transport string        `yaml:"transport" validate:"omitempty,oneof=tcp rtu"`
	Endpoint  string        `yaml:"endpoint" validate:"required"`
	UnitID    uint8         `yaml:"unit_id"`
	TimeoutMs int           `yaml:"timeout_ms" validate:"gte=0"`
	Serial    *SerialConfig `yaml:"serial"`
}

type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate" validate:"gte=0"`
	DataBits int    `yaml:"data_bits" validate:"omitempty,oneof=5 6 7 8"`
	Parity   string `yaml:"parity" validate:"omitempty,oneof=N E O"`
	StopBits int    `yaml:"stop_bits" validate:"omitempty,oneof=1 2"`
}

// ---- READ GEOMETRY ----

type ReadConfig struct {
	FC       uint8  `yaml:"fc" validate:"oneof=1 2 3 4"`
	Address  uint16 `yaml:"address"`
	Quantity uint16 `yaml:"quantity" validate:"min=1"`
}

// ---- TARGET ----

type TargetConfig struct {
	ConnectionConfig `yaml:",inline"`
	Offsets          map[int]uint16 `yaml:"offsets"` // delta map; missing FC => 0
}

// ---- STATUS ----

// StatusConfig places the unit's device status block on a Modbus device.
// The block occupies holding registers base_slot*20 .. base_slot*20+19.
type StatusConfig struct {
	ConnectionConfig `yaml:",inline"`
	BaseSlot         uint16 `yaml:"base_slot"`
	DeviceName       string `yaml:"device_name" validate:"max=16,printascii"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms" validate:"gte=0"`
}
