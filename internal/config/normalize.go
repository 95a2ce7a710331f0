// internal/config/normalize.go
package config

const (
	defaultTCPTimeoutMs = 1000
	defaultRTUTimeoutMs = 300
	defaultIntervalMs   = 1000
	defaultBaudRate     = 9600
	defaultDataBits     = 8
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	for ui := range cfg.Units {
		u := &cfg.Units[ui]

		NormalizeConnection(&u.Source)
		for ti := range u.Targets {
			NormalizeConnection(&u.Targets[ti].ConnectionConfig)
		}
		if u.Status != nil {
			NormalizeConnection(&u.Status.ConnectionConfig)
			if u.Status.DeviceName == "" {
				u.Status.DeviceName = u.ID
			}
		}

		if u.Poll.IntervalMs == 0 {
			u.Poll.IntervalMs = defaultIntervalMs
		}
	}
}

// NormalizeConnection fills transport, timeout and serial defaults.
func NormalizeConnection(c *ConnectionConfig) {
	if c.Transport == "" {
		c.Transport = TransportTCP
	}

	if c.Transport == TransportTCP {
		if c.TimeoutMs == 0 {
			c.TimeoutMs = defaultTCPTimeoutMs
		}
		return
	}

	if c.TimeoutMs == 0 {
		c.TimeoutMs = defaultRTUTimeoutMs
	}
	if c.Serial == nil {
		c.Serial = &SerialConfig{}
	}
	s := c.Serial
	if s.BaudRate == 0 {
		s.BaudRate = defaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = defaultDataBits
	}
	if s.Parity == "" {
		s.Parity = "N"
	}
	// Modbus over serial line mandates 2 stop bits without parity.
	if s.StopBits == 0 {
		if s.Parity == "N" {
			s.StopBits = 2
		} else {
			s.StopBits = 1
		}
	}
}
