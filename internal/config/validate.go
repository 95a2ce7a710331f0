// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tamzrod/modbus-sync/internal/frame"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// FIELD VALIDATION (struct tags)
	// ------------------------------------------------------------

	if err := structValidator.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// ------------------------------------------------------------
	// UNIT IDENTITY + SOURCE GEOMETRY
	// ------------------------------------------------------------

	seen := make(map[string]struct{})

	for _, u := range cfg.Units {
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("unit %q: duplicate id", u.ID)
		}
		seen[u.ID] = struct{}{}

		if err := checkSerial(u.Source); err != nil {
			return fmt.Errorf("unit %q: source: %w", u.ID, err)
		}
		for _, t := range u.Targets {
			if err := checkSerial(t.ConnectionConfig); err != nil {
				return fmt.Errorf("unit %q: target %s: %w", u.ID, t.Endpoint, err)
			}
		}
		if u.Status != nil {
			if err := checkSerial(u.Status.ConnectionConfig); err != nil {
				return fmt.Errorf("unit %q: status: %w", u.ID, err)
			}
		}

		for _, r := range u.Reads {
			if int(r.Address)+int(r.Quantity)-1 > 0xFFFF {
				return fmt.Errorf(
					"unit %q: read fc=%d address=%d quantity=%d runs past 0xffff",
					u.ID, r.FC, r.Address, r.Quantity,
				)
			}

			readMax, writeMax := quantityLimits(r.FC)
			if int(r.Quantity) > readMax {
				return fmt.Errorf(
					"unit %q: read fc=%d quantity=%d exceeds read limit %d",
					u.ID, r.FC, r.Quantity, readMax,
				)
			}
			// mirrored blocks go out as one FC 15/16 write
			if len(u.Targets) > 0 && int(r.Quantity) > writeMax {
				return fmt.Errorf(
					"unit %q: read fc=%d quantity=%d exceeds mirror write limit %d",
					u.ID, r.FC, r.Quantity, writeMax,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// DESTINATION GEOMETRY VALIDATION
	// ------------------------------------------------------------

	type span struct {
		start int
		end   int
		unit  string
	}

	// key = endpoint | unit_id | destination table
	spans := make(map[string][]span)

	for _, u := range cfg.Units {
		for _, t := range u.Targets {
			for _, r := range u.Reads {
				start := int(offsetFor(t.Offsets, r.FC)) + int(r.Address)
				end := start + int(r.Quantity) - 1

				if end > 0xFFFF {
					return fmt.Errorf(
						"unit %q: target %s fc=%d range=%d-%d runs past 0xffff",
						u.ID, t.Endpoint, r.FC, start, end,
					)
				}

				key := fmt.Sprintf("%s|%d|%s", t.Endpoint, t.UnitID, destTable(r.FC))

				for _, s := range spans[key] {
					// overlap check (inclusive)
					if !(end < s.start || start > s.end) {
						return fmt.Errorf(
							"target overlap: endpoint=%s unit_id=%d table=%s range=%d-%d overlaps with unit=%s range=%d-%d",
							t.Endpoint,
							t.UnitID,
							destTable(r.FC),
							start,
							end,
							s.unit,
							s.start,
							s.end,
						)
					}
				}

				spans[key] = append(spans[key], span{
					start: start,
					end:   end,
					unit:  u.ID,
				})
			}
		}

		// status block lives in the holding table of its endpoint
		if st := u.Status; st != nil {
			start := int(st.BaseSlot) * statusSlotsPerDevice
			end := start + statusSlotsPerDevice - 1

			if end > 0xFFFF {
				return fmt.Errorf("unit %q: status base_slot=%d runs past 0xffff", u.ID, st.BaseSlot)
			}

			key := fmt.Sprintf("%s|%d|%s", st.Endpoint, st.UnitID, "holding")
			for _, s := range spans[key] {
				if !(end < s.start || start > s.end) {
					return fmt.Errorf(
						"status overlap: endpoint=%s unit_id=%d range=%d-%d (unit=%s) overlaps with unit=%s range=%d-%d",
						st.Endpoint, st.UnitID, start, end, u.ID, s.unit, s.start, s.end,
					)
				}
			}
			spans[key] = append(spans[key], span{start: start, end: end, unit: u.ID})
		}
	}

	return nil
}

// statusSlotsPerDevice mirrors status.SlotsPerDevice; config does not import runtime packages.
const statusSlotsPerDevice = 20

func checkSerial(c ConnectionConfig) error {
	if c.Transport != TransportRTU && c.Serial != nil {
		return fmt.Errorf("serial settings require transport %q", TransportRTU)
	}
	return nil
}

// quantityLimits returns the read limit of fc and the write limit of
// the function that mirrors it.
func quantityLimits(fc uint8) (read, write int) {
	if fc == 1 || fc == 2 {
		return frame.MaxReadBits, frame.MaxWriteBits
	}
	return frame.MaxReadRegisters, frame.MaxWriteRegisters
}

// destTable names the writable table a source FC is mirrored into.
// Bits (FC 1/2) land in coils, registers (FC 3/4) in holding registers.
func destTable(fc uint8) string {
	if fc == 1 || fc == 2 {
		return "coils"
	}
	return "holding"
}

func offsetFor(offsets map[int]uint16, fc uint8) uint16 {
	if offsets == nil {
		return 0
	}
	return offsets[int(fc)]
}
