// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-sync/internal/poller"
)

type writerImpl struct {
	plan    Plan
	clients map[string]endpointClient
}

// New builds the data writer for plan.
// clients is keyed by endpoint, as returned by BuildEndpointClients.
func New(plan Plan, clients map[string]endpointClient) Writer {
	return &writerImpl{
		plan:    plan,
		clients: clients,
	}
}

// Write mirrors every block of a successful poll into every target.
// Failed polls are not written. All targets are attempted; failures are joined.
func (w *writerImpl) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	var errs []error

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Errorf("writer: missing client for endpoint %s", tgt.Endpoint))
			continue
		}

		for _, b := range res.Blocks {
			dstAddr := offsetForFC(tgt.Offsets, b.FC) + b.Address

			var err error
			switch b.FC {
			case 1, 2:
				err = cli.WriteBits(tgt.UnitID, dstAddr, b.Bits)
			case 3, 4:
				err = cli.WriteRegisters(tgt.UnitID, dstAddr, b.Registers)
			default:
				err = errors.New("unsupported fc")
			}
			if err != nil {
				errs = append(errs, fmt.Errorf(
					"writer: ep=%s unit=%d fc=%d addr=%d: %w",
					tgt.Endpoint, tgt.UnitID, b.FC, dstAddr, err,
				))
			}
		}
	}

	return errors.Join(errs...)
}

func offsetForFC(offsets map[int]uint16, fc uint8) uint16 {
	if offsets == nil {
		return 0
	}
	if v, ok := offsets[int(fc)]; ok {
		return v
	}
	return 0
}
