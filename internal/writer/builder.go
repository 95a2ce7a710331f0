// internal/writer/builder.go
package writer

import (
	"errors"
	"log/slog"

	"github.com/tamzrod/modbus-sync/internal/bridge"
	cfg "github.com/tamzrod/modbus-sync/internal/config"
	"github.com/tamzrod/modbus-sync/internal/reactor"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed conflict validation.
func BuildPlan(u cfg.UnitConfig) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{UnitID: u.ID}

	for _, t := range u.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Offsets:  t.Offsets, // map[int]uint16 (delta map)
		})
	}

	if st := u.Status; st != nil {
		plan.Status = &StatusPlan{
			Endpoint:   st.Endpoint,
			UnitID:     st.UnitID,
			BaseSlot:   st.BaseSlot,
			DeviceName: st.DeviceName,
		}
	}

	return plan, nil
}

// BuildEndpointClients creates one bridge connection per unique endpoint,
// covering the data targets and the status endpoint.
// The first connection settings seen for an endpoint win.
func BuildEndpointClients(
	u cfg.UnitConfig,
	log *slog.Logger,
	obs reactor.Observer,
) (map[string]endpointClient, func() error, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("unit", u.ID)

	var conns []cfg.ConnectionConfig
	seen := map[string]struct{}{}
	add := func(c cfg.ConnectionConfig) {
		if _, ok := seen[c.Endpoint]; ok {
			return
		}
		seen[c.Endpoint] = struct{}{}
		conns = append(conns, c)
	}
	for _, t := range u.Targets {
		add(t.ConnectionConfig)
	}
	if u.Status != nil {
		add(u.Status.ConnectionConfig)
	}

	clients := make(map[string]endpointClient, len(conns))
	var closers []func() error

	closeAll := func() error {
		var errs []error
		for _, fn := range closers {
			errs = append(errs, fn())
		}
		return errors.Join(errs...)
	}

	for _, cc := range conns {
		cc := cc // per-iteration copy; go.mod targets go 1.21 loop semantics
		c, err := newEndpointClient(func() (bridgeConn, error) {
			bc, err := bridge.Connect(cc, log, obs)
			if err != nil {
				return nil, err
			}
			return bc, nil
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[cc.Endpoint] = c
		closers = append(closers, c.Close)
	}

	return clients, closeAll, nil
}
