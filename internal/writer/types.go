// internal/writer/types.go
package writer

import "github.com/tamzrod/modbus-sync/internal/poller"

// TargetEndpoint is one destination device on a target endpoint.
type TargetEndpoint struct {
	Endpoint string
	UnitID   uint8
	Offsets  map[int]uint16 // per-FC offset deltas; missing FC => 0
}

// StatusPlan places a unit's device status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Targets []TargetEndpoint
	Status  *StatusPlan // nil => status disabled
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}
