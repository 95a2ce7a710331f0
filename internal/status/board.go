// internal/status/board.go
package status

import (
	"sort"
	"sync"
)

// Board holds the latest snapshot of every unit for readers on other goroutines.
type Board struct {
	mu    sync.RWMutex
	units map[string]Snapshot
}

func NewBoard() *Board {
	return &Board{units: make(map[string]Snapshot)}
}

// SetUnitStatus records a unit's snapshot.
func (b *Board) SetUnitStatus(unit string, health, lastErrorCode, secondsInError uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.units[unit] = Snapshot{
		Health:         health,
		LastErrorCode:  lastErrorCode,
		SecondsInError: secondsInError,
	}
}

func (b *Board) Get(unit string) (Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.units[unit]
	return s, ok
}

// Units returns the known unit ids, sorted.
func (b *Board) Units() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.units))
	for id := range b.units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HealthName returns the lower-case name of a health code.
func HealthName(code uint16) string {
	switch code {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	default:
		return "unknown"
	}
}
