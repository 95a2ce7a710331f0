// internal/status/snapshot.go
package status

// Snapshot is the device status a writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Tracker derives a unit's Snapshot from poll outcomes and a 1 Hz tick.
// It is owned by a single goroutine.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one poll outcome into the state.
// It reports whether anything changed.
func (t *Tracker) Observe(err error) (Snapshot, bool) {
	next := t.snap

	if err == nil {
		next = Snapshot{Health: HealthOK}
	} else {
		next.Health = HealthError
		next.LastErrorCode = ErrorCode(err)
		// seconds_in_error only moves on Tick
	}

	changed := next != t.snap
	t.snap = next
	return next, changed
}

// Tick advances seconds_in_error while the unit is not OK.
// The counter saturates instead of wrapping.
func (t *Tracker) Tick() (Snapshot, bool) {
	if t.snap.Health == HealthOK || t.snap.SecondsInError == MaxSecondsInError {
		return t.snap, false
	}
	t.snap.SecondsInError++
	return t.snap, true
}
