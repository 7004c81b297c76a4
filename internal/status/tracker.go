// internal/status/tracker.go
package status

import (
	"time"

	pmodbus "github.com/tamzrod/modbus-collector/internal/poller/modbus"
)

// Tracker derives a table's Snapshot from poll outcomes.
// It is owned by the table's poller goroutine and not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// OK records a poll that produced at least one value.
// The returned bool reports a health transition.
func (t *Tracker) OK() (Snapshot, bool) {
	changed := t.snap.Health != HealthOK
	t.snap = Snapshot{Health: HealthOK}
	return t.snap, changed
}

// Stale records a poll that reached the PLC but produced no values.
// cause carries the per-tag failures; its Modbus exception code, if any,
// becomes LastErrorCode.
func (t *Tracker) Stale(at time.Time, cause error) (Snapshot, bool) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return t.fail(HealthStale, at, uint16(pmodbus.ExceptionCode(cause)), msg)
}

// Failed records a device-level failure.
func (t *Tracker) Failed(at time.Time, err error) (Snapshot, bool) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return t.fail(HealthError, at, ErrorCode(err), msg)
}

func (t *Tracker) fail(h uint16, at time.Time, code uint16, msg string) (Snapshot, bool) {
	changed := t.snap.Health != h

	if t.snap.InErrorSince.IsZero() {
		t.snap.InErrorSince = at
	}
	t.snap.Health = h
	t.snap.LastErrorCode = code
	t.snap.LastError = msg
	t.snap.ConsecutiveFailures++
	return t.snap, changed
}

// ErrorCode extracts a best-effort code from err: the Modbus exception code
// when there is one, ErrorCodeGeneric otherwise, 0 for nil.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}
	if c := pmodbus.ExceptionCode(err); c != 0 {
		return uint16(c)
	}
	return ErrorCodeGeneric
}
