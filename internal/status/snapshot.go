// internal/status/snapshot.go
package status

import "time"

// Snapshot is the health of one monitoring table after its latest poll.
type Snapshot struct {
	Health              uint16
	LastErrorCode       uint16
	LastError           string
	ConsecutiveFailures int

	// InErrorSince is zero while healthy.
	InErrorSince time.Time
}

// SecondsInError is the time spent outside HealthOK, capped at SecondsInErrorMax.
func (s Snapshot) SecondsInError(now time.Time) uint16 {
	if s.InErrorSince.IsZero() || !now.After(s.InErrorSince) {
		return 0
	}
	secs := int64(now.Sub(s.InErrorSince) / time.Second)
	if secs > SecondsInErrorMax {
		return SecondsInErrorMax
	}
	return uint16(secs)
}
