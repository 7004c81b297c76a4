// internal/status/tracker_test.go
package status

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/require"
)

func TestTracker_Transitions(t *testing.T) {
	tr := NewTracker()
	require.Equal(t, HealthUnknown, tr.Snapshot().Health)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	snap, changed := tr.OK()
	require.True(t, changed)
	require.Equal(t, HealthOK, snap.Health)

	_, changed = tr.OK()
	require.False(t, changed)

	snap, changed = tr.Failed(t0, errors.New("dial tcp: i/o timeout"))
	require.True(t, changed)
	require.Equal(t, HealthError, snap.Health)
	require.Equal(t, ErrorCodeGeneric, snap.LastErrorCode)
	require.Equal(t, 1, snap.ConsecutiveFailures)
	require.Equal(t, t0, snap.InErrorSince)

	snap, changed = tr.Failed(t0.Add(time.Second), errors.New("again"))
	require.False(t, changed)
	require.Equal(t, 2, snap.ConsecutiveFailures)
	require.Equal(t, t0, snap.InErrorSince)

	snap, changed = tr.Stale(t0.Add(2*time.Second), nil)
	require.True(t, changed)
	require.Equal(t, HealthStale, snap.Health)
	require.Equal(t, 3, snap.ConsecutiveFailures)
	require.Equal(t, uint16(0), snap.LastErrorCode)
	require.Equal(t, uint16(5), snap.SecondsInError(t0.Add(5*time.Second)))

	// recovery resets everything
	snap, changed = tr.OK()
	require.True(t, changed)
	require.Equal(t, Snapshot{Health: HealthOK}, snap)
	require.Equal(t, uint16(0), snap.SecondsInError(t0.Add(time.Hour)))
}

func TestTracker_StaleCarriesExceptionCode(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cause := errors.Join(
		fmt.Errorf("tag 1 (40001): %w", &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 2}),
		errors.New("tag 2 (XYZ): address: unresolved"),
	)
	snap, changed := tr.Stale(t0, cause)
	require.True(t, changed)
	require.Equal(t, HealthStale, snap.Health)
	require.Equal(t, uint16(2), snap.LastErrorCode)
	require.Contains(t, snap.LastError, "tag 1 (40001)")

	// no exception among the causes
	snap, _ = tr.Stale(t0.Add(time.Second), errors.New("tag 2 (XYZ): address: unresolved"))
	require.Equal(t, uint16(0), snap.LastErrorCode)
	require.Equal(t, 2, snap.ConsecutiveFailures)
}

func TestSnapshot_SecondsInErrorDoesNotWrap(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s := Snapshot{Health: HealthError, InErrorSince: t0}

	require.Equal(t, uint16(SecondsInErrorMax), s.SecondsInError(t0.Add(48*time.Hour)))
	require.Equal(t, uint16(0), s.SecondsInError(t0.Add(-time.Second)))
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, uint16(0), ErrorCode(nil))
	require.Equal(t, ErrorCodeGeneric, ErrorCode(errors.New("x")))

	exc := fmt.Errorf("read: %w", &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 4})
	require.Equal(t, uint16(4), ErrorCode(exc))
}

func TestHealthName(t *testing.T) {
	require.Equal(t, "ok", HealthName(HealthOK))
	require.Equal(t, "error", HealthName(HealthError))
	require.Equal(t, "stale", HealthName(HealthStale))
	require.Equal(t, "disabled", HealthName(HealthDisabled))
	require.Equal(t, "unknown", HealthName(42))
}
