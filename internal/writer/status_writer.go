// internal/writer/status_writer.go
package writer

import (
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/poller"
	"github.com/tamzrod/modbus-collector/internal/status"
)

// updateStatus folds one result into the table's health.
// Transitions are logged once; the metric is refreshed on every result.
func (w *Writer) updateStatus(res poller.Result) {
	prev := w.health.Snapshot()

	var (
		snap    status.Snapshot
		changed bool
	)
	switch res.Outcome {
	case metrics.OutcomeOK, metrics.OutcomePartial:
		snap, changed = w.health.OK()
	case metrics.OutcomeEmpty:
		snap, changed = w.health.Stale(res.Timestamp, res.Cause)
	case metrics.OutcomeFailed:
		snap, changed = w.health.Failed(res.Timestamp, res.Err)
	default:
		return
	}

	w.metrics.TableHealth(res.TableID, snap.Health)

	if !changed {
		return
	}

	ev := w.log.Info()
	if snap.Health != status.HealthOK {
		ev = w.log.Warn().
			Uint16("last_error_code", snap.LastErrorCode).
			Int("consecutive_failures", snap.ConsecutiveFailures)
	} else if !prev.InErrorSince.IsZero() {
		ev = ev.Uint16("seconds_in_error", prev.SecondsInError(res.Timestamp))
	}
	ev.Str("from", status.HealthName(prev.Health)).
		Str("to", status.HealthName(snap.Health)).
		Msg("table health changed")
}
