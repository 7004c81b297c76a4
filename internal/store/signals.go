// internal/store/signals.go
package store

import (
	"context"
	"fmt"
)

// SignalReload asks running collectors to rebuild their pollers.
const SignalReload = "RELOAD"

const selectPendingReload = `
SELECT EXISTS (
	SELECT 1 FROM collector_signals
	WHERE signal_type = $1 AND is_processed = false
)`

const markReloadProcessed = `
UPDATE collector_signals SET is_processed = true
WHERE signal_type = $1 AND is_processed = false`

// HasPendingReloadSignal reports whether an unprocessed RELOAD exists.
func (d *DB) HasPendingReloadSignal(ctx context.Context) (bool, error) {
	var pending bool
	if err := d.executor.QueryRow(ctx, selectPendingReload, SignalReload).Scan(&pending); err != nil {
		return false, fmt.Errorf("store: check reload signal: %w", err)
	}
	return pending, nil
}

// MarkReloadSignalsProcessed acknowledges every pending RELOAD.
func (d *DB) MarkReloadSignalsProcessed(ctx context.Context) error {
	tag, err := d.executor.Exec(ctx, markReloadProcessed, SignalReload)
	if err != nil {
		return fmt.Errorf("store: mark reload signals: %w", err)
	}
	d.log.Debug().Int64("signals", tag.RowsAffected()).Msg("reload signals processed")
	return nil
}
