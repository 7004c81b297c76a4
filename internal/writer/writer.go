// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
	"github.com/tamzrod/modbus-collector/internal/poller"
	"github.com/tamzrod/modbus-collector/internal/retry"
	"github.com/tamzrod/modbus-collector/internal/status"
)

// Write kinds, used as metric labels.
const (
	kindMeasurements = "measurements"
	kindSystemLog    = "system_log"
)

// Writer delivers one table's poll results to storage and tracks its health.
// One writer per table; Write is called from that table's poller only.
type Writer struct {
	cfg     Config
	table   model.MonitoringTable
	store   Store
	log     zerolog.Logger
	metrics *metrics.Metrics
	health  *status.Tracker
}

// New creates a writer for one table.
func New(cfg Config, table model.MonitoringTable, s Store, log zerolog.Logger, m *metrics.Metrics) (*Writer, error) {
	if s == nil {
		return nil, errors.New("writer: store required")
	}
	if cfg.InsertAttempts < 1 {
		return nil, errors.New("writer: insert attempts must be >= 1")
	}
	if cfg.InsertBackoff < 0 {
		return nil, errors.New("writer: insert backoff must be >= 0")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	return &Writer{
		cfg:   cfg,
		table: table,
		store: s,
		log: log.With().
			Int("table_id", table.ID).
			Str("table", table.Name).
			Int("plc_id", table.PLC.ID).
			Str("plc", table.PLC.Name).
			Logger(),
		metrics: m,
		health:  status.NewTracker(),
	}, nil
}

// Health returns the table's current health.
func (w *Writer) Health() status.Snapshot { return w.health.Snapshot() }

// Write stores the measurement batch atomically, then the system log
// entries, then updates health. A failed batch insert is retried locally and
// finally reported as an ERROR entry of its own.
func (w *Writer) Write(ctx context.Context, res poller.Result) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.WriteTimeout)
	defer cancel()

	var errs []error
	logs := res.Logs

	if len(res.Measurements) > 0 {
		if err := w.insertMeasurements(ctx, res.Measurements); err != nil {
			errs = append(errs, err)
			w.metrics.WriteFailure(kindMeasurements)
			logs = append(logs, w.storageFailureEntry(res, err))
		} else {
			w.metrics.MeasurementsWritten(res.TableID, len(res.Measurements))
			w.log.Debug().
				Int("count", len(res.Measurements)).
				Time("timestamp", res.Timestamp).
				Msg("measurements inserted")
		}
	}

	for _, e := range logs {
		w.mirror(e)
		if err := w.insertSystemLog(ctx, e); err != nil {
			errs = append(errs, err)
			w.metrics.WriteFailure(kindSystemLog)
		}
	}

	w.updateStatus(res)

	return errors.Join(errs...)
}

func (w *Writer) policy(what string) retry.Policy {
	return retry.Policy{
		Attempts: w.cfg.InsertAttempts,
		Backoff:  w.cfg.InsertBackoff,
		OnRetry: func(attempt int, err error, next time.Duration) {
			w.log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", next).Msgf("%s insert failed, retrying", what)
		},
	}
}

func (w *Writer) insertMeasurements(ctx context.Context, batch []model.Measurement) error {
	err := retry.Do(ctx, w.policy(kindMeasurements), func(ctx context.Context, _ int) error {
		return w.store.InsertMeasurements(ctx, batch)
	})
	if err != nil {
		return fmt.Errorf("writer: insert %d measurements: %w", len(batch), err)
	}
	return nil
}

func (w *Writer) insertSystemLog(ctx context.Context, e model.SystemLogEntry) error {
	err := retry.Do(ctx, w.policy(kindSystemLog), func(ctx context.Context, _ int) error {
		return w.store.InsertSystemLog(ctx, e)
	})
	if err != nil {
		return fmt.Errorf("writer: insert system log: %w", err)
	}
	return nil
}

func (w *Writer) storageFailureEntry(res poller.Result, err error) model.SystemLogEntry {
	plcID := res.PLCID
	return model.SystemLogEntry{
		Level: model.LevelError,
		Message: fmt.Sprintf(
			"Measurements of table %s (%d values) could not be stored. Check the database connection.",
			w.table.Name, len(res.Measurements),
		),
		Exception: err.Error(),
		PlcID:     &plcID,
		CreatedAt: res.Timestamp,
	}
}

// mirror copies an operator entry to the process log.
func (w *Writer) mirror(e model.SystemLogEntry) {
	var ev *zerolog.Event
	switch e.Level {
	case model.LevelError:
		ev = w.log.Error()
	case model.LevelWarning:
		ev = w.log.Warn()
	default:
		ev = w.log.Info()
	}
	if e.Exception != "" {
		ev = ev.Str("exception", e.Exception)
	}
	ev.Msg(e.Message)
}
