// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/driver"
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
)

// Reader abstracts the device driver.
type Reader interface {
	ReadTags(ctx context.Context, tags []model.Tag) (driver.Readings, error)
}

// Config is the immutable per-table runtime config.
type Config struct {
	Table model.MonitoringTable
	Tags  []model.Tag

	// Clock defaults to the system clock.
	Clock Clock
}

// Poller drives one monitoring table.
type Poller struct {
	cfg     Config
	reader  Reader
	clock   Clock
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New creates a poller with immutable config.
func New(cfg Config, r Reader, log zerolog.Logger, m *metrics.Metrics) (*Poller, error) {
	if r == nil {
		return nil, errors.New("poller: reader required")
	}
	if cfg.Table.PollingInterval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Tags) == 0 {
		return nil, errors.New("poller: at least one tag required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	return &Poller{
		cfg:    cfg,
		reader: r,
		clock:  clock,
		log: log.With().
			Int("table_id", cfg.Table.ID).
			Str("table", cfg.Table.Name).
			Str("plc", cfg.Table.PLC.Name).
			Logger(),
		metrics: m,
	}, nil
}

// Table returns the polled table.
func (p *Poller) Table() model.MonitoringTable { return p.cfg.Table }

// PollOnce performs exactly one read and classifies it. at is the shared
// timestamp of every measurement produced.
func (p *Poller) PollOnce(ctx context.Context, at time.Time) Result {
	t := p.cfg.Table
	res := Result{
		TableID:   t.ID,
		TableName: t.Name,
		PLCID:     t.PLC.ID,
		Timestamp: at,
		Requested: len(p.cfg.Tags),
	}

	readings, err := p.reader.ReadTags(ctx, p.cfg.Tags)
	if err != nil {
		res.Err = err
		if ctx.Err() != nil && isCancel(err) {
			return res
		}
		res.Outcome = metrics.OutcomeFailed
		res.Logs = append(res.Logs, p.entry(model.LevelError, unreachableMessage(t), err.Error()))
		p.metrics.PollOutcome(t.ID, res.Outcome)
		return res
	}

	if len(readings.Values) == 0 {
		res.Outcome = metrics.OutcomeEmpty
		res.Cause = failureCause(readings.Failures)
		detail := ""
		if res.Cause != nil {
			detail = res.Cause.Error()
		}
		res.Logs = append(res.Logs, p.entry(model.LevelWarning, emptyMessage(t), detail))
		p.metrics.PollOutcome(t.ID, res.Outcome)
		return res
	}

	res.Measurements = make([]model.Measurement, 0, len(readings.Values))
	for _, tag := range p.cfg.Tags {
		if v, ok := readings.Values[tag.ID]; ok {
			res.Measurements = append(res.Measurements, model.Measurement{
				TagID:     tag.ID,
				Timestamp: at,
				Value:     v,
			})
		}
	}

	missing := readings.Missing(p.cfg.Tags)
	if len(missing) == 0 {
		res.Outcome = metrics.OutcomeOK
	} else {
		res.Outcome = metrics.OutcomePartial

		causes := make(map[int]error, len(readings.Failures))
		for _, f := range readings.Failures {
			causes[f.Tag.ID] = f.Err
		}
		for _, tag := range missing {
			detail := ""
			if cause := causes[tag.ID]; cause != nil {
				detail = cause.Error()
			}
			res.Logs = append(res.Logs, p.entry(model.LevelWarning, missingTagMessage(t, tag), detail))
		}
	}

	p.metrics.PollOutcome(t.ID, res.Outcome)
	return res
}

// pollSafe runs PollOnce and turns a panic into an ERROR result.
func (p *Poller) pollSafe(ctx context.Context, at time.Time) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("poller: panic: %v", r)
			p.log.Error().Err(err).Msg("poll iteration panicked")
			res = Result{
				TableID:   p.cfg.Table.ID,
				TableName: p.cfg.Table.Name,
				PLCID:     p.cfg.Table.PLC.ID,
				Timestamp: at,
				Requested: len(p.cfg.Tags),
				Outcome:   metrics.OutcomeFailed,
				Err:       err,
				Logs: []model.SystemLogEntry{
					p.entry(model.LevelError, internalErrorMessage(p.cfg.Table), err.Error()),
				},
			}
			p.metrics.PollOutcome(p.cfg.Table.ID, metrics.OutcomeFailed)
		}
	}()
	return p.PollOnce(ctx, at)
}

func (p *Poller) entry(level model.Level, msg, exception string) model.SystemLogEntry {
	plcID := p.cfg.Table.PLC.ID
	return model.SystemLogEntry{
		Level:     level,
		Message:   msg,
		Exception: exception,
		PlcID:     &plcID,
		CreatedAt: p.clock.Now().UTC(),
	}
}

func missingTagMessage(t model.MonitoringTable, tag model.Tag) string {
	return fmt.Sprintf(
		"Tag '%s' (%s) on PLC %s could not be read in table %s. Check the address and the device configuration.",
		tag.Name, tag.Address, t.PLC.Name, t.Name,
	)
}

func emptyMessage(t model.MonitoringTable) string {
	return fmt.Sprintf(
		"No data received from PLC %s for table %s. Check that the PLC is running and that the tag addresses are correct.",
		t.PLC.Name, t.Name,
	)
}

func unreachableMessage(t model.MonitoringTable) string {
	return fmt.Sprintf(
		"Cannot communicate with PLC %s (%s) or an error occurred. Check the network connection and that the device is powered on.",
		t.PLC.Name, t.PLC.Host,
	)
}

func internalErrorMessage(t model.MonitoringTable) string {
	return fmt.Sprintf("Polling table %s on PLC %s failed unexpectedly. The collector keeps polling.", t.Name, t.PLC.Name)
}

// failureCause joins per-tag causes for an empty result.
func failureCause(failures []driver.TagFailure) error {
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, fmt.Errorf("tag %d (%s): %w", f.Tag.ID, f.Tag.Address, f.Err))
	}
	return errors.Join(errs...)
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
