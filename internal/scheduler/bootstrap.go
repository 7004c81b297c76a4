// internal/scheduler/bootstrap.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-collector/internal/driver"
	"github.com/tamzrod/modbus-collector/internal/model"
	"github.com/tamzrod/modbus-collector/internal/status"
)

// bootstrap prepares storage and reads the configuration of a new generation.
func (s *Scheduler) bootstrap(ctx context.Context) (*Generation, error) {
	if err := s.store.EnsureStoragePartitions(ctx); err != nil {
		return nil, fmt.Errorf("scheduler: ensure partitions: %w", err)
	}

	tables, err := s.store.ActiveMonitoringTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load tables: %w", err)
	}

	var skipped []int
	candidates := make([]model.MonitoringTable, 0, len(tables))
	for _, t := range tables {
		if err := unpollable(t); err != nil {
			s.skip(ctx, s.log, t, err)
			skipped = append(skipped, t.ID)
			continue
		}
		candidates = append(candidates, t)
	}

	tags, err := s.loadTags(ctx, candidates)
	if err != nil {
		return nil, err
	}

	s.seq++
	gen := &Generation{
		ID:        uuid.New(),
		Seq:       s.seq,
		StartedAt: time.Now().UTC(),
		Skipped:   skipped,
	}
	for i, t := range candidates {
		if len(tags[i]) == 0 {
			s.log.Warn().
				Int("table_id", t.ID).
				Str("table", t.Name).
				Msg("no active tags, table skipped")
			continue
		}
		gen.Units = append(gen.Units, Unit{Table: t, Tags: tags[i]})
	}

	if len(gen.Units) == 0 {
		s.log.Warn().Int("tables", len(tables)).Msg("no pollable monitoring tables")
	}
	return gen, nil
}

// unpollable reports why a table cannot be polled, nil when it can.
func unpollable(t model.MonitoringTable) error {
	switch {
	case !t.PLC.IsModbusTCP():
		return fmt.Errorf("%w: %q", driver.ErrUnsupportedProtocol, t.PLC.Protocol)
	case t.PollingInterval <= 0:
		return fmt.Errorf("scheduler: polling interval must be > 0, got %s", t.PollingInterval)
	case t.PLC.Timeout <= 0:
		return fmt.Errorf("scheduler: plc timeout must be > 0, got %s", t.PLC.Timeout)
	case t.PLC.RetryCount < 0:
		return fmt.Errorf("scheduler: plc retry count must be >= 0, got %d", t.PLC.RetryCount)
	}
	return nil
}

// skip reports a table left out of a generation. The table is exported as
// disabled and a WARNING entry goes to the system log.
func (s *Scheduler) skip(ctx context.Context, log zerolog.Logger, t model.MonitoringTable, reason error) {
	log.Warn().
		Err(reason).
		Int("table_id", t.ID).
		Str("table", t.Name).
		Str("plc", t.PLC.Name).
		Msg("table skipped")
	s.metrics.TableHealth(t.ID, status.HealthDisabled)

	plcID := t.PLC.ID
	entry := model.SystemLogEntry{
		Level: model.LevelWarning,
		Message: fmt.Sprintf(
			"Table %s on PLC %s is not polled because its configuration is invalid. Fix the table or PLC settings and request a reload.",
			t.Name, t.PLC.Name,
		),
		Exception: reason.Error(),
		PlcID:     &plcID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertSystemLog(ctx, entry); err != nil {
		log.Warn().Err(err).Int("table_id", t.ID).Msg("system log insert failed")
	}
}

// loadTags fetches the tags of every table concurrently. tags[i] belongs to tables[i].
func (s *Scheduler) loadTags(ctx context.Context, tables []model.MonitoringTable) ([][]model.Tag, error) {
	tags := make([][]model.Tag, len(tables))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.TagLoadConcurrency)

	for i, t := range tables {
		g.Go(func() error {
			got, err := s.store.ActiveTags(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("scheduler: load tags of table %d: %w", t.ID, err)
			}
			tags[i] = got
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tags, nil
}
