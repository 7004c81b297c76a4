// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/driver"
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/poller"
	"github.com/tamzrod/modbus-collector/internal/retry"
	"github.com/tamzrod/modbus-collector/internal/store"
	"github.com/tamzrod/modbus-collector/internal/writer"
)

// Defaults.
const (
	DefaultReloadPollInterval = 5 * time.Second
	DefaultErrorCooldown      = 30 * time.Second
	DefaultTagLoadConcurrency = 4
)

// Config controls the orchestration loop.
type Config struct {
	ReloadPollInterval time.Duration
	ErrorCooldown      time.Duration
	TagLoadConcurrency int

	// Sleep overrides the reload-poll and cooldown waits. Nil uses retry.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Scheduler owns the fleet of table pollers and rebuilds it on reload.
type Scheduler struct {
	cfg       Config
	store     store.Store
	newDriver driver.Factory
	newWriter writer.Factory
	log       zerolog.Logger
	metrics   *metrics.Metrics

	seq uint64

	mu     sync.Mutex
	active *Generation
}

// New creates a scheduler. Zero config values take the defaults.
func New(cfg Config, s store.Store, newDriver driver.Factory, newWriter writer.Factory, log zerolog.Logger, m *metrics.Metrics) (*Scheduler, error) {
	if s == nil {
		return nil, errors.New("scheduler: store required")
	}
	if newDriver == nil || newWriter == nil {
		return nil, errors.New("scheduler: driver and writer factories required")
	}
	if cfg.ReloadPollInterval <= 0 {
		cfg.ReloadPollInterval = DefaultReloadPollInterval
	}
	if cfg.ErrorCooldown <= 0 {
		cfg.ErrorCooldown = DefaultErrorCooldown
	}
	if cfg.TagLoadConcurrency <= 0 {
		cfg.TagLoadConcurrency = DefaultTagLoadConcurrency
	}
	if cfg.Sleep == nil {
		cfg.Sleep = retry.Sleep
	}

	return &Scheduler{
		cfg:       cfg,
		store:     s,
		newDriver: newDriver,
		newWriter: newWriter,
		log:       log,
		metrics:   m,
	}, nil
}

// Generation returns the active generation, nil between generations.
func (s *Scheduler) Generation() *Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Run bootstraps the fleet and keeps it running until ctx is cancelled.
// Orchestration failures are logged and retried after the cooldown; Run
// returns nil once every poller has stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Msg("scheduler started")
	defer s.log.Info().Msg("scheduler stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := s.cycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			continue // reload
		}

		s.log.Error().Err(err).
			Dur("cooldown", s.cfg.ErrorCooldown).
			Msg("scheduler cycle failed")
		if err := s.cfg.Sleep(ctx, s.cfg.ErrorCooldown); err != nil {
			return nil
		}
	}
}

// cycle runs one generation from bootstrap to drain. It returns nil when a
// reload was requested or ctx was cancelled.
func (s *Scheduler) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: panic: %v", r)
		}
	}()

	gen, err := s.bootstrap(ctx)
	if err != nil {
		return err
	}

	rg := s.start(ctx, gen)
	defer s.drain(rg)

	return s.watch(ctx, gen)
}

// watch polls the reload signal until one arrives or ctx is cancelled.
func (s *Scheduler) watch(ctx context.Context, gen *Generation) error {
	for {
		if err := s.cfg.Sleep(ctx, s.cfg.ReloadPollInterval); err != nil {
			return nil
		}

		pending, err := s.store.HasPendingReloadSignal(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// keep the running generation
			s.log.Warn().Err(err).Msg("reload signal check failed")
			continue
		}
		if !pending {
			continue
		}

		if err := s.store.MarkReloadSignalsProcessed(ctx); err != nil {
			return fmt.Errorf("scheduler: acknowledge reload: %w", err)
		}
		s.log.Info().
			Str("generation", gen.ID.String()).
			Uint64("seq", gen.Seq).
			Msg("reload requested")
		return nil
	}
}

// start launches one goroutine per pipeline on a generation context.
func (s *Scheduler) start(ctx context.Context, gen *Generation) *running {
	genLog := s.log.With().
		Str("generation", gen.ID.String()).
		Uint64("seq", gen.Seq).
		Logger()

	pipelines, skipped := s.assemble(ctx, gen, genLog)

	genCtx, cancel := context.WithCancel(ctx)
	rg := &running{
		gen:       gen,
		pipelines: pipelines,
		skipped:   append(append([]int(nil), gen.Skipped...), skipped...),
		cancel:    cancel,
	}

	for _, p := range pipelines {
		rg.wg.Add(1)
		s.metrics.PollerStarted()
		go func(p pipeline) {
			defer rg.wg.Done()
			defer s.metrics.PollerStopped()
			p.poller.Run(genCtx, p.writer)
		}(p)
	}

	s.mu.Lock()
	s.active = gen
	s.mu.Unlock()
	s.metrics.Generation(gen.Seq)

	genLog.Info().
		Int("tables", len(pipelines)).
		Int("skipped", len(rg.skipped)).
		Msg("generation started")
	return rg
}

// assemble builds every pipeline before any of them starts. A table whose
// driver, poller or writer cannot be built is skipped; the rest still run.
func (s *Scheduler) assemble(ctx context.Context, gen *Generation, log zerolog.Logger) ([]pipeline, []int) {
	pipelines := make([]pipeline, 0, len(gen.Units))
	var skipped []int

	for _, u := range gen.Units {
		p, closer, err := poller.Build(u.Table, u.Tags, s.newDriver, log, s.metrics)
		if err != nil {
			s.skip(ctx, log, u.Table, err)
			skipped = append(skipped, u.Table.ID)
			continue
		}

		w, err := s.newWriter(u.Table)
		if err != nil {
			_ = closer()
			s.skip(ctx, log, u.Table, fmt.Errorf("scheduler: writer: %w", err))
			skipped = append(skipped, u.Table.ID)
			continue
		}

		pipelines = append(pipelines, pipeline{poller: p, writer: w, close: closer})
	}
	return pipelines, skipped
}

// drain cancels the generation, waits for every poller and closes drivers.
func (s *Scheduler) drain(rg *running) {
	rg.cancel()
	rg.wg.Wait()

	for _, p := range rg.pipelines {
		if err := p.close(); err != nil {
			s.log.Warn().Err(err).Int("table_id", p.poller.Table().ID).Msg("driver close failed")
		}
		s.metrics.ForgetTable(p.poller.Table().ID)
	}
	for _, id := range rg.skipped {
		s.metrics.ForgetTable(id)
	}

	s.mu.Lock()
	if s.active == rg.gen {
		s.active = nil
	}
	s.mu.Unlock()

	s.log.Info().
		Str("generation", rg.gen.ID.String()).
		Uint64("seq", rg.gen.Seq).
		Msg("generation drained")
}
