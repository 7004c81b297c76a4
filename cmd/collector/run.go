// cmd/collector/run.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-collector/internal/config"
	"github.com/tamzrod/modbus-collector/internal/driver"
	"github.com/tamzrod/modbus-collector/internal/logger"
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/scheduler"
	"github.com/tamzrod/modbus-collector/internal/store"
	"github.com/tamzrod/modbus-collector/internal/writer"
)

var runExample = `
collector run --config /etc/modbus-collector/collector.yaml
`

func newRunCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run the polling daemon until SIGINT or SIGTERM",
		Example: runExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCollector(ctx, cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "collector.yaml", "path to the YAML config file")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func runCollector(ctx context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	c := cfg.Collector

	log, err := logger.New(c.Logging)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	pool, err := store.NewPool(ctx, c.Database, logger.WithComponent(log, "store"))
	if err != nil {
		return err
	}
	defer pool.Close()

	db, err := store.New(pool, logger.WithComponent(log, "store"))
	if err != nil {
		return err
	}

	newDriver := driver.NewFactory(driver.Options{
		Backoff: time.Duration(c.Driver.RetryBackoffMs) * time.Millisecond,
		UnitID:  c.Driver.UnitID,
	}, logger.WithComponent(log, "driver"), m)
	newWriter := writer.NewFactory(writer.ConfigFrom(c.Writer), db, logger.WithComponent(log, "writer"), m)

	sched, err := scheduler.New(scheduler.ConfigFrom(c.Scheduler), db, newDriver, newWriter,
		logger.WithComponent(log, "scheduler"), m)
	if err != nil {
		return err
	}

	log.Info().Str("config", cfgPath).Msg("collector starting")

	g, gctx := errgroup.WithContext(ctx)
	if c.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, c.Metrics.Listen, reg, logger.WithComponent(log, "metrics"))
		})
	}
	g.Go(func() error { return sched.Run(gctx) })

	err = g.Wait()
	log.Info().Msg("collector stopped")
	return err
}
