// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tamzrod/modbus-collector/internal/logger"
)

var sslModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks configuration correctness.
// It performs declarative validation only; zero values mean "default".
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}
	c := cfg.Collector

	// ------------------------------------------------------------
	// DATABASE
	// ------------------------------------------------------------

	db := c.Database
	if strings.TrimSpace(db.Host) == "" {
		return errors.New("collector.database.host is required")
	}
	if strings.TrimSpace(db.Database) == "" {
		return errors.New("collector.database.database is required")
	}
	if strings.TrimSpace(db.User) == "" {
		return errors.New("collector.database.user is required")
	}
	if db.Port < 0 || db.Port > 65535 {
		return fmt.Errorf("collector.database.port %d out of range", db.Port)
	}
	if db.SSLMode != "" && !sslModes[db.SSLMode] {
		return fmt.Errorf("collector.database.sslmode %q is not a libpq sslmode", db.SSLMode)
	}
	if db.MaxConns < 0 || db.MinConns < 0 {
		return errors.New("collector.database.max_conns and min_conns must be >= 0")
	}
	if db.MaxConns > 0 && db.MinConns > db.MaxConns {
		return fmt.Errorf("collector.database.min_conns %d exceeds max_conns %d", db.MinConns, db.MaxConns)
	}
	if db.StatementTimeoutMs < 0 {
		return errors.New("collector.database.statement_timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	if _, err := logger.ParseLevel(c.Logging); err != nil {
		return fmt.Errorf("collector.logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "", "stdout", "stderr", "console":
	default:
		return fmt.Errorf("collector.logging.output %q must be stdout, stderr or console", c.Logging.Output)
	}

	// ------------------------------------------------------------
	// METRICS
	// ------------------------------------------------------------

	if c.Metrics.Enabled && c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("collector.metrics.listen %q: %w", c.Metrics.Listen, err)
		}
	}

	// ------------------------------------------------------------
	// SCHEDULER / DRIVER / WRITER
	// ------------------------------------------------------------

	for name, v := range map[string]int{
		"collector.scheduler.reload_poll_interval_ms": c.Scheduler.ReloadPollIntervalMs,
		"collector.scheduler.error_cooldown_ms":       c.Scheduler.ErrorCooldownMs,
		"collector.scheduler.tag_load_concurrency":    c.Scheduler.TagLoadConcurrency,
		"collector.driver.retry_backoff_ms":           c.Driver.RetryBackoffMs,
		"collector.writer.insert_attempts":            c.Writer.InsertAttempts,
		"collector.writer.insert_backoff_ms":          c.Writer.InsertBackoffMs,
		"collector.writer.write_timeout_ms":           c.Writer.WriteTimeoutMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", name, v)
		}
	}

	return nil
}
