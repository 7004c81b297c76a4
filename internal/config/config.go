// internal/config/config.go
package config

import "github.com/tamzrod/modbus-collector/internal/logger"

type Config struct {
	Collector CollectorConfig `yaml:"collector"`
}

type CollectorConfig struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   logger.Config   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Driver    DriverConfig    `yaml:"driver"`
	Writer    WriterConfig    `yaml:"writer"`
}

// ---- DATABASE ----

type DatabaseConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SSLMode            string `yaml:"sslmode"`
	ApplicationName    string `yaml:"application_name"`
	MaxConns           int32  `yaml:"max_conns"`
	MinConns           int32  `yaml:"min_conns"`
	StatementTimeoutMs int    `yaml:"statement_timeout_ms"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// ---- SCHEDULER ----

type SchedulerConfig struct {
	ReloadPollIntervalMs int `yaml:"reload_poll_interval_ms"`
	ErrorCooldownMs      int `yaml:"error_cooldown_ms"`
	TagLoadConcurrency   int `yaml:"tag_load_concurrency"`
}

// ---- DRIVER ----

type DriverConfig struct {
	RetryBackoffMs int   `yaml:"retry_backoff_ms"`
	UnitID         uint8 `yaml:"unit_id"`
}

// ---- WRITER ----

type WriterConfig struct {
	InsertAttempts  int `yaml:"insert_attempts"`
	InsertBackoffMs int `yaml:"insert_backoff_ms"`
	WriteTimeoutMs  int `yaml:"write_timeout_ms"`
}
