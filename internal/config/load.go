// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is parsed.
const (
	EnvDBHost        = "COLLECTOR_DB_HOST"
	EnvDBPassword    = "COLLECTOR_DB_PASSWORD"
	EnvLogLevel      = "COLLECTOR_LOG_LEVEL"
	EnvMetricsListen = "COLLECTOR_METRICS_LISTEN"
)

// Load reads a YAML file and applies environment overrides.
// It does not validate or normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw, os.Getenv)
}

// Parse decodes YAML; getenv supplies the overrides (nil disables them).
// Unknown keys are rejected; an empty document yields a zero Config.
func Parse(raw []byte, getenv func(string) string) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if getenv != nil {
		applyEnv(&cfg, getenv)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	c := &cfg.Collector
	if v := getenv(EnvDBHost); v != "" {
		c.Database.Host = v
	}
	if v := getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvMetricsListen); v != "" {
		c.Metrics.Listen = v
	}
}
