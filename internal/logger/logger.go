// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects level and sink of the process log.
type Config struct {
	Level      string `yaml:"level"`
	Debug      bool   `yaml:"debug"`
	Output     string `yaml:"output"` // stdout | stderr | console
	TimeFormat string `yaml:"time_format"`
}

// New builds the root logger. It also becomes zerolog's global logger.
func New(cfg Config) (zerolog.Logger, error) {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case "console":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}
	default:
		return zerolog.Nop(), fmt.Errorf("logger: unknown output %q", cfg.Output)
	}

	level, err := ParseLevel(cfg)
	if err != nil {
		return zerolog.Nop(), err
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	l := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = l
	return l, nil
}

// ParseLevel resolves the effective level; Debug wins over Level.
func ParseLevel(cfg Config) (zerolog.Level, error) {
	if cfg.Debug {
		return zerolog.DebugLevel, nil
	}
	if cfg.Level == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logger: %w", err)
	}
	return level, nil
}

// WithComponent tags every event of l with component=name.
func WithComponent(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
