// internal/writer/builder.go
package writer

import (
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/modbus-collector/internal/config"
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
)

// ConfigFrom converts the writer section. Assumes config was normalized.
func ConfigFrom(wc cfg.WriterConfig) Config {
	return Config{
		InsertAttempts: wc.InsertAttempts,
		InsertBackoff:  time.Duration(wc.InsertBackoffMs) * time.Millisecond,
		WriteTimeout:   time.Duration(wc.WriteTimeoutMs) * time.Millisecond,
	}
}

// Factory builds one writer per monitoring table.
type Factory func(t model.MonitoringTable) (*Writer, error)

// NewFactory binds the shared store to per-table writers.
func NewFactory(c Config, s Store, log zerolog.Logger, m *metrics.Metrics) Factory {
	return func(t model.MonitoringTable) (*Writer, error) {
		return New(c, t, s, log, m)
	}
}
