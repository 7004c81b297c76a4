// internal/driver/builder.go
package driver

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
	pmodbus "github.com/tamzrod/modbus-collector/internal/poller/modbus"
)

// Options are the process-wide driver settings.
type Options struct {
	Backoff time.Duration
	UnitID  uint8
}

// Factory builds one driver per monitoring table.
type Factory func(t model.MonitoringTable) (*Driver, error)

// NewFactory returns a Factory that binds a fresh Modbus TCP client to each
// table. No connection is opened here; the first read dials.
func NewFactory(opts Options, log zerolog.Logger, m *metrics.Metrics) Factory {
	return func(t model.MonitoringTable) (*Driver, error) {
		return Build(t, opts, log, m)
	}
}

// Build constructs a driver for one table's PLC.
func Build(t model.MonitoringTable, opts Options, log zerolog.Logger, m *metrics.Metrics) (*Driver, error) {
	if !t.PLC.IsModbusTCP() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, t.PLC.Protocol)
	}

	client, err := pmodbus.New(pmodbus.Config{
		Endpoint: t.PLC.Endpoint(),
		UnitID:   opts.UnitID,
		Timeout:  t.PLC.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("driver: plc %q: %w", t.PLC.Name, err)
	}

	backoff := opts.Backoff
	if backoff == 0 {
		backoff = DefaultBackoff
	}

	return New(Config{
		PLC:     t.PLC,
		TableID: t.ID,
		Backoff: backoff,
	}, client, log, m)
}
