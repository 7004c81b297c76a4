// internal/poller/builder.go
package poller

import (
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/driver"
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
)

// Build constructs a Poller with its own driver.
// The returned closer releases the driver's connection; call it after Run returns.
func Build(t model.MonitoringTable, tags []model.Tag, newDriver driver.Factory, log zerolog.Logger, m *metrics.Metrics) (*Poller, func() error, error) {
	d, err := newDriver(t)
	if err != nil {
		return nil, nil, err
	}

	p, err := New(Config{Table: t, Tags: tags}, d, log, m)
	if err != nil {
		_ = d.Close()
		return nil, nil, err
	}

	return p, d.Close, nil
}
