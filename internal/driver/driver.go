// internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/address"
	"github.com/tamzrod/modbus-collector/internal/decode"
	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
	pmodbus "github.com/tamzrod/modbus-collector/internal/poller/modbus"
	"github.com/tamzrod/modbus-collector/internal/retry"
)

// DefaultBackoff is the pause between batch attempts after a connection failure.
const DefaultBackoff = time.Second

var (
	// ErrReadFailed means every attempt of a batch hit a connection failure.
	ErrReadFailed = errors.New("driver: read failed")

	// ErrUnsupportedProtocol is returned when a PLC is not Modbus TCP.
	ErrUnsupportedProtocol = errors.New("driver: unsupported protocol")
)

// Transport is the slice of the Modbus client the driver needs.
type Transport interface {
	Connect(ctx context.Context) error
	Close() error
	Connected() bool
	ReadRegion(region address.Region, offset, count uint16) (pmodbus.Readout, error)
}

// TagFailure records why one tag produced no value.
type TagFailure struct {
	Tag    model.Tag
	Reason string // metrics.Reason*
	Err    error
}

// Readings is the best-effort outcome of one batch.
// A tag is either in Values or in Failures, never both.
type Readings struct {
	Values   map[int]float64
	Failures []TagFailure
}

// Missing returns the requested tags that have no value, in request order.
func (r Readings) Missing(tags []model.Tag) []model.Tag {
	var out []model.Tag
	for _, t := range tags {
		if _, ok := r.Values[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Config is the per-driver runtime config.
type Config struct {
	PLC     model.PlcConfig
	TableID int
	Backoff time.Duration
}

// Driver reads tags from one PLC over one exclusively owned transport.
// It is not safe for concurrent use; each table poller owns its driver.
type Driver struct {
	cfg       Config
	transport Transport
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// New validates config and binds the transport.
func New(cfg Config, t Transport, log zerolog.Logger, m *metrics.Metrics) (*Driver, error) {
	if t == nil {
		return nil, errors.New("driver: transport required")
	}
	if !cfg.PLC.IsModbusTCP() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, cfg.PLC.Protocol)
	}
	if cfg.PLC.RetryCount < 0 {
		return nil, errors.New("driver: retry count must be >= 0")
	}
	if cfg.Backoff < 0 {
		return nil, errors.New("driver: backoff must be >= 0")
	}

	return &Driver{
		cfg:       cfg,
		transport: t,
		log: log.With().
			Int("plc_id", cfg.PLC.ID).
			Str("plc", cfg.PLC.Name).
			Str("endpoint", cfg.PLC.Endpoint()).
			Logger(),
		metrics: m,
	}, nil
}

// PLC returns the bound PLC config.
func (d *Driver) PLC() model.PlcConfig { return d.cfg.PLC }

// ReadTags reads every tag it can.
//
// Resolution, read and decode failures of single tags are reported in
// Failures and never retried. A connection failure aborts the batch, closes
// the transport and restarts the whole batch after the backoff, for at most
// RetryCount+1 attempts. Exhaustion returns an error wrapping ErrReadFailed.
func (d *Driver) ReadTags(ctx context.Context, tags []model.Tag) (Readings, error) {
	var out Readings

	policy := retry.Policy{
		Attempts:  d.cfg.PLC.RetryCount + 1,
		Backoff:   d.cfg.Backoff,
		Retryable: pmodbus.IsConnectionError,
		OnRetry: func(attempt int, err error, next time.Duration) {
			d.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", d.cfg.PLC.RetryCount+1).
				Dur("backoff", next).
				Msg("connection failure, retrying batch")
		},
	}

	err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		r, err := d.readBatch(ctx, tags)
		if err != nil {
			if pmodbus.IsConnectionError(err) {
				d.reset()
			}
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Readings{}, err
		}
		return Readings{}, fmt.Errorf("%w: plc %q at %s: %w", ErrReadFailed, d.cfg.PLC.Name, d.cfg.PLC.Endpoint(), err)
	}
	return out, nil
}

// Probe opens and closes one connection.
func (d *Driver) Probe(ctx context.Context) error {
	defer d.transport.Close()
	return d.transport.Connect(ctx)
}

// Close releases the transport.
func (d *Driver) Close() error {
	return d.transport.Close()
}

func (d *Driver) reset() {
	if err := d.transport.Close(); err != nil {
		d.log.Debug().Err(err).Msg("close after failure")
	}
	d.metrics.Reconnect(d.cfg.PLC.ID)
}

func (d *Driver) readBatch(ctx context.Context, tags []model.Tag) (Readings, error) {
	if !d.transport.Connected() {
		if err := d.transport.Connect(ctx); err != nil {
			return Readings{}, err
		}
	}

	r := Readings{Values: make(map[int]float64, len(tags))}
	for _, tag := range tags {
		if err := ctx.Err(); err != nil {
			return Readings{}, err
		}

		v, reason, err := d.readTag(tag)
		if err != nil {
			if pmodbus.IsConnectionError(err) {
				return Readings{}, err
			}
			r.Failures = append(r.Failures, TagFailure{Tag: tag, Reason: reason, Err: err})
			d.metrics.TagFailure(d.cfg.TableID, reason)
			continue
		}
		r.Values[tag.ID] = v
	}
	return r, nil
}

func (d *Driver) readTag(tag model.Tag) (float64, string, error) {
	plc := d.cfg.PLC

	addr, err := address.Resolve(tag.Address, plc.Manufacturer, plc.AddressOffset)
	if err != nil {
		return 0, metrics.ReasonUnresolved, err
	}

	dt := decode.ParseDataType(tag.DataType)
	count := uint16(1)
	if addr.Region.IsRegister() && addr.Bit == nil {
		count = dt.Words()
	}

	raw, err := d.transport.ReadRegion(addr.Region, addr.Offset, count)
	if err != nil {
		return 0, metrics.ReasonRead, fmt.Errorf("read %s: %w", addr, err)
	}

	if !addr.Region.IsRegister() {
		if len(raw.Bits) == 0 {
			return 0, metrics.ReasonRead, fmt.Errorf("read %s: no bits returned", addr)
		}
		return decode.Bit(raw.Bits[0]), "", nil
	}

	v, err := decode.Registers(raw.Words, dt, addr.Bit, plc.WordOrder)
	if err != nil {
		return 0, metrics.ReasonDecode, fmt.Errorf("decode %s as %s: %w", addr, dt, err)
	}
	return v, "", nil
}
