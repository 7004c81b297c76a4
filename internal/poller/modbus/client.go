// internal/poller/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-collector/internal/address"
)

// DefaultUnitID is the slave id every PLC is addressed with.
const DefaultUnitID uint8 = 1

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// Readout is the raw result of one region read.
// Exactly one of the slices is set, depending on the region.
type Readout struct {
	Words []uint16 // FC 3,4
	Bits  []bool   // FC 1,2
}

// Client owns one TCP connection to one PLC.
// It never disconnects on its own after a failed read; the caller decides.
type Client struct {
	cfg Config

	mu        sync.Mutex
	handler   *modbus.TCPClientHandler
	client    modbus.Client
	connected bool
}

// New validates config. It does not dial.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("modbus client: timeout must be > 0")
	}
	if cfg.UnitID == 0 {
		cfg.UnitID = DefaultUnitID
	}
	return &Client{cfg: cfg}, nil
}

// Endpoint returns host:port.
func (c *Client) Endpoint() string { return c.cfg.Endpoint }

// Connect dials the endpoint. Dial, read and write all use cfg.Timeout.
// Calling Connect while connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	h := modbus.NewTCPClientHandler(c.cfg.Endpoint)
	h.Timeout = c.cfg.Timeout
	h.SlaveId = c.cfg.UnitID

	if err := h.Connect(); err != nil {
		_ = h.Close()
		return fmt.Errorf("%w: connect %s: %w", ErrConnection, c.cfg.Endpoint, err)
	}

	c.handler = h
	c.client = modbus.NewClient(h)
	c.connected = true
	return nil
}

// Close releases the session and socket. Safe in any state.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		c.connected = false
		return nil
	}

	err := c.handler.Close()
	c.handler = nil
	c.client = nil
	c.connected = false
	return err
}

// Connected reports the lifecycle state.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ReadRegion issues the region's read function for count items at offset.
func (c *Client) ReadRegion(region address.Region, offset, count uint16) (Readout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.client == nil {
		return Readout{}, ErrNotConnected
	}
	if count == 0 {
		return Readout{}, nil
	}

	var (
		raw []byte
		err error
	)
	switch region {
	case address.Coil:
		raw, err = c.client.ReadCoils(offset, count)
	case address.DiscreteInput:
		raw, err = c.client.ReadDiscreteInputs(offset, count)
	case address.InputRegister:
		raw, err = c.client.ReadInputRegisters(offset, count)
	case address.HoldingRegister:
		raw, err = c.client.ReadHoldingRegisters(offset, count)
	default:
		return Readout{}, fmt.Errorf("modbus client: unsupported region %d", region)
	}
	if err != nil {
		return Readout{}, classify(err)
	}

	if region.IsRegister() {
		words := unpackRegisters(raw)
		if len(words) < int(count) {
			return Readout{}, fmt.Errorf("modbus: short read: got %d registers, want %d", len(words), count)
		}
		return Readout{Words: words[:count]}, nil
	}

	if len(raw)*8 < int(count) {
		return Readout{}, fmt.Errorf("modbus: short read: got %d bytes for %d bits", len(raw), count)
	}
	return Readout{Bits: unpackBits(raw, int(count))}, nil
}

// ---- helpers (pure geometry) ----

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if byteIdx >= len(data) {
			continue
		}
		out[i] = data[byteIdx]&(1<<bitIdx) != 0
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
