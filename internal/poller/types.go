// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/modbus-collector/internal/model"
)

// Result is everything one poll iteration produced.
// Measurements all share Timestamp.
type Result struct {
	TableID   int
	TableName string
	PLCID     int
	Timestamp time.Time
	Requested int

	Measurements []model.Measurement
	Logs         []model.SystemLogEntry

	// Outcome is one of metrics.Outcome*.
	Outcome string

	// Err is the hard driver failure, if any. Measurements is empty when set.
	Err error

	// Cause joins the per-tag failures of an empty result.
	Cause error
}

// Sink consumes results. Write is called from the poller goroutine, one
// result at a time, in timestamp order.
type Sink interface {
	Write(ctx context.Context, res Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res Result) error

func (f SinkFunc) Write(ctx context.Context, res Result) error { return f(ctx, res) }
