// internal/writer/types.go
package writer

import (
	"context"
	"time"

	"github.com/tamzrod/modbus-collector/internal/model"
)

// Store is the slice of the storage contract the writer needs.
type Store interface {
	InsertMeasurements(ctx context.Context, batch []model.Measurement) error
	InsertSystemLog(ctx context.Context, entry model.SystemLogEntry) error
}

// Config bounds the writer's local retry.
type Config struct {
	InsertAttempts int
	InsertBackoff  time.Duration

	// WriteTimeout bounds one Write. A result that reached the writer is
	// stored even while its generation is being cancelled.
	WriteTimeout time.Duration
}

// Defaults.
const (
	DefaultInsertAttempts = 3
	DefaultInsertBackoff  = 500 * time.Millisecond
	DefaultWriteTimeout   = 30 * time.Second
)
