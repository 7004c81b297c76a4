// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-collector/internal/model"
)

// ErrNilPool is returned when the store is built without a pool.
var ErrNilPool = errors.New("store: pool is nil")

// Store is everything the collector needs from the database.
type Store interface {
	ActiveMonitoringTables(ctx context.Context) ([]model.MonitoringTable, error)
	ActiveTags(ctx context.Context, tableID int) ([]model.Tag, error)
	InsertMeasurements(ctx context.Context, batch []model.Measurement) error
	EnsureStoragePartitions(ctx context.Context) error
	InsertSystemLog(ctx context.Context, e model.SystemLogEntry) error
	HasPendingReloadSignal(ctx context.Context) (bool, error)
	MarkReloadSignalsProcessed(ctx context.Context) error
}

// executor is the part of *pgxpool.Pool the store uses.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is the PostgreSQL implementation of Store.
type DB struct {
	executor executor
	log      zerolog.Logger
	now      func() time.Time
}

var _ Store = (*DB)(nil)

// New wraps a connected pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) (*DB, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	return &DB{executor: pool, log: log, now: time.Now}, nil
}
