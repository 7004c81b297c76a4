// internal/store/partitions.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS system_logs (
		id SERIAL PRIMARY KEY,
		level VARCHAR(20) NOT NULL,
		message TEXT NOT NULL,
		exception TEXT,
		plc_id INTEGER REFERENCES plcs(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS collector_signals (
		id SERIAL PRIMARY KEY,
		signal_type VARCHAR(50) NOT NULL,
		is_processed BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`ALTER TABLE plcs ADD COLUMN IF NOT EXISTS word_order VARCHAR(20) DEFAULT 'low_word_first'`,
}

// partition is one monthly child table of measurements.
type partition struct {
	Name string
	From time.Time
	To   time.Time
}

// monthPartitions returns the partitions for the month of now and the next one.
func monthPartitions(now time.Time) []partition {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]partition, 0, 2)
	for i := 0; i < 2; i++ {
		from := first.AddDate(0, i, 0)
		out = append(out, partition{
			Name: fmt.Sprintf("measurements_y%04dm%02d", from.Year(), int(from.Month())),
			From: from,
			To:   from.AddDate(0, 1, 0),
		})
	}
	return out
}

func (p partition) ddl() string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s PARTITION OF measurements FOR VALUES FROM ('%s') TO ('%s')",
		pgx.Identifier{p.Name}.Sanitize(),
		p.From.Format(time.DateOnly),
		p.To.Format(time.DateOnly),
	)
}

// EnsureStoragePartitions creates the auxiliary tables and the measurement
// partitions for the current and next month. Safe to call repeatedly.
func (d *DB) EnsureStoragePartitions(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.executor.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}

	for _, p := range monthPartitions(d.now()) {
		if _, err := d.executor.Exec(ctx, p.ddl()); err != nil {
			return fmt.Errorf("store: ensure partition %s: %w", p.Name, err)
		}
		d.log.Debug().Str("partition", p.Name).Msg("measurement partition ensured")
	}
	return nil
}
