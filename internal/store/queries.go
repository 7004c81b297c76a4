// internal/store/queries.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tamzrod/modbus-collector/internal/address"
	"github.com/tamzrod/modbus-collector/internal/decode"
	"github.com/tamzrod/modbus-collector/internal/model"
)

// NULL settings take their column defaults: port 502, timeout 2000 ms,
// 3 retries and a 1000 ms polling interval.
const selectActiveTables = `
SELECT mt.id, mt.name, COALESCE(mt.polling_interval_ms, 1000), mt.is_active,
       p.id, p.name, p.ip_address, COALESCE(p.port, 502), COALESCE(p.protocol, ''),
       COALESCE(p.timeout_ms, 2000), COALESCE(p.retry_count, 3),
       COALESCE(p.manufacturer, ''), COALESCE(p.address_offset, 0), COALESCE(p.word_order, '')
FROM monitoring_tables mt
INNER JOIN plcs p ON mt.plc_id = p.id
WHERE mt.is_active = true AND p.is_active = true
ORDER BY mt.id`

const selectActiveTags = `
SELECT id, monitoring_table_id, name, plc_address, data_type,
       COALESCE(unit, ''), COALESCE(description, ''), is_active
FROM tags
WHERE monitoring_table_id = $1 AND is_active = true
ORDER BY id`

const insertSystemLog = `
INSERT INTO system_logs (level, message, exception, plc_id, created_at)
VALUES ($1, $2, $3, $4, $5)`

var measurementColumns = []string{"tag_id", "timestamp", "value"}

// ActiveMonitoringTables returns active tables of active PLCs, each carrying
// its PLC config.
func (d *DB) ActiveMonitoringTables(ctx context.Context) ([]model.MonitoringTable, error) {
	rows, err := d.executor.Query(ctx, selectActiveTables)
	if err != nil {
		return nil, fmt.Errorf("store: query monitoring tables: %w", err)
	}
	defer rows.Close()

	var tables []model.MonitoringTable
	for rows.Next() {
		t, err := d.scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate monitoring tables: %w", err)
	}
	return tables, nil
}

func (d *DB) scanTable(row pgx.Row) (model.MonitoringTable, error) {
	var (
		t            model.MonitoringTable
		p            model.PlcConfig
		intervalMs   int
		timeoutMs    int
		manufacturer string
		wordOrder    string
	)
	if err := row.Scan(
		&t.ID, &t.Name, &intervalMs, &t.Active,
		&p.ID, &p.Name, &p.Host, &p.Port, &p.Protocol,
		&timeoutMs, &p.RetryCount,
		&manufacturer, &p.AddressOffset, &wordOrder,
	); err != nil {
		return model.MonitoringTable{}, fmt.Errorf("store: scan monitoring table: %w", err)
	}

	p.Manufacturer = address.ParseManufacturer(manufacturer)
	p.Timeout = time.Duration(timeoutMs) * time.Millisecond

	order, err := decode.ParseWordOrder(wordOrder)
	if err != nil {
		d.log.Warn().Err(err).
			Int("plc_id", p.ID).
			Str("word_order", wordOrder).
			Msg("unknown word order, using low word first")
		order = decode.LowWordFirst
	}
	p.WordOrder = order

	t.PLC = p
	t.PollingInterval = time.Duration(intervalMs) * time.Millisecond
	return t, nil
}

// ActiveTags returns the active tags of one table in id order.
func (d *DB) ActiveTags(ctx context.Context, tableID int) ([]model.Tag, error) {
	rows, err := d.executor.Query(ctx, selectActiveTags, tableID)
	if err != nil {
		return nil, fmt.Errorf("store: query tags of table %d: %w", tableID, err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(
			&t.ID, &t.TableID, &t.Name, &t.Address, &t.DataType,
			&t.Unit, &t.Description, &t.Active,
		); err != nil {
			return nil, fmt.Errorf("store: scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate tags of table %d: %w", tableID, err)
	}
	return tags, nil
}

// InsertMeasurements copies the batch in one transaction: all rows or none.
func (d *DB) InsertMeasurements(ctx context.Context, batch []model.Measurement) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := d.executor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin measurements tx: %w", err)
	}
	// no-op after commit
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"measurements"}, measurementColumns,
		pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
			m := batch[i]
			return []any{int32(m.TagID), m.Timestamp.UTC(), m.Value}, nil
		}))
	if err != nil {
		return fmt.Errorf("store: copy measurements: %w", err)
	}
	if n != int64(len(batch)) {
		return fmt.Errorf("store: copied %d of %d measurements", n, len(batch))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit measurements: %w", err)
	}
	return nil
}

// InsertSystemLog appends one operator entry. An empty Exception is stored as NULL.
func (d *DB) InsertSystemLog(ctx context.Context, e model.SystemLogEntry) error {
	var exception *string
	if e.Exception != "" {
		exception = &e.Exception
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = d.now()
	}

	if _, err := d.executor.Exec(ctx, insertSystemLog,
		string(e.Level), e.Message, exception, e.PlcID, createdAt.UTC(),
	); err != nil {
		return fmt.Errorf("store: insert system log: %w", err)
	}
	return nil
}
