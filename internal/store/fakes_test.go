// internal/store/fakes_test.go
package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

var errFakeQuery = errors.New("query failed")

type execCall struct {
	sql  string
	args []any
}

type fakeExecutor struct {
	execs   []execCall
	execErr error
	execTag string

	queries  []execCall
	rows     *fakeRows
	queryErr error

	row fakeRow

	tx       *fakeTx
	beginErr error
	begins   int
}

func (f *fakeExecutor) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag(f.execTag), nil
}

func (f *fakeExecutor) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeExecutor) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return f.row
}

func (f *fakeExecutor) Begin(context.Context) (pgx.Tx, error) {
	f.begins++
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

// fakeRows serves fixed rows; Scan requires exact destination types.
type fakeRows struct {
	pgx.Rows

	data   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.pos-1], dest)
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) Close() { r.closed = true }

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.vals, dest)
}

func assign(vals, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(vals), len(dest))
	}
	for i := range dest {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

type fakeTx struct {
	pgx.Tx

	table   pgx.Identifier
	columns []string
	copied  [][]any
	copyErr error

	committed  bool
	rolledBack bool
}

func (t *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	t.table = table
	t.columns = columns
	if t.copyErr != nil {
		return 0, t.copyErr
	}
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		t.copied = append(t.copied, vals)
	}
	return int64(len(t.copied)), src.Err()
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

func newTestDB(ex *fakeExecutor, now time.Time) *DB {
	return &DB{
		executor: ex,
		log:      zerolog.Nop(),
		now:      func() time.Time { return now },
	}
}
