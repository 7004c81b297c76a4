// internal/writer/writer_test.go
package writer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-collector/internal/metrics"
	"github.com/tamzrod/modbus-collector/internal/model"
	"github.com/tamzrod/modbus-collector/internal/poller"
)

// ---- fake store ----

type fakeStore struct {
	failMeasurements int // fail the first n calls
	failLogs         bool

	measurementCalls int
	batches          [][]model.Measurement
	logs             []model.SystemLogEntry
	ctxErrs          []error
}

func (f *fakeStore) InsertMeasurements(ctx context.Context, batch []model.Measurement) error {
	f.measurementCalls++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.measurementCalls <= f.failMeasurements {
		return errors.New("connection terminated")
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) InsertSystemLog(_ context.Context, e model.SystemLogEntry) error {
	if f.failLogs {
		return errors.New("relation system_logs does not exist")
	}
	f.logs = append(f.logs, e)
	return nil
}

// ---- helpers ----

var ts = time.Date(2026, 6, 1, 8, 0, 5, 0, time.UTC)

func table() model.MonitoringTable {
	return model.MonitoringTable{
		ID:              21,
		Name:            "kiln",
		PLC:             model.PlcConfig{ID: 4, Name: "plc-k", Protocol: model.ProtocolModbusTCP},
		PollingInterval: 5 * time.Second,
	}
}

func newWriter(t *testing.T, s Store, log zerolog.Logger) *Writer {
	t.Helper()
	w, err := New(Config{
		InsertAttempts: 3,
		InsertBackoff:  time.Millisecond,
	}, table(), s, log, nil)
	require.NoError(t, err)
	return w
}

func plcID() *int { id := 4; return &id }

func partial() poller.Result {
	return poller.Result{
		TableID:   21,
		TableName: "kiln",
		PLCID:     4,
		Timestamp: ts,
		Requested: 5,
		Outcome:   metrics.OutcomePartial,
		Measurements: []model.Measurement{
			{TagID: 1, Timestamp: ts, Value: 1},
			{TagID: 2, Timestamp: ts, Value: 2},
			{TagID: 3, Timestamp: ts, Value: 3},
		},
		Logs: []model.SystemLogEntry{
			{Level: model.LevelWarning, Message: "tag 4 missing", PlcID: plcID()},
			{Level: model.LevelWarning, Message: "tag 5 missing", PlcID: plcID()},
		},
	}
}

// ---- tests ----

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{InsertAttempts: 1}, table(), nil, zerolog.Nop(), nil)
	require.Error(t, err)

	_, err = New(Config{}, table(), &fakeStore{}, zerolog.Nop(), nil)
	require.Error(t, err)

	w, err := New(Config{InsertAttempts: 1}, table(), &fakeStore{}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.Equal(t, DefaultWriteTimeout, w.cfg.WriteTimeout)
}

func TestWrite_PartialResult(t *testing.T) {
	s := &fakeStore{}
	w := newWriter(t, s, zerolog.Nop())

	require.NoError(t, w.Write(context.Background(), partial()))

	require.Len(t, s.batches, 1)
	require.Len(t, s.batches[0], 3)
	for _, m := range s.batches[0] {
		require.Equal(t, ts, m.Timestamp)
	}
	require.Len(t, s.logs, 2)
	require.Equal(t, model.LevelWarning, s.logs[0].Level)
}

func TestWrite_RetriesBatchInsert(t *testing.T) {
	s := &fakeStore{failMeasurements: 2}
	var buf bytes.Buffer
	w := newWriter(t, s, zerolog.New(&buf))

	require.NoError(t, w.Write(context.Background(), partial()))

	require.Equal(t, 3, s.measurementCalls)
	require.Len(t, s.batches, 1)
	require.Equal(t, 2, strings.Count(buf.String(), "measurements insert failed, retrying"))
}

func TestWrite_BatchInsertExhausted(t *testing.T) {
	s := &fakeStore{failMeasurements: 100}
	w := newWriter(t, s, zerolog.Nop())

	err := w.Write(context.Background(), partial())
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert 3 measurements")

	require.Equal(t, 3, s.measurementCalls)
	require.Empty(t, s.batches)

	// the two tag warnings plus one storage error
	require.Len(t, s.logs, 3)
	last := s.logs[2]
	require.Equal(t, model.LevelError, last.Level)
	require.Contains(t, last.Message, "kiln")
	require.Contains(t, last.Exception, "connection terminated")
	require.Equal(t, 4, *last.PlcID)
}

func TestWrite_SystemLogFailureReported(t *testing.T) {
	s := &fakeStore{failLogs: true}
	w := newWriter(t, s, zerolog.Nop())

	err := w.Write(context.Background(), partial())
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert system log")
	require.Len(t, s.batches, 1)
}

func TestWrite_StoresResultOfCancelledGeneration(t *testing.T) {
	s := &fakeStore{}
	w := newWriter(t, s, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, w.Write(ctx, partial()))
	require.Len(t, s.batches, 1)
	require.NoError(t, s.ctxErrs[0])
}

func TestWrite_MirrorsEntriesToProcessLog(t *testing.T) {
	var buf bytes.Buffer
	s := &fakeStore{}
	w := newWriter(t, s, zerolog.New(&buf))

	res := poller.Result{
		TableID:   21,
		PLCID:     4,
		Timestamp: ts,
		Requested: 2,
		Outcome:   metrics.OutcomeFailed,
		Err:       errors.New("driver: read failed"),
		Logs: []model.SystemLogEntry{
			{Level: model.LevelError, Message: "Cannot communicate with PLC plc-k", Exception: "driver: read failed", PlcID: plcID()},
		},
	}
	require.NoError(t, w.Write(context.Background(), res))

	out := buf.String()
	require.Contains(t, out, `"level":"error"`)
	require.Contains(t, out, `"message":"Cannot communicate with PLC plc-k"`)
	require.Contains(t, out, `"exception":"driver: read failed"`)
	require.Contains(t, out, `"table":"kiln"`)
	require.Equal(t, 1, strings.Count(out, "table health changed"))
}
