// internal/store/partitions_test.go
package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthPartitions(t *testing.T) {
	cases := []struct {
		now   time.Time
		names []string
		to    string
	}{
		{testNow, []string{"measurements_y2026m10", "measurements_y2026m11"}, "2026-12-01"},
		{time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC), []string{"measurements_y2026m12", "measurements_y2027m01"}, "2027-02-01"},
		{time.Date(2027, time.January, 31, 12, 0, 0, 0, time.UTC), []string{"measurements_y2027m01", "measurements_y2027m02"}, "2027-03-01"},
	}

	for _, c := range cases {
		parts := monthPartitions(c.now)
		require.Len(t, parts, 2)
		require.Equal(t, c.names, []string{parts[0].Name, parts[1].Name})
		require.Equal(t, parts[0].To, parts[1].From)
		require.Equal(t, c.to, parts[1].To.Format(time.DateOnly))
	}
}

func TestPartitionDDL(t *testing.T) {
	p := monthPartitions(testNow)[0]
	require.Equal(t,
		`CREATE TABLE IF NOT EXISTS "measurements_y2026m10" PARTITION OF measurements FOR VALUES FROM ('2026-10-01') TO ('2026-11-01')`,
		p.ddl())
}

func TestEnsureStoragePartitions_Idempotent(t *testing.T) {
	ex := &fakeExecutor{}
	db := newTestDB(ex, testNow)

	require.NoError(t, db.EnsureStoragePartitions(context.Background()))
	require.NoError(t, db.EnsureStoragePartitions(context.Background()))

	perCall := len(schemaStatements) + 2
	require.Len(t, ex.execs, 2*perCall)
	for _, e := range ex.execs {
		require.Contains(t, e.sql, "IF NOT EXISTS")
	}

	var partitions []string
	for _, e := range ex.execs[:perCall] {
		if strings.Contains(e.sql, "PARTITION OF measurements") {
			partitions = append(partitions, e.sql)
		}
	}
	require.Len(t, partitions, 2)
	require.Contains(t, partitions[1], "measurements_y2026m11")
}

func TestEnsureStoragePartitions_Error(t *testing.T) {
	db := newTestDB(&fakeExecutor{execErr: errFakeQuery}, testNow)

	err := db.EnsureStoragePartitions(context.Background())
	require.ErrorIs(t, err, errFakeQuery)
	require.Contains(t, err.Error(), "ensure schema")
}
