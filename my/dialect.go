package my

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"uuid-bench/bench"
)

type dialect struct{}

func (dialect) Placeholder(int) string { return "?" }

func (dialect) ColumnType(c bench.Column) string {
	switch c.Kind {
	case bench.KindKey:
		return "BINARY(16)"
	case bench.KindInt:
		return "INT"
	case bench.KindDate:
		return "DATE"
	default:
		return "VARCHAR(" + strconv.Itoa(c.Size) + ")"
	}
}

func (dialect) TableOptions() string { return " ENGINE=InnoDB" }

// BindKey stores the raw 16 bytes, which InnoDB compares bytewise.
func (dialect) BindKey(key uuid.UUID) any { return key[:] }

// TableStats estimates fragmentation of the clustered index as the share of
// free space in the table's tablespace, as reported by information_schema
// after ANALYZE TABLE.
type TableStats struct{}

func (TableStats) RefreshStatistics(ctx context.Context, conn bench.Conn, table string) error {
	// MySQL 8 caches information_schema statistics. MariaDB has no such
	// variable, so the error is ignored.
	_ = conn.Exec(ctx, "SET SESSION information_schema_stats_expiry = 0")
	// ANALYZE TABLE returns a status row per table.
	_, err := conn.Lookup(ctx, "ANALYZE TABLE "+table)
	return err
}

func (TableStats) ReadFragmentation(ctx context.Context, conn bench.Conn, database, table string) (float64, error) {
	values, err := conn.QueryFloats(ctx, `
		SELECT COALESCE(100 * DATA_FREE / NULLIF(DATA_LENGTH + DATA_FREE, 0), 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`, database, table)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	return values[0], nil
}
