package pg

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"uuid-bench/bench"
)

type dialect struct{}

func (dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (dialect) ColumnType(c bench.Column) string {
	switch c.Kind {
	case bench.KindKey:
		return "uuid"
	case bench.KindInt:
		return "integer"
	case bench.KindDate:
		return "date"
	default:
		return "varchar(" + strconv.Itoa(c.Size) + ")"
	}
}

func (dialect) TableOptions() string { return "" }

// BindKey passes the uuid through; pgx encodes [16]byte as uuid.
func (dialect) BindKey(key uuid.UUID) any { return key }

// PgStatIndex reads btree leaf fragmentation through the pgstattuple
// extension. The primary key index carries PostgreSQL's default name.
type PgStatIndex struct{}

func (PgStatIndex) RefreshStatistics(ctx context.Context, conn bench.Conn, table string) error {
	return conn.Exec(ctx, "ANALYZE "+table)
}

func (PgStatIndex) ReadFragmentation(ctx context.Context, conn bench.Conn, _, table string) (float64, error) {
	values, err := conn.QueryFloats(ctx,
		"SELECT leaf_fragmentation FROM pgstatindex($1::regclass)", table+"_pkey")
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	return values[0], nil
}
