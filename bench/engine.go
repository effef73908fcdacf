package bench

import (
	"context"

	"github.com/google/uuid"
)

// Engine is the relational engine the harness drives. Implementations live
// in the pg, my and lite packages.
type Engine interface {
	Name() string
	Dialect() Dialect

	// Ping opens and closes a server-level connection.
	Ping(ctx context.Context) error

	CreateDatabase(ctx context.Context, name string) error
	// DropDatabase must succeed when the database does not exist.
	DropDatabase(ctx context.Context, name string) error

	// Open returns a single dedicated connection to database.
	Open(ctx context.Context, database string) (Conn, error)

	Fragmentation() FragmentationReader
}

// Conn is one connection. Statements are never issued concurrently on it.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error

	// Lookup runs a point query, consumes the first row if there is one and
	// reports whether a row was returned.
	Lookup(ctx context.Context, query string, args ...any) (bool, error)

	// QueryFloats returns the first column of every row. NULLs are skipped.
	QueryFloats(ctx context.Context, query string, args ...any) ([]float64, error)

	Close() error
}

// Dialect carries the engine specific pieces of SQL text and binding.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string
	ColumnType(c Column) string
	// TableOptions is appended after the closing parenthesis of CREATE TABLE.
	TableOptions() string
	BindKey(key uuid.UUID) any
}

// FragmentationReader reads the physical fragmentation of a table's primary
// key index, in percent.
type FragmentationReader interface {
	RefreshStatistics(ctx context.Context, conn Conn, table string) error
	ReadFragmentation(ctx context.Context, conn Conn, database, table string) (float64, error)
}
