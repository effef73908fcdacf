// Package lite runs the benchmark against SQLite files. Each benchmark
// database is one file in a directory.
package lite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"uuid-bench/bench"
	"uuid-bench/sqlconn"
)

type Engine struct {
	dir string
	log logrus.FieldLogger
}

var _ bench.Engine = (*Engine)(nil)

func New(dir string, log logrus.FieldLogger) *Engine {
	return &Engine{dir: dir, log: log.WithField("component", "sqlite")}
}

func (e *Engine) Name() string { return "sqlite" }

func (e *Engine) Dialect() bench.Dialect { return dialect{} }

func (e *Engine) Fragmentation() bench.FragmentationReader { return DBStat{log: e.log, path: e.Path} }

// Path returns the file backing database name.
func (e *Engine) Path(name string) string {
	return filepath.Join(e.dir, name+".db")
}

// Ping checks that the directory is usable and the driver loads.
func (e *Engine) Ping(ctx context.Context) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()
	return db.PingContext(ctx)
}

func (e *Engine) CreateDatabase(ctx context.Context, name string) error {
	path := e.Path(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database file %s already exists", path)
	}

	conn, err := e.open(ctx, path)
	if err != nil {
		// open may fail after the driver has created the file.
		return errors.Join(err, e.DropDatabase(ctx, name))
	}
	return conn.Close()
}

// DropDatabase removes the database file and its journal files.
func (e *Engine) DropDatabase(_ context.Context, name string) error {
	path := e.Path(name)
	var errs []error
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) Open(ctx context.Context, database string) (bench.Conn, error) {
	path := e.Path(database)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", database, err)
	}
	return e.open(ctx, path)
}

func (e *Engine) open(ctx context.Context, path string) (*sqlconn.Conn, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn, err := sqlconn.Open(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := conn.Exec(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

type dialect struct{}

func (dialect) Placeholder(int) string { return "?" }

func (dialect) ColumnType(c bench.Column) string {
	switch c.Kind {
	case bench.KindKey:
		return "BLOB"
	case bench.KindInt:
		return "INTEGER"
	case bench.KindDate:
		return "DATE"
	default:
		return "VARCHAR(" + strconv.Itoa(c.Size) + ")"
	}
}

// TableOptions makes the primary key the clustered b-tree.
func (dialect) TableOptions() string { return " WITHOUT ROWID" }

func (dialect) BindKey(key uuid.UUID) any { return key[:] }

// DBStat computes logical fragmentation of the table b-tree: the percentage
// of leaf pages, walked in key order, whose page number does not directly
// follow the previous leaf. The dbstat virtual table supplies the leaves when
// the driver is built with it; otherwise the b-tree is walked in the
// database file after a WAL checkpoint.
type DBStat struct {
	log  logrus.FieldLogger
	path func(database string) string
}

func (DBStat) RefreshStatistics(ctx context.Context, conn bench.Conn, _ string) error {
	return conn.Exec(ctx, "ANALYZE")
}

func (r DBStat) ReadFragmentation(ctx context.Context, conn bench.Conn, database, table string) (float64, error) {
	pages, err := conn.QueryFloats(ctx,
		"SELECT pageno FROM dbstat WHERE name = ? AND pagetype = 'leaf' ORDER BY path", table)
	if err != nil {
		if !strings.Contains(err.Error(), "no such table: dbstat") || r.path == nil {
			return 0, err
		}
		if r.log != nil {
			r.log.WithField("table", table).Debug("dbstat unavailable, walking the b-tree from the file")
		}
		pages, err = r.walkFile(ctx, conn, r.path(database), table)
		if err != nil {
			return 0, fmt.Errorf("read b-tree of %s: %w", table, err)
		}
	}
	return LogicalFragmentation(pages), nil
}

func (r DBStat) walkFile(ctx context.Context, conn bench.Conn, path, table string) ([]float64, error) {
	root, err := conn.QueryFloats(ctx,
		"SELECT rootpage FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return nil, err
	}
	if len(root) != 1 || root[0] < 1 {
		return nil, fmt.Errorf("no root page for table %s", table)
	}

	// TRUNCATE empties the WAL only once every frame is in the main file.
	if err := conn.Exec(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, err
	}
	if info, err := os.Stat(path + "-wal"); err == nil && info.Size() > 0 {
		return nil, fmt.Errorf("checkpoint left %d bytes in %s-wal", info.Size(), path)
	}

	leaves, err := LeafPages(path, uint32(root[0]))
	if err != nil {
		return nil, err
	}
	pages := make([]float64, len(leaves))
	for i, p := range leaves {
		pages[i] = float64(p)
	}
	return pages, nil
}

// LogicalFragmentation returns the percentage of out of order pages in a
// key-ordered list of page numbers.
func LogicalFragmentation(pages []float64) float64 {
	if len(pages) < 2 {
		return 0
	}
	var outOfOrder int
	for i := 1; i < len(pages); i++ {
		if pages[i] != pages[i-1]+1 {
			outOfOrder++
		}
	}
	return 100 * float64(outOfOrder) / float64(len(pages))
}
