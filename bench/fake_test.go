package bench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// fakeEngine is an in-memory engine that understands the statements the
// harness issues.
type fakeEngine struct {
	mu sync.Mutex

	pingErr error
	// createErr is returned by CreateDatabase after the database exists.
	createErr error
	// failExec, when set, is consulted before every statement.
	failExec func(query string) error
	frag     float64

	databases map[string]map[string]*fakeTable
	creates   int
	drops     []string
	opened    int
	closed    int
	statement []string
}

type fakeTable struct {
	width int
	rows  map[uuid.UUID]struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{databases: make(map[string]map[string]*fakeTable), frag: 42}
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Dialect() Dialect { return fakeDialect{} }

func (e *fakeEngine) Ping(context.Context) error { return e.pingErr }

func (e *fakeEngine) CreateDatabase(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.databases[name]; ok {
		return fmt.Errorf("database %q already exists", name)
	}
	e.databases[name] = make(map[string]*fakeTable)
	e.creates++
	return e.createErr
}

func (e *fakeEngine) DropDatabase(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.databases, name)
	e.drops = append(e.drops, name)
	return nil
}

func (e *fakeEngine) Open(ctx context.Context, database string) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.databases[database]; !ok {
		return nil, fmt.Errorf("unknown database %q", database)
	}
	e.opened++
	return &fakeConn{engine: e, database: database}, nil
}

func (e *fakeEngine) Fragmentation() FragmentationReader { return fakeFragmentation{engine: e} }

func (e *fakeEngine) tables(database string) map[string]*fakeTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.databases[database]
}

type fakeDialect struct{}

func (fakeDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (fakeDialect) ColumnType(c Column) string {
	switch c.Kind {
	case KindKey:
		return "UUID"
	case KindText:
		return fmt.Sprintf("TEXT(%d)", c.Size)
	default:
		return "VALUE"
	}
}

func (fakeDialect) TableOptions() string { return "" }

func (fakeDialect) BindKey(key uuid.UUID) any { return key }

type fakeConn struct {
	engine   *fakeEngine
	database string
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...any) error {
	if err := c.check(ctx, query); err != nil {
		return err
	}

	e := c.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	tables, ok := e.databases[c.database]
	if !ok {
		return fmt.Errorf("database %q does not exist", c.database)
	}

	switch {
	case strings.HasPrefix(query, "CREATE TABLE "):
		name := tableName(query, "CREATE TABLE ")
		if _, ok := tables[name]; ok {
			return fmt.Errorf("table %q already exists", name)
		}
		tables[name] = &fakeTable{width: columnCount(query), rows: make(map[uuid.UUID]struct{})}
	case strings.HasPrefix(query, "INSERT INTO "):
		name := tableName(query, "INSERT INTO ")
		t, ok := tables[name]
		if !ok {
			return fmt.Errorf("table %q does not exist", name)
		}
		if len(args)%t.width != 0 {
			return fmt.Errorf("got %d args for %d columns", len(args), t.width)
		}
		for i := 0; i < len(args); i += t.width {
			key := args[i].(uuid.UUID)
			if _, dup := t.rows[key]; dup {
				return fmt.Errorf("duplicate key %s", key)
			}
			t.rows[key] = struct{}{}
		}
	case strings.HasPrefix(query, "DROP TABLE IF EXISTS "):
		delete(tables, strings.TrimPrefix(query, "DROP TABLE IF EXISTS "))
	case strings.HasPrefix(query, "ANALYZE"):
	default:
		return fmt.Errorf("unsupported statement %q", query)
	}
	return nil
}

func (c *fakeConn) Lookup(ctx context.Context, query string, args ...any) (bool, error) {
	if err := c.check(ctx, query); err != nil {
		return false, err
	}

	e := c.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	name := tableName(query, "SELECT * FROM ")
	t, ok := e.databases[c.database][name]
	if !ok {
		return false, fmt.Errorf("table %q does not exist", name)
	}
	_, found := t.rows[args[0].(uuid.UUID)]
	return found, nil
}

func (c *fakeConn) QueryFloats(context.Context, string, ...any) ([]float64, error) {
	return nil, errors.New("not supported")
}

func (c *fakeConn) Close() error {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	c.engine.closed++
	return nil
}

func (c *fakeConn) check(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.engine.mu.Lock()
	c.engine.statement = append(c.engine.statement, query)
	fail := c.engine.failExec
	c.engine.mu.Unlock()
	if fail != nil {
		return fail(query)
	}
	return nil
}

type fakeFragmentation struct{ engine *fakeEngine }

func (f fakeFragmentation) RefreshStatistics(ctx context.Context, conn Conn, table string) error {
	return conn.Exec(ctx, "ANALYZE "+table)
}

func (f fakeFragmentation) ReadFragmentation(context.Context, Conn, string, string) (float64, error) {
	return f.engine.frag, nil
}

// tableName returns the identifier following prefix.
func tableName(query, prefix string) string {
	rest := strings.TrimPrefix(query, prefix)
	if i := strings.IndexAny(rest, " ("); i >= 0 {
		return rest[:i]
	}
	return rest
}

func columnCount(createTable string) int {
	return strings.Count(createTable, ", ")
}

// sequentialKeys yields distinct keys with increasing last bytes.
func sequentialKeys() KeyGenerator {
	var n uint64
	return func() uuid.UUID {
		n++
		var id uuid.UUID
		for i := 0; i < 8; i++ {
			id[15-i] = byte(n >> (8 * i))
		}
		return id
	}
}
