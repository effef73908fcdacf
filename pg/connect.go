package pg

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"uuid-bench/bench"
)

const connectTimeout = 10 * time.Second

// Engine runs the benchmark against PostgreSQL through pgx.
type Engine struct {
	cfg bench.ConnConfig
	log logrus.FieldLogger
}

var _ bench.Engine = (*Engine)(nil)

func New(c bench.ConnConfig, log logrus.FieldLogger) *Engine {
	if c.Database == "" {
		c.Database = "postgres"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return &Engine{cfg: c, log: log.WithField("component", "postgres")}
}

func (e *Engine) Name() string { return "postgres" }

func (e *Engine) Dialect() bench.Dialect { return dialect{} }

func (e *Engine) Fragmentation() bench.FragmentationReader { return PgStatIndex{} }

func (e *Engine) dsn(database string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.cfg.User, e.cfg.Password),
		Host:     net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port)),
		Path:     "/" + database,
		RawQuery: "sslmode=" + url.QueryEscape(e.cfg.SSLMode),
	}
	return u.String()
}

func (e *Engine) connect(ctx context.Context, database string) (*pgx.Conn, error) {
	config, err := pgx.ParseConfig(e.dsn(database))
	if err != nil {
		return nil, err
	}
	config.ConnectTimeout = connectTimeout

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(context.Background())
		return nil, err
	}
	return conn, nil
}

func (e *Engine) Ping(ctx context.Context) error {
	conn, err := e.connect(ctx, e.cfg.Database)
	if err != nil {
		return err
	}
	return conn.Close(ctx)
}

// CreateDatabase creates the database and installs pgstattuple in it.
// pgstattuple is best effort: without it fragmentation cannot be read and
// the first trial fails.
func (e *Engine) CreateDatabase(ctx context.Context, name string) error {
	if err := e.serverExec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return err
	}

	conn, err := e.connect(ctx, name)
	if err != nil {
		err = fmt.Errorf("connect to %s: %w", name, err)
		if dropErr := e.DropDatabase(context.WithoutCancel(ctx), name); dropErr != nil {
			return errors.Join(err, fmt.Errorf("drop %s: %w", name, dropErr))
		}
		return err
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS pgstattuple"); err != nil {
		e.log.WithError(err).Warn("pgstattuple extension unavailable, fragmentation reads will fail")
	}
	return nil
}

func (e *Engine) DropDatabase(ctx context.Context, name string) error {
	return e.serverExec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)")
}

// serverExec runs one statement on a short-lived maintenance connection.
func (e *Engine) serverExec(ctx context.Context, sql string) error {
	conn, err := e.connect(ctx, e.cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, sql)
	return err
}

func (e *Engine) Open(ctx context.Context, database string) (bench.Conn, error) {
	conn, err := e.connect(ctx, database)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: conn}, nil
}

// Conn is a single pgx connection.
type Conn struct {
	conn *pgx.Conn
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.conn.Exec(ctx, query, args...)
	return err
}

func (c *Conn) Lookup(ctx context.Context, query string, args ...any) (bool, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if _, err := rows.Values(); err != nil {
		return false, err
	}
	rows.Close()
	return true, rows.Err()
}

func (c *Conn) QueryFloats(ctx context.Context, query string, args ...any) ([]float64, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v *float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, rows.Err()
}

func (c *Conn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return c.conn.Close(ctx)
}
