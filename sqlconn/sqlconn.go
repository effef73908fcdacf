// Package sqlconn adapts a database/sql connection to bench.Conn.
package sqlconn

import (
	"context"
	"database/sql"
	"errors"

	"uuid-bench/bench"
)

// Conn pins a single *sql.Conn out of its pool. Closing it closes the pool.
type Conn struct {
	db   *sql.DB
	conn *sql.Conn
}

var _ bench.Conn = (*Conn)(nil)

// Open takes one connection from db. db is closed if that fails.
func Open(ctx context.Context, db *sql.DB) (*Conn, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}
	return &Conn{db: db, conn: conn}, nil
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.conn.ExecContext(ctx, query, args...)
	return err
}

func (c *Conn) Lookup(ctx context.Context, query string, args ...any) (bool, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	cols, err := rows.Columns()
	if err != nil {
		return false, err
	}
	raw := make([]sql.RawBytes, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return false, err
	}
	return true, rows.Close()
}

func (c *Conn) QueryFloats(ctx context.Context, query string, args ...any) ([]float64, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out, rows.Err()
}

func (c *Conn) Close() error {
	return errors.Join(c.conn.Close(), c.db.Close())
}
