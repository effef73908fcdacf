package my

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"uuid-bench/bench"
	"uuid-bench/sqlconn"
)

const connectTimeout = 30 * time.Second

// Engine runs the benchmark against MySQL through go-sql-driver.
type Engine struct {
	cfg bench.ConnConfig
	log logrus.FieldLogger
}

var _ bench.Engine = (*Engine)(nil)

func New(c bench.ConnConfig, log logrus.FieldLogger) *Engine {
	return &Engine{cfg: c, log: log.WithField("component", "mysql")}
}

func (e *Engine) Name() string { return "mysql" }

func (e *Engine) Dialect() bench.Dialect { return dialect{} }

func (e *Engine) Fragmentation() bench.FragmentationReader { return TableStats{} }

func (e *Engine) dsn(database string) string {
	cfg := mysql.NewConfig()
	cfg.User = e.cfg.User
	cfg.Passwd = e.cfg.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.AllowCleartextPasswords = true
	cfg.Timeout = connectTimeout
	return cfg.FormatDSN()
}

func (e *Engine) connect(ctx context.Context, database string) (*sqlconn.Conn, error) {
	db, err := sql.Open("mysql", e.dsn(database))
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	return sqlconn.Open(ctx, db)
}

func (e *Engine) Ping(ctx context.Context) error {
	conn, err := e.connect(ctx, e.cfg.Database)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (e *Engine) CreateDatabase(ctx context.Context, name string) error {
	return e.serverExec(ctx, "CREATE DATABASE "+quote(name))
}

func (e *Engine) DropDatabase(ctx context.Context, name string) error {
	return e.serverExec(ctx, "DROP DATABASE IF EXISTS "+quote(name))
}

func (e *Engine) serverExec(ctx context.Context, query string) error {
	conn, err := e.connect(ctx, e.cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.Exec(ctx, query)
}

func (e *Engine) Open(ctx context.Context, database string) (bench.Conn, error) {
	conn, err := e.connect(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", database, err)
	}
	return conn, nil
}

func quote(ident string) string { return "`" + ident + "`" }
