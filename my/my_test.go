package my

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uuid-bench/bench"
)

func TestDSN(t *testing.T) {
	log, _ := test.NewNullLogger()
	e := New(bench.ConnConfig{Host: "db.internal", Port: 3307, User: "bench", Password: "secret"}, log)

	cfg, err := mysql.ParseDSN(e.dsn("uuid_db"))
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.internal:3307", cfg.Addr)
	assert.Equal(t, "bench", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "uuid_db", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}

func TestDialect(t *testing.T) {
	d := dialect{}

	assert.Equal(t, "?", d.Placeholder(7))
	assert.Equal(t, "BINARY(16)", d.ColumnType(bench.Column{Kind: bench.KindKey}))
	assert.Equal(t, "VARCHAR(50)", d.ColumnType(bench.Column{Kind: bench.KindText, Size: 50}))
	assert.Equal(t, " ENGINE=InnoDB", d.TableOptions())

	key := uuid.New()
	assert.Equal(t, key[:], d.BindKey(key))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "`uuid_db`", quote("uuid_db"))
}

func TestPingUnreachable(t *testing.T) {
	log, _ := test.NewNullLogger()
	e := New(bench.ConnConfig{Host: "127.0.0.1", Port: 1, User: "nobody"}, log)

	assert.Error(t, e.Ping(context.Background()))
}
