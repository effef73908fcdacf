package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uuid-bench/bench"
	"uuid-bench/keygen"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Engine.Driver)
	assert.Equal(t, bench.DefaultDatabase, cfg.Benchmark.Database)
	assert.Equal(t, bench.DefaultTable, cfg.Benchmark.Table)
	assert.Equal(t, bench.DefaultInsertCount, cfg.Benchmark.InsertCount)
	assert.Equal(t, bench.DefaultRunCount, cfg.Benchmark.RunCount)
	assert.Equal(t, keygen.DefaultVariants, cfg.Benchmark.Variants)
	assert.Equal(t, bench.RowByRow, cfg.Strategy())
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
engine:
  driver: Postgres
  host: db.internal
  user: bench
benchmark:
  insert_count: 5000
  run_count: 3
  table_size: wide
  batch: true
  batch_size: 256
  variants: [random, v7]
  cooldown: 2s
results:
  dir: ./out
  store:
    driver: sqlite
    sqlite:
      path: ./history.db
`), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.Engine.Driver)
	assert.Equal(t, 5432, cfg.Engine.Port, "port defaults per driver")
	assert.Equal(t, "postgres", cfg.Engine.Database)
	assert.Equal(t, 5000, cfg.Benchmark.InsertCount)
	assert.Equal(t, 3, cfg.Benchmark.RunCount)
	assert.Equal(t, "wide", cfg.Benchmark.TableSize)
	assert.Equal(t, bench.Batched, cfg.Strategy())
	assert.Equal(t, 256, cfg.Benchmark.BatchSize)
	assert.Equal(t, []string{"random", "v7"}, cfg.Benchmark.Variants)
	assert.Equal(t, 2*time.Second, cfg.Benchmark.Cooldown)
	assert.Equal(t, "./history.db", cfg.Results.Store.SQLite.Path)
	require.NoError(t, cfg.Validate())

	conn := cfg.ConnConfig()
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, "bench", conn.User)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, bench.ErrConfiguration)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("UUIDBENCH_ENGINE_DRIVER", "mysql")
	t.Setenv("UUIDBENCH_ENGINE_HOST", "mysql.internal")
	t.Setenv("UUIDBENCH_BENCHMARK_RUN_COUNT", "7")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Engine.Driver)
	assert.Equal(t, "mysql.internal", cfg.Engine.Host)
	assert.Equal(t, 3306, cfg.Engine.Port)
	assert.Equal(t, 7, cfg.Benchmark.RunCount)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Engine.Driver = "oracle" }},
		{name: "missing host", mutate: func(c *Config) { c.Engine.Driver = "postgres"; c.Engine.Host = "" }},
		{name: "table injection", mutate: func(c *Config) { c.Benchmark.Table = "t; DROP TABLE x" }},
		{name: "database with dash", mutate: func(c *Config) { c.Benchmark.Database = "uuid-db" }},
		{name: "negative insert count", mutate: func(c *Config) { c.Benchmark.InsertCount = -1 }},
		{name: "zero run count", mutate: func(c *Config) { c.Benchmark.RunCount = 0 }},
		{name: "zero batch size", mutate: func(c *Config) { c.Benchmark.BatchSize = 0 }},
		{name: "unknown table size", mutate: func(c *Config) { c.Benchmark.TableSize = "huge" }},
		{name: "no variants", mutate: func(c *Config) { c.Benchmark.Variants = nil }},
		{name: "unknown variant", mutate: func(c *Config) { c.Benchmark.Variants = []string{"v1"} }},
		{name: "duplicate variant", mutate: func(c *Config) { c.Benchmark.Variants = []string{"v7", "v7"} }},
		{name: "batch over bind parameter limit", mutate: func(c *Config) {
			c.Benchmark.Batch = true
			c.Benchmark.TableSize = "wide"
			c.Benchmark.BatchSize = 13_108
		}},
		{name: "unknown store driver", mutate: func(c *Config) { c.Results.Store.Driver = "redis" }},
		{name: "upload without bucket", mutate: func(c *Config) {
			c.Results.Dir = "./out"
			c.Results.Upload.S3.Enabled = true
		}},
		{name: "upload without results dir", mutate: func(c *Config) {
			c.Results.Upload.S3.Enabled = true
			c.Results.Upload.S3.Bucket = "results"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(New(), "")
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), bench.ErrConfiguration)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	cfg.Benchmark.RunCount = 0
	cfg.Benchmark.BatchSize = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_count")
	assert.Contains(t, err.Error(), "batch_size")
}
