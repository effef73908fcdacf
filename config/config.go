// Package config loads the benchmark configuration from file, environment
// and flags.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"uuid-bench/bench"
	"uuid-bench/keygen"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. UUIDBENCH_ENGINE_HOST.
	EnvPrefix = "UUIDBENCH"

	DefaultLogLevel  = "info"
	DefaultDriver    = "sqlite"
	DefaultSQLiteDir = "./.uuid-bench"
)

// Config is the root configuration.
type Config struct {
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Benchmark BenchmarkConfig `mapstructure:"benchmark" yaml:"benchmark"`
	Results   ResultsConfig   `mapstructure:"results" yaml:"results"`
}

// EngineConfig selects and reaches the engine under test.
type EngineConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	User      string `mapstructure:"user" yaml:"user"`
	Password  string `mapstructure:"password" yaml:"password"`
	Database  string `mapstructure:"database" yaml:"database"`
	SSLMode   string `mapstructure:"sslmode" yaml:"sslmode"`
	SQLiteDir string `mapstructure:"sqlite_dir" yaml:"sqlite_dir"`
}

// BenchmarkConfig holds the session parameters.
type BenchmarkConfig struct {
	Database             string        `mapstructure:"database" yaml:"database"`
	Table                string        `mapstructure:"table" yaml:"table"`
	InsertCount          int           `mapstructure:"insert_count" yaml:"insert_count"`
	RunCount             int           `mapstructure:"run_count" yaml:"run_count"`
	TableSize            string        `mapstructure:"table_size" yaml:"table_size"`
	Batch                bool          `mapstructure:"batch" yaml:"batch"`
	BatchSize            int           `mapstructure:"batch_size" yaml:"batch_size"`
	SampleEvery          int           `mapstructure:"sample_every" yaml:"sample_every"`
	SampleLimit          int           `mapstructure:"sample_limit" yaml:"sample_limit"`
	Seed                 int64         `mapstructure:"seed" yaml:"seed"`
	Variants             []string      `mapstructure:"variants" yaml:"variants"`
	Cooldown             time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	SteadyStateTolerance float64       `mapstructure:"steady_state_tolerance" yaml:"steady_state_tolerance"`
	CleanupOnStart       bool          `mapstructure:"cleanup_on_start" yaml:"cleanup_on_start"`
}

// ResultsConfig controls what happens to a finished report.
type ResultsConfig struct {
	Dir    string       `mapstructure:"dir" yaml:"dir"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Upload UploadConfig `mapstructure:"upload" yaml:"upload"`
}

// StoreConfig configures the result history database. An empty driver
// disables it.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver" yaml:"driver"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

type UploadConfig struct {
	S3 S3UploadConfig `mapstructure:"s3" yaml:"s3"`
}

// S3UploadConfig configures upload of result files to S3 compatible storage.
type S3UploadConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	Region          string `mapstructure:"region" yaml:"region"`
	EndpointURL     string `mapstructure:"endpoint_url" yaml:"endpoint_url"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style"`
	StorageClass    string `mapstructure:"storage_class" yaml:"storage_class"`
}

// New returns a viper instance carrying every default and the environment
// binding. Every key needs a default for AutomaticEnv to pick it up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("log_level", DefaultLogLevel)

	v.SetDefault("engine.driver", DefaultDriver)
	v.SetDefault("engine.host", "localhost")
	v.SetDefault("engine.port", 0)
	v.SetDefault("engine.user", "")
	v.SetDefault("engine.password", "")
	v.SetDefault("engine.database", "")
	v.SetDefault("engine.sslmode", "disable")
	v.SetDefault("engine.sqlite_dir", DefaultSQLiteDir)

	v.SetDefault("benchmark.database", bench.DefaultDatabase)
	v.SetDefault("benchmark.table", bench.DefaultTable)
	v.SetDefault("benchmark.insert_count", bench.DefaultInsertCount)
	v.SetDefault("benchmark.run_count", bench.DefaultRunCount)
	v.SetDefault("benchmark.table_size", "narrow")
	v.SetDefault("benchmark.batch", false)
	v.SetDefault("benchmark.batch_size", bench.DefaultBatchSize)
	v.SetDefault("benchmark.sample_every", bench.DefaultSampleEvery)
	v.SetDefault("benchmark.sample_limit", bench.DefaultSampleLimit)
	v.SetDefault("benchmark.seed", 0)
	v.SetDefault("benchmark.variants", keygen.DefaultVariants)
	v.SetDefault("benchmark.cooldown", time.Duration(0))
	v.SetDefault("benchmark.steady_state_tolerance", bench.DefaultSteadyTolerance)
	v.SetDefault("benchmark.cleanup_on_start", false)

	v.SetDefault("results.dir", "")
	v.SetDefault("results.store.driver", "")
	v.SetDefault("results.store.sqlite.path", "./uuid-bench-history.db")
	v.SetDefault("results.store.postgres.host", "localhost")
	v.SetDefault("results.store.postgres.port", 5432)
	v.SetDefault("results.store.postgres.user", "")
	v.SetDefault("results.store.postgres.password", "")
	v.SetDefault("results.store.postgres.database", "uuid_bench")
	v.SetDefault("results.store.postgres.sslmode", "disable")
	v.SetDefault("results.upload.s3.enabled", false)
	v.SetDefault("results.upload.s3.bucket", "")
	v.SetDefault("results.upload.s3.prefix", "")
	v.SetDefault("results.upload.s3.region", "")
	v.SetDefault("results.upload.s3.endpoint_url", "")
	v.SetDefault("results.upload.s3.access_key_id", "")
	v.SetDefault("results.upload.s3.secret_access_key", "")
	v.SetDefault("results.upload.s3.force_path_style", false)
	v.SetDefault("results.upload.s3.storage_class", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file into v and decodes the merged
// configuration (flags > env > file > defaults).
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading config file: %v", bench.ErrConfiguration, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %v", bench.ErrConfiguration, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills values that depend on other values.
func (c *Config) applyDefaults() {
	c.Engine.Driver = strings.ToLower(c.Engine.Driver)

	if c.Engine.Port == 0 {
		switch c.Engine.Driver {
		case "postgres":
			c.Engine.Port = 5432
		case "mysql":
			c.Engine.Port = 3306
		}
	}
	if c.Engine.Database == "" && c.Engine.Driver == "postgres" {
		c.Engine.Database = "postgres"
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validDrivers = map[string]struct{}{
	"postgres": {},
	"mysql":    {},
	"sqlite":   {},
}

var validStoreDrivers = map[string]struct{}{
	"":         {},
	"sqlite":   {},
	"postgres": {},
}

// Validate checks the configuration. Every error matches
// bench.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, ok := validDrivers[c.Engine.Driver]; !ok {
		add("engine.driver: unknown driver %q", c.Engine.Driver)
	}
	if c.Engine.Driver != "sqlite" && c.Engine.Host == "" {
		add("engine.host is required for %s", c.Engine.Driver)
	}
	if c.Engine.Driver == "sqlite" && c.Engine.SQLiteDir == "" {
		add("engine.sqlite_dir is required for sqlite")
	}

	b := c.Benchmark
	if !identifier.MatchString(b.Database) {
		add("benchmark.database: %q is not a plain identifier", b.Database)
	}
	if !identifier.MatchString(b.Table) {
		add("benchmark.table: %q is not a plain identifier", b.Table)
	}
	if b.InsertCount < 0 {
		add("benchmark.insert_count must not be negative, got %d", b.InsertCount)
	}
	if b.RunCount < 1 {
		add("benchmark.run_count must be at least 1, got %d", b.RunCount)
	}
	if b.BatchSize < 1 {
		add("benchmark.batch_size must be at least 1, got %d", b.BatchSize)
	}
	if b.SampleEvery < 1 {
		add("benchmark.sample_every must be at least 1, got %d", b.SampleEvery)
	}
	if b.SampleLimit < 1 {
		add("benchmark.sample_limit must be at least 1, got %d", b.SampleLimit)
	}
	if b.Cooldown < 0 {
		add("benchmark.cooldown must not be negative")
	}
	if b.SteadyStateTolerance < 0 {
		add("benchmark.steady_state_tolerance must not be negative")
	}
	if profile, err := bench.ParseProfile(b.TableSize); err != nil {
		add("benchmark.table_size: %q is not narrow or wide", b.TableSize)
	} else if b.Batch && b.BatchSize > bench.MaxBatchSize(profile) {
		add("benchmark.batch_size %d exceeds %d rows for the %s table (%d bind parameters per statement)",
			b.BatchSize, bench.MaxBatchSize(profile), profile.Name(), bench.MaxBindParameters)
	}
	if len(b.Variants) == 0 {
		add("benchmark.variants: at least one variant is required")
	}
	seen := make(map[string]struct{}, len(b.Variants))
	for _, name := range b.Variants {
		if _, err := keygen.Lookup(name, c.Engine.Driver); err != nil {
			add("benchmark.variants: unknown variant %q", name)
		}
		if _, dup := seen[name]; dup {
			add("benchmark.variants: duplicate variant %q", name)
		}
		seen[name] = struct{}{}
	}

	if _, ok := validStoreDrivers[c.Results.Store.Driver]; !ok {
		add("results.store.driver: unknown driver %q", c.Results.Store.Driver)
	}
	if s3 := c.Results.Upload.S3; s3.Enabled {
		if s3.Bucket == "" {
			add("results.upload.s3.bucket is required when upload is enabled")
		}
		if c.Results.Dir == "" {
			add("results.dir is required when upload is enabled")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", bench.ErrConfiguration, errors.Join(errs...))
}

// ConnConfig returns the engine connection settings.
func (c *Config) ConnConfig() bench.ConnConfig {
	return bench.ConnConfig{
		Host:     c.Engine.Host,
		Port:     c.Engine.Port,
		User:     c.Engine.User,
		Password: c.Engine.Password,
		Database: c.Engine.Database,
		SSLMode:  c.Engine.SSLMode,
	}
}

// Strategy maps the batch flag onto an insert strategy.
func (c *Config) Strategy() bench.InsertStrategy {
	if c.Benchmark.Batch {
		return bench.Batched
	}
	return bench.RowByRow
}
