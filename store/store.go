// Package store keeps a history of benchmark sessions in a database.
package store

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"uuid-bench/bench"
	"uuid-bench/config"
	"uuid-bench/results"
)

// Store persists finished sessions.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	SaveReport(ctx context.Context, r *bench.Report) (*SessionRecord, error)
	ListSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	GetSession(ctx context.Context, id uint) (*SessionRecord, error)
}

var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.StoreConfig
	db  *gorm.DB
}

func NewStore(log logrus.FieldLogger, cfg *config.StoreConfig) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(&SessionRecord{}, &VariantRecord{}); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Debug("Result store connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// SaveReport stores the session and the median of every variant in one
// transaction.
func (s *store) SaveReport(ctx context.Context, r *bench.Report) (*SessionRecord, error) {
	rec := &SessionRecord{
		Engine:      r.Engine,
		Profile:     r.Profile,
		Strategy:    r.Strategy,
		InsertCount: r.InsertCount,
		RunCount:    r.RunCount,
		BatchSize:   r.BatchSize,
		Seed:        r.Seed,
		StartedAt:   r.StartedAt.UTC(),
		DurationMs:  results.Millis(r.Duration),
		Variants:    make([]VariantRecord, 0, len(r.Results)),
	}
	for _, agg := range r.Results {
		m := agg.Median
		rec.Variants = append(rec.Variants, VariantRecord{
			Name:            agg.Variant,
			Fragmentation:   m.Fragmentation,
			InsertMs:        results.Millis(m.InsertDuration),
			SelectSuccessMs: results.Millis(m.SelectSuccessDuration),
			SelectFailMs:    results.Millis(m.SelectFailDuration),
			InsertSpread:    agg.InsertSpread,
			Trials:          len(agg.Trials),
		})
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id": rec.ID,
		"variants":   len(rec.Variants),
	}).Info("Session saved to result store")

	return rec, nil
}

// ListSessions returns the most recent sessions first. limit <= 0 means no
// limit.
func (s *store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	q := s.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("started_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var sessions []SessionRecord
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	return sessions, nil
}

func (s *store) GetSession(ctx context.Context, id uint) (*SessionRecord, error) {
	var rec SessionRecord
	if err := s.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&rec, id).Error; err != nil {
		return nil, fmt.Errorf("getting session by id: %w", err)
	}

	return &rec, nil
}
