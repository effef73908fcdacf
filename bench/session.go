package bench

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultDatabase        = "uuid_experiment_test_db"
	DefaultInsertCount     = 1_000
	DefaultRunCount        = 10
	DefaultSteadyTolerance = 0.05
)

// Session benchmarks every variant against one ephemeral database. A
// Session is configured once and launched once.
type Session struct {
	Engine Engine
	// Fragmentation overrides the engine's reader when set.
	Fragmentation FragmentationReader

	Database    string
	Table       string
	Profile     Profile
	Strategy    InsertStrategy
	InsertCount int
	RunCount    int
	BatchSize   int
	SampleEvery int
	SampleLimit int

	Cooldown        time.Duration
	SteadyTolerance float64
	CleanupOnStart  bool
	Seed            int64

	Variants []Variant

	Log logrus.FieldLogger
	Out io.Writer

	rand *rand.Rand
}

// Validate reports a configuration error before any engine interaction.
func (s *Session) Validate() error {
	switch {
	case s.Engine == nil:
		return fmt.Errorf("%w: no engine", ErrConfiguration)
	case s.Profile == nil:
		return fmt.Errorf("%w: no table profile", ErrConfiguration)
	case s.Database == "" || s.Table == "":
		return fmt.Errorf("%w: database and table names are required", ErrConfiguration)
	case s.InsertCount < 0:
		return fmt.Errorf("%w: insert count %d must not be negative", ErrConfiguration, s.InsertCount)
	case s.RunCount < 1:
		return fmt.Errorf("%w: run count %d must be at least 1", ErrConfiguration, s.RunCount)
	case len(s.Variants) == 0:
		return fmt.Errorf("%w: no key generation variant", ErrConfiguration)
	case s.Strategy == Batched && s.BatchSize > MaxBatchSize(s.Profile):
		return fmt.Errorf("%w: batch size %d exceeds %d rows for the %s profile (%d bind parameters per statement)",
			ErrConfiguration, s.BatchSize, MaxBatchSize(s.Profile), s.Profile.Name(), MaxBindParameters)
	}

	seen := make(map[string]struct{}, len(s.Variants))
	for _, v := range s.Variants {
		if v.Keys == nil {
			return fmt.Errorf("%w: variant %q has no key generator", ErrConfiguration, v.Name)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("%w: duplicate variant %q", ErrConfiguration, v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return nil
}

// Launch runs the whole session: ping, create database, RunCount trials per
// variant, drop database. The database is dropped on every path once
// creation has been attempted. The first failing variant aborts the session.
func (s *Session) Launch(ctx context.Context) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.rand = rand.New(rand.NewSource(s.Seed))
	log := s.log().WithField("engine", s.Engine.Name())

	report := &Report{
		Engine:      s.Engine.Name(),
		Database:    s.Database,
		Profile:     s.Profile.Name(),
		Strategy:    s.Strategy.String(),
		InsertCount: s.InsertCount,
		RunCount:    s.RunCount,
		BatchSize:   s.BatchSize,
		Seed:        s.Seed,
		StartedAt:   time.Now(),
	}
	PrintIntro(s.out(), report)

	fmt.Fprintf(s.out(), "[1/3] Connecting to %s...\n", s.Engine.Name())
	if err := s.Engine.Ping(ctx); err != nil {
		fmt.Fprintf(s.out(), "  ✗ %s is not available: %v\n", s.Engine.Name(), err)
		fmt.Fprintln(s.out(), "  Aborting...")
		return nil, unavailable(s.Engine.Name(), err)
	}
	fmt.Fprintln(s.out(), "  ✓ Connected")

	if s.CleanupOnStart {
		log.WithField("database", s.Database).Info("Dropping leftover benchmark database")
		if err := s.Engine.DropDatabase(ctx, s.Database); err != nil {
			return nil, storageErr("drop leftover database", s.Database, err)
		}
	}

	fmt.Fprintf(s.out(), "\n[2/3] Creating database %s...\n", s.Database)
	// Registered first: a create that fails halfway may leave the database
	// behind, and DropDatabase tolerates a missing one.
	defer s.dropDatabase(ctx)
	if err := s.Engine.CreateDatabase(ctx, s.Database); err != nil {
		return nil, storageErr("create database", s.Database, err)
	}
	fmt.Fprintln(s.out(), "  ✓ Created")

	fmt.Fprintf(s.out(), "\n[3/3] Running %d variant(s)...\n", len(s.Variants))
	for _, v := range s.Variants {
		PrintVariantIntro(s.out(), s.InsertCount, s.RunCount, v.Name)

		agg, err := s.runVariant(ctx, v)
		if err != nil {
			log.WithError(err).WithField("variant", v.Name).Error("Variant failed, aborting session")
			return nil, fmt.Errorf("variant %s: %w", v.Name, err)
		}
		report.Results = append(report.Results, agg)
		PrintResult(s.out(), agg)
	}

	report.Duration = time.Since(report.StartedAt)
	PrintComparison(s.out(), report.Results)
	PrintTotal(s.out(), report.Duration)

	return report, nil
}

// dropDatabase runs on a context detached from cancellation.
func (s *Session) dropDatabase(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	fmt.Fprintln(s.out(), "\nDrop database")
	if err := s.Engine.DropDatabase(cleanupCtx, s.Database); err != nil {
		s.log().WithError(err).WithField("database", s.Database).Error("Failed to drop benchmark database")
	}
}

func (s *Session) fragmentation() FragmentationReader {
	if s.Fragmentation != nil {
		return s.Fragmentation
	}
	return s.Engine.Fragmentation()
}

func (s *Session) out() io.Writer {
	if s.Out == nil {
		return os.Stdout
	}
	return s.Out
}

func (s *Session) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
