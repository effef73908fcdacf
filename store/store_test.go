package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uuid-bench/bench"
	"uuid-bench/config"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	log, _ := test.NewNullLogger()
	s := NewStore(log, &config.StoreConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "history.db")},
	})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func report(started time.Time, variants ...string) *bench.Report {
	r := &bench.Report{
		Engine:      "postgres",
		Profile:     "wide",
		Strategy:    "row-by-row",
		InsertCount: 1000,
		RunCount:    5,
		Seed:        7,
		StartedAt:   started,
		Duration:    90 * time.Second,
	}
	for i, name := range variants {
		r.Results = append(r.Results, bench.AggregatedResult{
			Variant: name,
			Median: bench.TrialResult{
				Fragmentation:  float64(10 * (i + 1)),
				InsertDuration: time.Duration(i+1) * time.Second,
			},
			Trials: make([]bench.TrialResult, 5),
		})
	}
	return r
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.SaveReport(ctx, report(time.Now(), "random", "v7"))
	require.NoError(t, err)
	require.NotZero(t, rec.ID)

	got, err := s.GetSession(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, "postgres", got.Engine)
	assert.Equal(t, 90_000.0, got.DurationMs)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, "random", got.Variants[0].Name)
	assert.Equal(t, 1000.0, got.Variants[0].InsertMs)
	assert.Equal(t, "v7", got.Variants[1].Name)
	assert.Equal(t, 20.0, got.Variants[1].Fragmentation)
	assert.Equal(t, 5, got.Variants[1].Trials)
}

func TestListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.SaveReport(ctx, report(base.Add(time.Duration(i)*time.Hour), "v7"))
		require.NoError(t, err)
	}

	all, err := s.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].StartedAt.Equal(base.Add(2*time.Hour)))
	assert.Len(t, all[0].Variants, 1)

	limited, err := s.ListSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetSessionMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSession(context.Background(), 404)
	assert.Error(t, err)
}

func TestStartUnknownDriver(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := NewStore(log, &config.StoreConfig{Driver: "redis"})

	assert.Error(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop())
}
