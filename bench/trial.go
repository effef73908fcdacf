package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTable     = "uuid_test_table"
	DefaultBatchSize = 128

	cleanupTimeout = 30 * time.Second
)

// Runner runs trials on one connection. It is not safe for concurrent use.
type Runner struct {
	Conn          Conn
	Dialect       Dialect
	Fragmentation FragmentationReader
	Database      string
	Table         string
	BatchSize     int
	SampleEvery   int
	SampleLimit   int
	Rand          *rand.Rand
	Log           logrus.FieldLogger
}

// stopwatch accumulates the time spent between Start and Stop calls.
type stopwatch struct {
	elapsed time.Duration
	started time.Time
}

func (s *stopwatch) Start() { s.started = time.Now() }

func (s *stopwatch) Stop() { s.elapsed += time.Since(s.started) }

// RunTrial creates the table, inserts insertCount rows, runs the hit and miss
// lookups, reads the fragmentation and drops the table. The table is dropped
// on every exit path.
func (r *Runner) RunTrial(ctx context.Context, insertCount int, profile Profile, strategy InsertStrategy, keys KeyGenerator) (res TrialResult, err error) {
	if insertCount < 0 {
		return TrialResult{}, fmt.Errorf("%w: insert count %d must not be negative", ErrConfiguration, insertCount)
	}
	if keys == nil {
		return TrialResult{}, fmt.Errorf("%w: no key generator", ErrConfiguration)
	}
	if r.Rand == nil {
		r.Rand = rand.New(rand.NewSource(1))
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()

		dropErr := storageErr("drop table", r.Table, r.Conn.Exec(cleanupCtx, dropTableSQL(r.Table)))
		if dropErr == nil {
			return
		}
		if err != nil {
			r.log().WithError(dropErr).Warn("Failed to drop benchmark table after failed trial")
			return
		}
		err = dropErr
	}()

	if err := r.Conn.Exec(ctx, createTableSQL(r.Dialect, r.Table, profile)); err != nil {
		return TrialResult{}, storageErr("create table", r.Table, err)
	}

	var (
		sample []uuid.UUID
		insert time.Duration
	)
	switch strategy {
	case RowByRow:
		sample, insert, err = r.insertRows(ctx, insertCount, profile, keys)
	case Batched:
		sample, insert, err = r.insertBatches(ctx, insertCount, profile, keys)
	default:
		return TrialResult{}, fmt.Errorf("%w: unknown insert strategy %v", ErrConfiguration, strategy)
	}
	if err != nil {
		return TrialResult{}, err
	}

	query := selectSQL(r.Dialect, r.Table, profile)

	hit, err := r.lookup(ctx, query, sample, true)
	if err != nil {
		return TrialResult{}, err
	}

	absent := make([]uuid.UUID, len(sample))
	for i := range absent {
		absent[i] = keys()
	}
	miss, err := r.lookup(ctx, query, absent, false)
	if err != nil {
		return TrialResult{}, err
	}

	frag, err := r.readFragmentation(ctx)
	if err != nil {
		return TrialResult{}, err
	}

	return TrialResult{
		Fragmentation:         frag,
		InsertDuration:        insert,
		SelectSuccessDuration: hit,
		SelectFailDuration:    miss,
		Inserted:              insertCount,
		Sampled:               len(sample),
	}, nil
}

// insertRows issues one statement per row. Only Exec is timed.
func (r *Runner) insertRows(ctx context.Context, count int, p Profile, keys KeyGenerator) ([]uuid.UUID, time.Duration, error) {
	sampler := r.sampler()
	query := insertSQL(r.Dialect, r.Table, p, 1)
	args := make([]any, 0, len(p.Columns()))

	var chrono stopwatch
	for i := 0; i < count; i++ {
		key := keys()
		args = rowArgs(args[:0], r.Dialect, key, p.Values(i, r.Rand))

		chrono.Start()
		err := r.Conn.Exec(ctx, query, args...)
		chrono.Stop()
		if err != nil {
			return nil, 0, storageErr(fmt.Sprintf("insert row %d into", i), r.Table, err)
		}

		sampler.Offer(i, key)
	}
	return sampler.Keys(), chrono.elapsed, nil
}

// insertBatches issues one multi-row statement per chunk of BatchSize rows.
// Statement text and arguments are built before the timer starts.
func (r *Runner) insertBatches(ctx context.Context, count int, p Profile, keys KeyGenerator) ([]uuid.UUID, time.Duration, error) {
	size := r.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}
	sampler := r.sampler()
	width := len(p.Columns())
	full := insertSQL(r.Dialect, r.Table, p, size)
	args := make([]any, 0, size*width)
	chunk := make([]uuid.UUID, 0, size)

	var chrono stopwatch
	for start := 0; start < count; start += size {
		n := min(size, count-start)
		query := full
		if n != size {
			query = insertSQL(r.Dialect, r.Table, p, n)
		}

		args, chunk = args[:0], chunk[:0]
		for i := start; i < start+n; i++ {
			key := keys()
			chunk = append(chunk, key)
			args = rowArgs(args, r.Dialect, key, p.Values(i, r.Rand))
		}

		chrono.Start()
		err := r.Conn.Exec(ctx, query, args...)
		chrono.Stop()
		if err != nil {
			return nil, 0, storageErr(fmt.Sprintf("insert batch at row %d into", start), r.Table, err)
		}

		for i, key := range chunk {
			sampler.Offer(start+i, key)
		}
	}
	return sampler.Keys(), chrono.elapsed, nil
}

var errVerification = errors.New("lookup verification failed")

// lookup runs the point query for every key and sums the time spent in the
// query calls. Every key must be found when present is true and none may be
// found otherwise.
func (r *Runner) lookup(ctx context.Context, query string, ids []uuid.UUID, present bool) (time.Duration, error) {
	op := "select success from"
	if !present {
		op = "select fail from"
	}

	var chrono stopwatch
	for _, id := range ids {
		chrono.Start()
		found, err := r.Conn.Lookup(ctx, query, r.Dialect.BindKey(id))
		chrono.Stop()
		if err != nil {
			return 0, storageErr(op, r.Table, err)
		}
		if found != present {
			return 0, storageErr(op, r.Table, fmt.Errorf("%w: key %s found=%t", errVerification, id, found))
		}
	}
	return chrono.elapsed, nil
}

func (r *Runner) readFragmentation(ctx context.Context) (float64, error) {
	if err := r.Fragmentation.RefreshStatistics(ctx, r.Conn, r.Table); err != nil {
		return 0, storageErr("refresh statistics of", r.Table, err)
	}

	frag, err := r.Fragmentation.ReadFragmentation(ctx, r.Conn, r.Database, r.Table)
	if err != nil {
		return 0, storageErr("read fragmentation of", r.Table, err)
	}

	switch {
	case math.IsNaN(frag):
		return 0, nil
	case frag < 0:
		return 0, nil
	case frag > 100:
		return 100, nil
	}
	return frag, nil
}

func (r *Runner) sampler() *Sampler {
	every, limit := r.SampleEvery, r.SampleLimit
	if every < 1 {
		every = DefaultSampleEvery
	}
	if limit < 1 {
		limit = DefaultSampleLimit
	}
	return NewSampler(every, limit, r.Rand)
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
