package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// runVariant executes RunCount trials of one variant in strict sequence,
// each on its own connection, checks steady state and returns the median.
// The first failing trial aborts the variant.
func (s *Session) runVariant(ctx context.Context, v Variant) (AggregatedResult, error) {
	log := s.log().WithField("variant", v.Name)
	trials := make([]TrialResult, 0, s.RunCount)

	for i := 0; i < s.RunCount; i++ {
		fmt.Fprintf(s.out(), "\n── Run %d/%d ──\n", i+1, s.RunCount)

		res, err := s.runTrial(ctx, v)
		if err != nil {
			return AggregatedResult{}, fmt.Errorf("trial %d/%d: %w", i+1, s.RunCount, err)
		}
		trials = append(trials, res)

		fmt.Fprintf(s.out(), "  Run %d: frag=%.1f%%  insert=%s  hit=%s  miss=%s  samples=%d\n",
			i+1, res.Fragmentation,
			FmtDur(res.InsertDuration),
			FmtDur(res.SelectSuccessDuration),
			FmtDur(res.SelectFailDuration),
			res.Sampled)

		log.WithFields(logrus.Fields{
			"trial":         i + 1,
			"fragmentation": res.Fragmentation,
			"insert":        res.InsertDuration,
		}).Debug("Trial completed")

		// Cooldown between trials (not after last)
		if s.Cooldown > 0 && i < s.RunCount-1 {
			fmt.Fprintf(s.out(), "  Cooling down (%s)...", s.Cooldown)
			if err := sleep(ctx, s.Cooldown); err != nil {
				return AggregatedResult{}, err
			}
			fmt.Fprintln(s.out(), " done")
		}
	}

	agg := AggregatedResult{
		Variant:      v.Name,
		Median:       MedianOfResults(trials),
		Trials:       trials,
		InsertSpread: insertSpread(trials),
	}

	tolerance := s.SteadyTolerance
	if tolerance <= 0 {
		tolerance = DefaultSteadyTolerance
	}
	PrintSteadyState(s.out(), agg.InsertSpread, tolerance)
	if agg.InsertSpread > tolerance {
		log.WithFields(logrus.Fields{
			"spread":    agg.InsertSpread,
			"tolerance": tolerance,
		}).Warn("Insert duration not steady across trials, reporting median anyway")
	}
	PrintTrials(s.out(), agg)

	return agg, nil
}

// runTrial opens a dedicated connection for one trial.
func (s *Session) runTrial(ctx context.Context, v Variant) (TrialResult, error) {
	conn, err := s.Engine.Open(ctx, s.Database)
	if err != nil {
		return TrialResult{}, storageErr("open connection to", s.Database, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.log().WithError(err).Warn("Failed to close trial connection")
		}
	}()

	runner := &Runner{
		Conn:          conn,
		Dialect:       s.Engine.Dialect(),
		Fragmentation: s.fragmentation(),
		Database:      s.Database,
		Table:         s.Table,
		BatchSize:     s.BatchSize,
		SampleEvery:   s.SampleEvery,
		SampleLimit:   s.SampleLimit,
		Rand:          s.rand,
		Log:           s.log(),
	}
	return runner.RunTrial(ctx, s.InsertCount, s.Profile, s.Strategy, v.Keys)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
