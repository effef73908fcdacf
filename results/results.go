// Package results writes session reports as JSON summary files.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"uuid-bench/bench"
)

// File is the on-disk form of a report. Durations are milliseconds.
type File struct {
	Engine      string    `json:"engine"`
	Database    string    `json:"database"`
	Profile     string    `json:"profile"`
	Strategy    string    `json:"strategy"`
	InsertCount int       `json:"insert_count"`
	RunCount    int       `json:"run_count"`
	BatchSize   int       `json:"batch_size"`
	Seed        int64     `json:"seed"`
	StartedAt   time.Time `json:"started_at"`
	DurationMs  float64   `json:"duration_ms"`
	Variants    []Variant `json:"variants"`
}

type Variant struct {
	Name         string  `json:"name"`
	Median       Trial   `json:"median"`
	InsertSpread float64 `json:"insert_spread"`
	Trials       []Trial `json:"trials"`
}

type Trial struct {
	Fragmentation   float64 `json:"fragmentation"`
	InsertMs        float64 `json:"insert_ms"`
	SelectSuccessMs float64 `json:"select_success_ms"`
	SelectFailMs    float64 `json:"select_fail_ms"`
	Inserted        int     `json:"inserted"`
	Sampled         int     `json:"sampled"`
}

// FromReport converts a report to its file form.
func FromReport(r *bench.Report) *File {
	f := &File{
		Engine:      r.Engine,
		Database:    r.Database,
		Profile:     r.Profile,
		Strategy:    r.Strategy,
		InsertCount: r.InsertCount,
		RunCount:    r.RunCount,
		BatchSize:   r.BatchSize,
		Seed:        r.Seed,
		StartedAt:   r.StartedAt.UTC(),
		DurationMs:  Millis(r.Duration),
		Variants:    make([]Variant, 0, len(r.Results)),
	}
	for _, agg := range r.Results {
		v := Variant{
			Name:         agg.Variant,
			Median:       fromTrial(agg.Median),
			InsertSpread: agg.InsertSpread,
			Trials:       make([]Trial, 0, len(agg.Trials)),
		}
		for _, t := range agg.Trials {
			v.Trials = append(v.Trials, fromTrial(t))
		}
		f.Variants = append(f.Variants, v)
	}
	return f
}

func fromTrial(t bench.TrialResult) Trial {
	return Trial{
		Fragmentation:   t.Fragmentation,
		InsertMs:        Millis(t.InsertDuration),
		SelectSuccessMs: Millis(t.SelectSuccessDuration),
		SelectFailMs:    Millis(t.SelectFailDuration),
		Inserted:        t.Inserted,
		Sampled:         t.Sampled,
	}
}

func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Name returns the file name used for a report.
func Name(r *bench.Report) string {
	return fmt.Sprintf("%d_%s_%s_%s.json", r.StartedAt.Unix(), r.Engine, r.Profile, r.Strategy)
}

// Write stores the report in dir and returns the file path.
func Write(dir string, r *bench.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	data, err := json.MarshalIndent(FromReport(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}

	path := filepath.Join(dir, Name(r))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result file: %w", err)
	}
	return path, nil
}

// Read loads a result file written by Write.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &f, nil
}
