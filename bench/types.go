package bench

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string // maintenance database used for CREATE/DROP DATABASE
	SSLMode  string
}

// KeyGenerator returns a fresh unique identifier on every call.
type KeyGenerator func() uuid.UUID

// Variant is a named key generation strategy under comparison.
type Variant struct {
	Name string
	Keys KeyGenerator
}

type InsertStrategy int

const (
	RowByRow InsertStrategy = iota
	Batched
)

func (s InsertStrategy) String() string {
	switch s {
	case RowByRow:
		return "row-by-row"
	case Batched:
		return "batched"
	default:
		return fmt.Sprintf("InsertStrategy(%d)", int(s))
	}
}

// ParseStrategy accepts "row", "row-by-row", "single", "batch" and "batched".
func ParseStrategy(s string) (InsertStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "row-by-row", "single", "":
		return RowByRow, nil
	case "batch", "batched":
		return Batched, nil
	default:
		return 0, fmt.Errorf("%w: unknown insert strategy %q", ErrConfiguration, s)
	}
}

// TrialResult is the measurement of one create-insert-lookup-drop cycle.
type TrialResult struct {
	Fragmentation         float64
	InsertDuration        time.Duration
	SelectSuccessDuration time.Duration
	SelectFailDuration    time.Duration
	Inserted              int
	Sampled               int
}

// AggregatedResult holds the element-wise median of all trials of a variant.
type AggregatedResult struct {
	Variant      string
	Median       TrialResult
	Trials       []TrialResult
	InsertSpread float64 // max relative deviation of insert time from the mean
}

type Report struct {
	Engine      string
	Database    string
	Profile     string
	Strategy    string
	InsertCount int
	RunCount    int
	BatchSize   int
	Seed        int64
	StartedAt   time.Time
	Duration    time.Duration
	Results     []AggregatedResult
}
