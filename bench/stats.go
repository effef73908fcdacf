package bench

import (
	"math"
	"slices"
	"time"
)

type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Median returns the middle value of values, or the mean of the two middle
// values for an even count. It returns 0 for no values and does not reorder
// its argument. The mean is taken in float64 so integer inputs neither
// truncate nor overflow.
func Median[T Number](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1])/2 + float64(sorted[mid])/2
}

// MedianDuration takes the median of the millisecond representations.
func MedianDuration(ds []time.Duration) time.Duration {
	ms := make([]float64, len(ds))
	for i, d := range ds {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	return time.Duration(math.Round(Median(ms) * float64(time.Millisecond)))
}

// MedianOfResults applies Median to each field on its own. The fields of the
// result may come from different trials.
func MedianOfResults(results []TrialResult) TrialResult {
	n := len(results)
	frag := make([]float64, n)
	insert := make([]time.Duration, n)
	hit := make([]time.Duration, n)
	miss := make([]time.Duration, n)
	inserted := make([]int, n)
	sampled := make([]int, n)
	for i, r := range results {
		frag[i] = r.Fragmentation
		insert[i] = r.InsertDuration
		hit[i] = r.SelectSuccessDuration
		miss[i] = r.SelectFailDuration
		inserted[i] = r.Inserted
		sampled[i] = r.Sampled
	}
	return TrialResult{
		Fragmentation:         Median(frag),
		InsertDuration:        MedianDuration(insert),
		SelectSuccessDuration: MedianDuration(hit),
		SelectFailDuration:    MedianDuration(miss),
		Inserted:              int(math.Round(Median(inserted))),
		Sampled:               int(math.Round(Median(sampled))),
	}
}

// Spread returns the largest relative deviation from the mean.
func Spread(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	var maxDev float64
	for _, v := range values {
		dev := math.Abs(v-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev
}

func insertSpread(trials []TrialResult) float64 {
	ms := make([]float64, len(trials))
	for i, t := range trials {
		ms[i] = float64(t.InsertDuration) / float64(time.Millisecond)
	}
	return Spread(ms)
}
