package anomaly

import (
	"math"
	"sort"
)

// RunningStats accumulates mean and variance in one pass using Welford's
// update, so detectors can grade streams without holding them.
type RunningStats struct {
	count int
	mean  float64
	m2    float64
	min   float64
	max   float64
}

// NewRunningStats returns an empty accumulator
func NewRunningStats() *RunningStats {
	return &RunningStats{min: math.MaxFloat64, max: -math.MaxFloat64}
}

// Push folds a value into the statistics
func (s *RunningStats) Push(value float64) {
	s.count++
	delta := value - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (value - s.mean)

	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}
}

// Count returns the number of values pushed
func (s *RunningStats) Count() int { return s.count }

// Mean returns the running mean
func (s *RunningStats) Mean() float64 { return s.mean }

// Variance returns the population variance
func (s *RunningStats) Variance() float64 {
	if s.count == 0 {
		return 0
	}
	return s.m2 / float64(s.count)
}

// SampleVariance returns the n-1 variance
func (s *RunningStats) SampleVariance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count-1)
}

// StdDev returns the population standard deviation
func (s *RunningStats) StdDev() float64 { return math.Sqrt(s.Variance()) }

// Min returns the smallest value pushed, 0 before any push
func (s *RunningStats) Min() float64 {
	if s.count == 0 {
		return 0
	}
	return s.min
}

// Max returns the largest value pushed, 0 before any push
func (s *RunningStats) Max() float64 {
	if s.count == 0 {
		return 0
	}
	return s.max
}

// ZScore grades a value against the accumulated distribution
func (s *RunningStats) ZScore(value float64) float64 {
	std := s.StdDev()
	if std == 0 {
		return 0
	}
	return (value - s.mean) / std
}

// ZScores standardizes a series against its own mean and population
// standard deviation. A constant series scores all zeros.
func ZScores(values []float64) []float64 {
	stats := NewRunningStats()
	for _, v := range values {
		stats.Push(v)
	}

	scores := make([]float64, len(values))
	for i, v := range values {
		scores[i] = stats.ZScore(v)
	}
	return scores
}

// Percentile returns the p-th percentile (0-100) of the values with
// linear interpolation between ranks. The input need not be sorted.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Median returns the 50th percentile
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// MADConsistency scales the median absolute deviation into a
// standard-deviation-comparable unit for normal data.
const MADConsistency = 0.6745

// MADScore returns the modified z-score of value against the series:
// 0.6745 * (value - median) / MAD. A zero MAD yields zero.
func MADScore(values []float64, value float64) float64 {
	median := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}
	mad := Median(deviations)
	if mad == 0 {
		return 0
	}
	return MADConsistency * (value - median) / mad
}

// IQRBounds returns the Tukey fences [q1 - k*iqr, q3 + k*iqr]
func IQRBounds(values []float64, k float64) (lower, upper float64) {
	q1 := Percentile(values, 25)
	q3 := Percentile(values, 75)
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// EWMA tracks an exponentially weighted mean and variance. Alpha is the
// smoothing factor in (0,1]; larger values forget faster.
type EWMA struct {
	alpha    float64
	mean     float64
	variance float64
	count    int
}

// NewEWMA creates a tracker with the given smoothing factor
func NewEWMA(alpha float64) *EWMA {
	return &EWMA{alpha: alpha}
}

// Push folds a value into the moving statistics
func (e *EWMA) Push(value float64) {
	if e.count == 0 {
		e.mean = value
		e.variance = 0
	} else {
		diff := value - e.mean
		e.mean += e.alpha * diff
		e.variance = (1 - e.alpha) * (e.variance + e.alpha*diff*diff)
	}
	e.count++
}

// Mean returns the current moving mean
func (e *EWMA) Mean() float64 { return e.mean }

// StdDev returns the current moving standard deviation
func (e *EWMA) StdDev() float64 { return math.Sqrt(e.variance) }

// Score grades how far a value sits from the moving mean, in moving
// standard deviations. Returns 0 until enough values arrive to trust the
// variance estimate.
func (e *EWMA) Score(value float64) float64 {
	if e.count < 10 {
		return 0
	}
	std := e.StdDev()
	if std == 0 {
		return 0
	}
	return math.Abs(value-e.mean) / std
}
