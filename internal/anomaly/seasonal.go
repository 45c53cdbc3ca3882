package anomaly

import (
	"fmt"
	"time"

	"loglens/pkg/contracts/domain"
)

// Residual scoring methods
const (
	ScoreZScore = "zscore"
	ScoreMAD    = "mad"
	ScoreEWMA   = "ewma"
	ScoreIQR    = "iqr"
)

// ewmaAlpha is the smoothing factor for the ewma scoring method
const ewmaAlpha = 0.3

// SeriesConfig tunes the seasonal decomposition
type SeriesConfig struct {
	// Period is the cycle length in samples (24 for hourly data with a
	// daily rhythm)
	Period int
	// Seasonal is the smoothing window applied to the per-phase means;
	// even values are raised to the next odd number
	Seasonal int
	// ScoreThreshold is the residual score above which a point is
	// flagged. The iqr method reads it as the Tukey fence multiplier
	// instead.
	ScoreThreshold float64
	// Method selects how residuals are graded: zscore (default), mad,
	// ewma or iqr
	Method string
}

// DefaultSeriesConfig mirrors the analysis defaults
func DefaultSeriesConfig() SeriesConfig {
	return SeriesConfig{Period: 24, Seasonal: 7, ScoreThreshold: 3.0, Method: ScoreZScore}
}

// ValidScoreMethod reports whether name is a known residual scoring
// method; the empty string selects the default.
func ValidScoreMethod(name string) bool {
	switch name {
	case "", ScoreZScore, ScoreMAD, ScoreEWMA, ScoreIQR:
		return true
	}
	return false
}

// Decompose fits an additive trend + seasonal + residual model to an
// hourly series and labels residual outliers. Points whose z-scored
// residual clears the threshold become spikes when the seasonal
// component is rising (positive) and dips otherwise.
func Decompose(points []domain.SeriesPoint, cfg SeriesConfig) (*domain.SeriesDecomposition, error) {
	if cfg.Period < 2 {
		return nil, fmt.Errorf("period must be at least 2, got %d", cfg.Period)
	}
	if cfg.Seasonal < 1 {
		cfg.Seasonal = 1
	}
	if cfg.Seasonal%2 == 0 {
		cfg.Seasonal++
	}
	if err := validateSeries(points, cfg.Period); err != nil {
		return nil, err
	}

	n := len(points)
	values := make([]float64, n)
	for i, p := range points {
		values[i] = p.Value
	}

	trend := movingTrend(values, cfg.Period)
	seasonal := seasonalComponent(values, trend, cfg.Period, cfg.Seasonal)

	residuals := make([]float64, n)
	for i := range values {
		residuals[i] = values[i] - trend[i] - seasonal[i]
	}
	scores, flags, err := scoreResiduals(residuals, cfg)
	if err != nil {
		return nil, err
	}

	method := cfg.Method
	if method == "" {
		method = ScoreZScore
	}
	result := &domain.SeriesDecomposition{
		Points:         make([]domain.DecomposedPoint, n),
		Period:         cfg.Period,
		Seasonal:       cfg.Seasonal,
		ScoreThreshold: cfg.ScoreThreshold,
		Method:         method,
		GeneratedAt:    time.Now(),
	}

	for i := range points {
		label := domain.LabelNormal
		if flags[i] {
			if seasonal[i] > 0 {
				label = domain.LabelSpike
			} else {
				label = domain.LabelDip
			}
			result.AnomalyCount++
		}
		result.Points[i] = domain.DecomposedPoint{
			Timestamp: points[i].Timestamp,
			Value:     points[i].Value,
			Trend:     trend[i],
			Seasonal:  seasonal[i],
			Residual:  residuals[i],
			Baseline:  trend[i] + seasonal[i],
			Score:     scores[i],
			Label:     label,
		}
	}
	return result, nil
}

// scoreResiduals grades the residual series with the configured method
// and decides which points clear the flagging rule. zscore and mad flag
// positive excursions past ScoreThreshold, ewma flags either direction
// once its variance estimate warms up, and iqr flags residuals outside
// the Tukey fences with ScoreThreshold as the multiplier.
func scoreResiduals(residuals []float64, cfg SeriesConfig) ([]float64, []bool, error) {
	n := len(residuals)
	scores := make([]float64, n)
	flags := make([]bool, n)

	switch cfg.Method {
	case "", ScoreZScore:
		scores = ZScores(residuals)
		for i, s := range scores {
			flags[i] = s > cfg.ScoreThreshold
		}
	case ScoreMAD:
		for i, r := range residuals {
			scores[i] = MADScore(residuals, r)
			flags[i] = scores[i] > cfg.ScoreThreshold
		}
	case ScoreEWMA:
		tracker := NewEWMA(ewmaAlpha)
		for i, r := range residuals {
			scores[i] = tracker.Score(r)
			flags[i] = scores[i] > cfg.ScoreThreshold
			tracker.Push(r)
		}
	case ScoreIQR:
		lower, upper := IQRBounds(residuals, cfg.ScoreThreshold)
		iqr := Percentile(residuals, 75) - Percentile(residuals, 25)
		for i, r := range residuals {
			if iqr > 0 {
				switch {
				case r > upper:
					scores[i] = (r - upper) / iqr
				case r < lower:
					scores[i] = (lower - r) / iqr
				}
			}
			flags[i] = r < lower || r > upper
		}
	default:
		return nil, nil, fmt.Errorf("unknown scoring method %q", cfg.Method)
	}
	return scores, flags, nil
}

// validateSeries checks the input is a well-formed hourly series spanning
// more than one period.
func validateSeries(points []domain.SeriesPoint, period int) error {
	if len(points) < 2 {
		return fmt.Errorf("series needs at least 2 points, got %d", len(points))
	}

	for i := 1; i < len(points); i++ {
		gap := points[i].Timestamp.Sub(points[i-1].Timestamp)
		if gap <= 0 {
			return fmt.Errorf("timestamps must be strictly increasing (point %d)", i)
		}
		if gap != time.Hour {
			return fmt.Errorf("series must be hourly; gap of %s before point %d", gap, i)
		}
	}

	span := points[len(points)-1].Timestamp.Sub(points[0].Timestamp)
	if span <= time.Duration(period)*time.Hour {
		return fmt.Errorf("series must span more than %d hours, spans %s", period, span)
	}
	return nil
}

// movingTrend estimates the trend with a centered moving average over one
// period. Edge positions where the full window does not fit take the
// nearest interior estimate so the baseline stays defined everywhere.
func movingTrend(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	half := period / 2

	first, last := -1, -1
	for i := half; i < n-half; i++ {
		sum := 0.0
		for j := i - half; j <= i+half; j++ {
			sum += values[j]
		}
		trend[i] = sum / float64(2*half+1)
		if first < 0 {
			first = i
		}
		last = i
	}

	if first < 0 {
		// window never fits; fall back to the series mean
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(n)
		for i := range trend {
			trend[i] = mean
		}
		return trend
	}

	for i := 0; i < first; i++ {
		trend[i] = trend[first]
	}
	for i := last + 1; i < n; i++ {
		trend[i] = trend[last]
	}
	return trend
}

// seasonalComponent averages the detrended series per phase, smooths the
// phase profile circularly, and centers it to zero mean so a positive
// seasonal value always means an above-average phase.
func seasonalComponent(values, trend []float64, period, window int) []float64 {
	n := len(values)

	phaseSum := make([]float64, period)
	phaseCount := make([]int, period)
	for i := range values {
		phase := i % period
		phaseSum[phase] += values[i] - trend[i]
		phaseCount[phase]++
	}

	profile := make([]float64, period)
	for p := 0; p < period; p++ {
		if phaseCount[p] > 0 {
			profile[p] = phaseSum[p] / float64(phaseCount[p])
		}
	}

	profile = smoothCircular(profile, window)

	mean := 0.0
	for _, v := range profile {
		mean += v
	}
	mean /= float64(period)

	seasonal := make([]float64, n)
	for i := range values {
		seasonal[i] = profile[i%period] - mean
	}
	return seasonal
}

// smoothCircular applies a centered moving average of the given odd
// window around the phase profile, wrapping at the ends.
func smoothCircular(profile []float64, window int) []float64 {
	if window <= 1 || len(profile) <= window {
		return profile
	}

	half := window / 2
	n := len(profile)
	smoothed := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := -half; j <= half; j++ {
			sum += profile[((i+j)%n+n)%n]
		}
		smoothed[i] = sum / float64(window)
	}
	return smoothed
}
