package domain

import (
	"time"
)

// SeriesPoint is one observation in an hourly event series
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// AnomalyLabel classifies a scored series point. Spikes are residual
// outliers on a rising seasonal phase, dips the same on a falling phase.
type AnomalyLabel int

const (
	LabelDip    AnomalyLabel = -1
	LabelNormal AnomalyLabel = 0
	LabelSpike  AnomalyLabel = 1
)

// String implements fmt.Stringer
func (l AnomalyLabel) String() string {
	switch l {
	case LabelSpike:
		return "spike"
	case LabelDip:
		return "dip"
	default:
		return "normal"
	}
}

// DecomposedPoint carries one series point with its additive components
// and residual score. Baseline is trend plus seasonal.
type DecomposedPoint struct {
	Timestamp time.Time    `json:"timestamp"`
	Value     float64      `json:"value"`
	Trend     float64      `json:"trend"`
	Seasonal  float64      `json:"seasonal"`
	Residual  float64      `json:"residual"`
	Baseline  float64      `json:"baseline"`
	Score     float64      `json:"score"`
	Label     AnomalyLabel `json:"label"`
}

// SeriesDecomposition is the full output of a seasonal decomposition run
type SeriesDecomposition struct {
	Points         []DecomposedPoint `json:"points"`
	Period         int               `json:"period"`
	Seasonal       int               `json:"seasonal"`
	ScoreThreshold float64           `json:"score_threshold"`
	Method         string            `json:"method,omitempty"`
	AnomalyCount   int               `json:"anomaly_count"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Anomalies returns the points labelled spike or dip
func (d *SeriesDecomposition) Anomalies() []DecomposedPoint {
	var out []DecomposedPoint
	for _, p := range d.Points {
		if p.Label != LabelNormal {
			out = append(out, p)
		}
	}
	return out
}

// ForestScore is the isolation-forest grade for one row
type ForestScore struct {
	RowIndex  int     `json:"row_index"`
	Score     float64 `json:"score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

// ForestResult is a full isolation-forest run over one table
type ForestResult struct {
	Table         string        `json:"table"`
	Columns       []string      `json:"columns"`
	Scores        []ForestScore `json:"scores"`
	Threshold     float64       `json:"threshold"`
	Contamination float64       `json:"contamination"`
	Trees         int           `json:"trees"`
	SampleSize    int           `json:"sample_size"`
	AnomalyCount  int           `json:"anomaly_count"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// TopAnomalies returns up to n flagged rows ordered as scored
func (r *ForestResult) TopAnomalies(n int) []ForestScore {
	var flagged []ForestScore
	for _, s := range r.Scores {
		if s.IsAnomaly {
			flagged = append(flagged, s)
			if n > 0 && len(flagged) == n {
				break
			}
		}
	}
	return flagged
}

// AnomalySummary is the aggregate view over one detection run
type AnomalySummary struct {
	Method       string  `json:"method"`
	Observations int     `json:"observations"`
	AnomalyCount int     `json:"anomaly_count"`
	AnomalyRate  float64 `json:"anomaly_rate"`
	MeanScore    float64 `json:"mean_score"`
	MaxScore     float64 `json:"max_score"`
	Threshold    float64 `json:"threshold"`
}
