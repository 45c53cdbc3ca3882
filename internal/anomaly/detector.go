package anomaly

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// ForestConfig tunes a table-level isolation forest run
type ForestConfig struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
	// Columns selects the feature columns; empty means every numeric
	// column
	Columns []string
}

// DefaultForestConfig mirrors the analysis defaults
func DefaultForestConfig() ForestConfig {
	return ForestConfig{Trees: 100, SampleSize: 256, Contamination: 0.1, Seed: 42}
}

// Detector turns tables into detector input and runs the engines
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a detector
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// FeatureMatrix extracts numeric feature rows from a table. Blank cells
// take the column mean so sparse rows stay scoreable without distorting
// the distribution. Returns the matrix and the feature column names.
func FeatureMatrix(table *domain.Table, columns []string) ([][]float64, []string, error) {
	indices, names, err := featureColumns(table, columns)
	if err != nil {
		return nil, nil, err
	}

	means := make([]float64, len(indices))
	for i, idx := range indices {
		stats := NewRunningStats()
		for _, row := range table.Rows {
			if idx < len(row) && !tables.IsBlank(row[idx]) {
				v, err := strconv.ParseFloat(row[idx], 64)
				if err != nil {
					return nil, nil, fmt.Errorf("column %s row value %q is not numeric", names[i], row[idx])
				}
				stats.Push(v)
			}
		}
		means[i] = stats.Mean()
	}

	matrix := make([][]float64, table.RowCount)
	for r, row := range table.Rows {
		features := make([]float64, len(indices))
		for i, idx := range indices {
			if idx < len(row) && !tables.IsBlank(row[idx]) {
				features[i], _ = strconv.ParseFloat(row[idx], 64)
			} else {
				features[i] = means[i]
			}
		}
		matrix[r] = features
	}
	return matrix, names, nil
}

// DetectForest fits an isolation forest on the table's numeric features
// and scores every row.
func (d *Detector) DetectForest(ctx context.Context, table *domain.Table, cfg ForestConfig) (*domain.ForestResult, error) {
	matrix, names, err := FeatureMatrix(table, cfg.Columns)
	if err != nil {
		return nil, err
	}
	if len(matrix) == 0 {
		return nil, fmt.Errorf("table %s has no rows to score", table.Name)
	}

	forest := NewForest(
		WithTrees(cfg.Trees),
		WithSampleSize(cfg.SampleSize),
		WithContamination(cfg.Contamination),
		WithSeed(cfg.Seed),
	)
	if err := forest.Fit(matrix); err != nil {
		return nil, fmt.Errorf("fit forest on %s: %w", table.Name, err)
	}

	result := &domain.ForestResult{
		Table:         table.Name,
		Columns:       names,
		Scores:        make([]domain.ForestScore, len(matrix)),
		Threshold:     forest.Threshold(),
		Contamination: cfg.Contamination,
		Trees:         cfg.Trees,
		SampleSize:    cfg.SampleSize,
		GeneratedAt:   time.Now(),
	}

	for r, row := range matrix {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		score := forest.Score(row)
		flagged := score >= forest.Threshold()
		if flagged {
			result.AnomalyCount++
		}
		result.Scores[r] = domain.ForestScore{RowIndex: r, Score: score, IsAnomaly: flagged}
	}

	d.logger.InfoContext(ctx, "isolation forest run complete",
		slog.String("table", table.Name),
		slog.Int("rows", len(matrix)),
		slog.Int("features", len(names)),
		slog.Int("anomalies", result.AnomalyCount))

	return result, nil
}

// DetectSeries decomposes an hourly series and labels residual outliers
func (d *Detector) DetectSeries(ctx context.Context, points []domain.SeriesPoint, cfg SeriesConfig) (*domain.SeriesDecomposition, error) {
	result, err := Decompose(points, cfg)
	if err != nil {
		return nil, err
	}

	d.logger.InfoContext(ctx, "series decomposition complete",
		slog.Int("points", len(points)),
		slog.Int("period", cfg.Period),
		slog.Int("anomalies", result.AnomalyCount))

	return result, nil
}

// HourlySeries aggregates a table into an hourly event-count series using
// the named timestamp column. Missing hours inside the span are filled
// with zero counts so the series stays evenly spaced.
func HourlySeries(table *domain.Table, timeColumn string) ([]domain.SeriesPoint, error) {
	idx := table.ColumnIndex(timeColumn)
	if idx < 0 {
		return nil, fmt.Errorf("table %s has no column %s", table.Name, timeColumn)
	}

	counts := make(map[time.Time]float64)
	var first, last time.Time
	for r, row := range table.Rows {
		if idx >= len(row) || tables.IsBlank(row[idx]) {
			continue
		}
		ts, err := parseTimestamp(row[idx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		hour := ts.Truncate(time.Hour)
		counts[hour]++
		if first.IsZero() || hour.Before(first) {
			first = hour
		}
		if hour.After(last) {
			last = hour
		}
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("column %s holds no timestamps", timeColumn)
	}

	var points []domain.SeriesPoint
	for hour := first; !hour.After(last); hour = hour.Add(time.Hour) {
		points = append(points, domain.SeriesPoint{Timestamp: hour, Value: counts[hour]})
	}
	return points, nil
}

// ForestSummary condenses a forest result into the aggregate view
func ForestSummary(result *domain.ForestResult) domain.AnomalySummary {
	stats := NewRunningStats()
	for _, s := range result.Scores {
		stats.Push(s.Score)
	}

	summary := domain.AnomalySummary{
		Method:       "isolation_forest",
		Observations: len(result.Scores),
		AnomalyCount: result.AnomalyCount,
		MeanScore:    stats.Mean(),
		MaxScore:     stats.Max(),
		Threshold:    result.Threshold,
	}
	if summary.Observations > 0 {
		summary.AnomalyRate = float64(summary.AnomalyCount) / float64(summary.Observations)
	}
	return summary
}

// SeriesSummary condenses a decomposition into the aggregate view
func SeriesSummary(result *domain.SeriesDecomposition) domain.AnomalySummary {
	stats := NewRunningStats()
	for _, p := range result.Points {
		stats.Push(p.Score)
	}

	summary := domain.AnomalySummary{
		Method:       "seasonal_decomposition",
		Observations: len(result.Points),
		AnomalyCount: result.AnomalyCount,
		MeanScore:    stats.Mean(),
		MaxScore:     stats.Max(),
		Threshold:    result.ScoreThreshold,
	}
	if summary.Observations > 0 {
		summary.AnomalyRate = float64(summary.AnomalyCount) / float64(summary.Observations)
	}
	return summary
}

// featureColumns resolves the feature column indices: the named columns,
// or every numeric column when none are named.
func featureColumns(table *domain.Table, columns []string) ([]int, []string, error) {
	var indices []int
	var names []string

	if len(columns) > 0 {
		for _, name := range columns {
			idx := table.ColumnIndex(name)
			if idx < 0 {
				return nil, nil, fmt.Errorf("table %s has no column %s", table.Name, name)
			}
			indices = append(indices, idx)
			names = append(names, name)
		}
		return indices, names, nil
	}

	for _, col := range table.Columns {
		if col.Kind == domain.ColumnKindNumeric {
			indices = append(indices, col.Index)
			names = append(names, col.Name)
		}
	}
	if len(indices) == 0 {
		return nil, nil, fmt.Errorf("table %s has no numeric columns", table.Name)
	}
	return indices, names, nil
}

var seriesTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range seriesTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}
