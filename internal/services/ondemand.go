package services

import (
	"context"
	"fmt"
	"log/slog"

	"loglens/internal/anomaly"
	"loglens/internal/signature"
	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// On-demand analysis: single-table computations served straight from the
// API without going through a pipeline run.

// ComputeSignatures builds the signature census for one table
func (as *AnalysisService) ComputeSignatures(ctx context.Context, dataset, table string) (*domain.SignatureSet, error) {
	loaded, err := as.loadTable(dataset, table)
	if err != nil {
		return nil, err
	}

	set := signature.Compute(loaded)
	as.logger.InfoContext(ctx, "signature census computed",
		slog.String("table", loaded.Name),
		slog.Int("signatures", len(set.Summaries)))
	return set, nil
}

// UniqueSignatureValues mines one table's signatures for rare values.
// Threshold caps the distinct values a feature may take within a
// signature; values below 1 are raised to 1.
func (as *AnalysisService) UniqueSignatureValues(ctx context.Context, dataset, table string, threshold int) (*domain.SignatureSet, []signature.UniqueValue, error) {
	set, err := as.ComputeSignatures(ctx, dataset, table)
	if err != nil {
		return nil, nil, err
	}

	unique := signature.FindUnique(set, threshold)
	if len(unique) == 0 {
		return set, nil, ErrNoMatchesFound
	}
	return set, unique, nil
}

// ForestRequest tunes an on-demand isolation forest run
type ForestRequest struct {
	Dataset       string   `json:"dataset"`
	Table         string   `json:"table"`
	Trees         int      `json:"trees,omitempty"`
	SampleSize    int      `json:"sample_size,omitempty"`
	Contamination float64  `json:"contamination,omitempty"`
	Columns       []string `json:"columns,omitempty"`
}

// DetectForest scores one table's rows with an isolation forest
func (as *AnalysisService) DetectForest(ctx context.Context, req ForestRequest) (*domain.ForestResult, error) {
	loaded, err := as.loadTable(req.Dataset, req.Table)
	if err != nil {
		return nil, err
	}

	cfg := anomaly.DefaultForestConfig()
	if req.Trees > 0 {
		cfg.Trees = req.Trees
	}
	if req.SampleSize > 0 {
		cfg.SampleSize = req.SampleSize
	}
	if req.Contamination > 0 {
		cfg.Contamination = req.Contamination
	}
	cfg.Columns = req.Columns

	detector := anomaly.NewDetector(as.logger)
	result, err := detector.DetectForest(ctx, loaded, cfg)
	if err != nil {
		return nil, fmt.Errorf("forest detection on %s: %w", loaded.Name, err)
	}
	return result, nil
}

// SeriesRequest tunes an on-demand seasonal decomposition
type SeriesRequest struct {
	Dataset        string  `json:"dataset"`
	Table          string  `json:"table"`
	TimeColumn     string  `json:"time_column"`
	Period         int     `json:"period,omitempty"`
	Seasonal       int     `json:"seasonal,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
	Method         string  `json:"method,omitempty"`
}

// DetectSeries decomposes one table's hourly event counts and flags
// residual outliers
func (as *AnalysisService) DetectSeries(ctx context.Context, req SeriesRequest) (*domain.SeriesDecomposition, error) {
	loaded, err := as.loadTable(req.Dataset, req.Table)
	if err != nil {
		return nil, err
	}

	timeColumn := req.TimeColumn
	if timeColumn == "" {
		for _, col := range loaded.Columns {
			if col.Kind == domain.ColumnKindTime {
				timeColumn = col.Name
				break
			}
		}
	}
	if timeColumn == "" {
		return nil, fmt.Errorf("%w: table %s has no timestamp column", ErrInvalidInput, loaded.Name)
	}

	points, err := anomaly.HourlySeries(loaded, timeColumn)
	if err != nil {
		return nil, fmt.Errorf("hourly series from %s: %w", loaded.Name, err)
	}

	cfg := anomaly.DefaultSeriesConfig()
	if req.Period > 0 {
		cfg.Period = req.Period
	}
	if req.Seasonal > 0 {
		cfg.Seasonal = req.Seasonal
	}
	if req.ScoreThreshold > 0 {
		cfg.ScoreThreshold = req.ScoreThreshold
	}
	if req.Method != "" {
		if !anomaly.ValidScoreMethod(req.Method) {
			return nil, fmt.Errorf("%w: unknown scoring method %q", ErrInvalidInput, req.Method)
		}
		cfg.Method = req.Method
	}

	detector := anomaly.NewDetector(as.logger)
	result, err := detector.DetectSeries(ctx, points, cfg)
	if err != nil {
		return nil, fmt.Errorf("series decomposition on %s: %w", loaded.Name, err)
	}
	return result, nil
}

// loadTable resolves and loads a single table within a dataset
func (as *AnalysisService) loadTable(dataset, table string) (*domain.Table, error) {
	path, err := resolveTablePath(as.paths, dataset, table)
	if err != nil {
		return nil, err
	}
	loaded, err := tables.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", table, err)
	}
	return loaded, nil
}
