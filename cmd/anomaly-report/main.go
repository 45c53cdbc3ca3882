package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"loglens/internal/anomaly"
	"loglens/internal/config"
	"loglens/internal/exporter"
	"loglens/internal/tables"
	"loglens/internal/validation"
	"loglens/pkg/contracts/domain"
)

func main() {
	file := flag.String("file", "", "path to a CSV or XLSX log table (required)")
	mode := flag.String("mode", "forest", "detection mode: forest or series")
	outputDir := flag.String("out", "", "output directory for reports (defaults to data/reports)")

	columns := flag.String("columns", "", "comma-separated numeric columns for forest mode (defaults to all numeric)")
	trees := flag.Int("trees", 100, "isolation trees to build")
	sampleSize := flag.Int("sample", 256, "subsample size per tree")
	contamination := flag.Float64("contamination", 0.1, "expected anomaly fraction (0..0.5)")

	timeColumn := flag.String("time", "", "timestamp column for series mode (required with -mode series)")
	period := flag.Int("period", 24, "seasonal period in buckets for series mode")
	seasonal := flag.Int("seasonal", 7, "seasonal smoothing window for series mode")
	scoreThreshold := flag.Float64("score", 3.0, "residual score threshold for series mode (Tukey multiplier with -method iqr)")
	method := flag.String("method", "zscore", "residual scoring for series mode: zscore, mad, ewma or iqr")

	includeNormal := flag.Bool("all-rows", false, "include non-anomalous rows in the forest report")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: anomaly-report -file <table.csv> [-mode forest|series]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		paths.ReportsDir = *outputDir
	}
	if err := os.MkdirAll(paths.ReportsDir, 0o755); err != nil {
		slog.Error("Failed to create reports directory", "error", err)
		os.Exit(1)
	}

	if err := validation.NewFileValidator(slog.Default()).ValidateDataFile(*file); err != nil {
		slog.Error("File validation failed", "error", err)
		os.Exit(1)
	}

	table, err := tables.LoadFile(*file)
	if err != nil {
		slog.Error("Failed to load table", "path", *file, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded table", "table", table.Name, "rows", table.RowCount)

	logger := slog.Default()
	detector := anomaly.NewDetector(logger)
	writer := exporter.NewReportWriter(paths, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	now := time.Now()

	switch *mode {
	case "forest":
		cfg := anomaly.DefaultForestConfig()
		cfg.Trees = *trees
		cfg.SampleSize = *sampleSize
		cfg.Contamination = *contamination
		if *columns != "" {
			cfg.Columns = strings.Split(*columns, ",")
		}

		result, err := detector.DetectForest(ctx, table, cfg)
		if err != nil {
			slog.Error("Forest detection failed", "error", err)
			os.Exit(1)
		}

		reportPath, err := writer.WriteForestAnomalies(result, *includeNormal, now)
		if err != nil {
			slog.Error("Failed to write forest report", "error", err)
			os.Exit(1)
		}

		printSummary(anomaly.ForestSummary(result))
		slog.Info("Forest report written", "path", reportPath, "anomalies", result.AnomalyCount)

	case "series":
		if *timeColumn == "" {
			fmt.Fprintln(os.Stderr, "series mode requires -time <column>")
			os.Exit(2)
		}

		points, err := anomaly.HourlySeries(table, *timeColumn)
		if err != nil {
			slog.Error("Failed to bucket series", "error", err)
			os.Exit(1)
		}

		if !anomaly.ValidScoreMethod(*method) {
			fmt.Fprintf(os.Stderr, "unknown scoring method %q: want zscore, mad, ewma or iqr\n", *method)
			os.Exit(2)
		}

		cfg := anomaly.DefaultSeriesConfig()
		cfg.Period = *period
		cfg.Seasonal = *seasonal
		cfg.ScoreThreshold = *scoreThreshold
		cfg.Method = *method

		result, err := detector.DetectSeries(ctx, points, cfg)
		if err != nil {
			slog.Error("Series decomposition failed", "error", err)
			os.Exit(1)
		}

		reportPath, err := writer.WriteSeriesDecomposition(result, table.Name, now)
		if err != nil {
			slog.Error("Failed to write series report", "error", err)
			os.Exit(1)
		}

		printSummary(anomaly.SeriesSummary(result))
		slog.Info("Series report written", "path", reportPath, "anomalies", result.AnomalyCount)

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q: want forest or series\n", *mode)
		os.Exit(2)
	}
}

func printSummary(s domain.AnomalySummary) {
	fmt.Println("\n=== ANOMALY SUMMARY ===")
	fmt.Printf("Method:        %s\n", s.Method)
	fmt.Printf("Observations:  %d\n", s.Observations)
	fmt.Printf("Anomalies:     %d (%.1f%%)\n", s.AnomalyCount, s.AnomalyRate*100)
	fmt.Printf("Mean score:    %.4f\n", s.MeanScore)
	fmt.Printf("Max score:     %.4f\n", s.MaxScore)
	fmt.Printf("Threshold:     %.4f\n", s.Threshold)
}
