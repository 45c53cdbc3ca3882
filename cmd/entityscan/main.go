package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"loglens/internal/entity"
	"loglens/internal/tables"
	"loglens/internal/validation"
	"loglens/pkg/contracts/domain"
)

func main() {
	file := flag.String("file", "", "path to a CSV or XLSX log table (required)")
	definitions := flag.String("definitions", "", "JSON definitions file (defaults to built-in registry)")
	sampleSize := flag.Int("sample", 100, "rows sampled per column (0 scans everything)")
	partial := flag.Bool("partial", false, "substring matching instead of anchored patterns")
	threshold := flag.Float64("threshold", 0.5, "minimum match ratio for an entity assignment")
	asJSON := flag.Bool("json", false, "emit the entity map as JSON on stdout")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: entityscan -file <table.csv> [-definitions defs.json]")
		flag.PrintDefaults()
		os.Exit(2)
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
	slog.Info("Loaded table", "table", table.Name, "rows", table.RowCount, "columns", table.ColumnCount)

	registry := entity.NewDefaultRegistry()
	if *definitions != "" {
		if err := registry.LoadJSON(*definitions); err != nil {
			slog.Error("Failed to load definitions", "path", *definitions, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("Definitions loaded", "count", registry.Len())

	opts := entity.DefaultScanOptions()
	opts.SampleSize = *sampleSize
	opts.Partial = *partial

	scanner := entity.NewScanner(registry, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	matches, err := scanner.ScanTable(ctx, table, opts)
	if err != nil {
		slog.Error("Scan failed", "error", err)
		os.Exit(1)
	}
	if len(matches) == 0 {
		slog.Warn("No columns matched any definition", "table", table.Name)
		os.Exit(0)
	}

	assignments := entity.Interpret(matches, registry, *threshold)
	entityMap := entity.BuildEntityMap(assignments)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entityMap); err != nil {
			slog.Error("Failed to encode entity map", "error", err)
			os.Exit(1)
		}
		return
	}

	printMatches(matches)
	printAssignments(assignments)
}

func printMatches(matches []domain.ColumnMatch) {
	fmt.Println("\n=== COLUMN MATCHES ===")
	fmt.Println("Column               | Definition        | Priority | Ratio")
	fmt.Println("---------------------|-------------------|----------|------")
	for _, m := range matches {
		fmt.Printf("%-20s | %-17s | %8d | %.2f\n",
			m.Column, m.Definition, m.Priority, m.MatchRatio)
	}
}

func printAssignments(assignments []domain.EntityAssignment) {
	fmt.Println("\n=== ENTITY ASSIGNMENTS ===")
	if len(assignments) == 0 {
		fmt.Println("(no column cleared the assignment threshold)")
		return
	}
	fmt.Println("Column               | Entity            | Ratio")
	fmt.Println("---------------------|-------------------|------")
	for _, a := range assignments {
		fmt.Printf("%-20s | %-17s | %.2f\n", a.Column, a.Entity, a.MatchRatio)
	}
}
