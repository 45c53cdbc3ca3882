package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"loglens/internal/config"
	"loglens/internal/operations"
	"loglens/internal/services"
	"loglens/internal/validation"
)

func main() {
	dataset := flag.String("dataset", "", "dataset directory name under the datasets dir (required)")
	step := flag.String("step", "", "run a single pipeline step instead of the full pipeline")
	datasetsDir := flag.String("datasets", "", "override the datasets directory")
	reportsDir := flag.String("reports", "", "override the reports directory")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	verbose := flag.Bool("v", false, "log progress events")
	flag.Parse()

	if *dataset == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer -dataset <name> [-step <id>]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *step != "" && !validStep(*step) {
		slog.Error("Unknown pipeline step", "step", *step, "valid", operations.PipelineStepIDs())
		os.Exit(2)
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if *datasetsDir != "" {
		paths.DatasetsDir = *datasetsDir
	}
	if *reportsDir != "" {
		paths.ReportsDir = *reportsDir
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to ensure directories", "error", err)
		os.Exit(1)
	}

	logger := slog.Default()

	validator := validation.NewFileValidator(logger)
	fileCount, err := validator.ValidateDatasetDirectory(paths.GetDatasetPath(*dataset))
	if err != nil {
		slog.Error("Dataset validation failed", "error", err)
		os.Exit(1)
	}
	if fileCount == 0 {
		slog.Error("Dataset holds no loadable tables", "dataset", *dataset)
		os.Exit(1)
	}

	service, err := services.NewAnalysisService(paths, &consoleHub{verbose: *verbose}, nil, logger)
	if err != nil {
		slog.Error("Failed to initialize analysis service", "error", err)
		os.Exit(1)
	}

	params := map[string]interface{}{}
	if *step != "" {
		params["step"] = *step
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	slog.Info("Starting analysis run", "dataset", *dataset, "step", runLabel(*step))
	started := time.Now()

	response, err := service.RunAnalysis(ctx, operations.OperationRequest{
		ID:         uuid.New().String(),
		Dataset:    *dataset,
		Parameters: params,
	})
	if err != nil {
		slog.Error("Analysis run failed", "error", err)
		os.Exit(1)
	}

	printStepResults(response)

	if response.Status != operations.OperationStatusCompleted {
		slog.Error("Analysis run did not complete",
			"status", response.Status,
			"error", response.Error)
		os.Exit(1)
	}

	slog.Info("Analysis run completed",
		"operation_id", response.ID,
		"duration", time.Since(started).Round(time.Millisecond),
		"reports_dir", paths.ReportsDir)
}

func validStep(id string) bool {
	for _, known := range operations.PipelineStepIDs() {
		if id == known {
			return true
		}
	}
	return false
}

func runLabel(step string) string {
	if step == "" {
		return "full_pipeline"
	}
	return step
}

func printStepResults(response *operations.OperationResponse) {
	fmt.Println("\n=== STEP RESULTS ===")
	fmt.Println("Step      | Status    | Message")
	fmt.Println("----------|-----------|--------")
	for _, id := range operations.PipelineStepIDs() {
		state, ok := response.Steps[id]
		if !ok {
			continue
		}
		msg := state.Message
		if state.Error != nil {
			msg = state.Error.Error()
		}
		fmt.Printf("%-9s | %-9s | %s\n", id, state.Status, msg)
	}
}

// consoleHub prints operation events to stderr in place of a WebSocket hub
type consoleHub struct {
	verbose bool
}

func (h *consoleHub) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	if !h.verbose && eventType == operations.EventTypeOperationProgress {
		return
	}
	slog.Info("Pipeline event", "event", eventType, "step", step, "status", status)
}
