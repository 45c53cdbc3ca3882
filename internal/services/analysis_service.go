package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"loglens/internal/config"
	"loglens/internal/infrastructure"
	"loglens/internal/operations"
)

// WebSocketHub is the broadcast surface the analysis service needs
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// WebSocketOperationAdapter adapts a WebSocketHub to the operations
// manager's broadcast interface
type WebSocketOperationAdapter struct {
	hub WebSocketHub
}

// NewWebSocketOperationAdapter creates a new WebSocket operation adapter
func NewWebSocketOperationAdapter(hub WebSocketHub) *WebSocketOperationAdapter {
	return &WebSocketOperationAdapter{hub: hub}
}

// BroadcastUpdate implements operations.WebSocketHub
func (w *WebSocketOperationAdapter) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	data := map[string]interface{}{
		"event_type": eventType,
		"step":       step,
		"status":     status,
	}
	if metadata != nil {
		data["metadata"] = metadata
	}
	w.hub.Broadcast(eventType, data)
}

// AnalysisService runs the analysis pipeline through the operations manager
type AnalysisService struct {
	manager *operations.Manager
	paths   *config.Paths
	logger  *slog.Logger
}

// NewAnalysisService creates the service and registers the pipeline steps
func NewAnalysisService(paths *config.Paths, hub operations.WebSocketHub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	manager := operations.NewManager(hub, nil, nil)
	if err := operations.RegisterPipeline(manager, paths, logger, metrics); err != nil {
		return nil, fmt.Errorf("register pipeline steps: %w", err)
	}

	logger.Info("AnalysisService initialized",
		slog.String("datasets_dir", paths.DatasetsDir),
		slog.String("reports_dir", paths.ReportsDir))

	return &AnalysisService{
		manager: manager,
		paths:   paths,
		logger:  logger,
	}, nil
}

// StartAnalysis launches a pipeline run and returns its operation ID.
// Parameters flow into the step configuration; a "step" parameter limits
// the run to one step.
func (as *AnalysisService) StartAnalysis(ctx context.Context, dataset string, params map[string]interface{}) (string, error) {
	request := operations.OperationRequest{
		ID:         uuid.New().String(),
		Dataset:    dataset,
		Parameters: params,
	}

	as.logger.InfoContext(ctx, "starting analysis run",
		slog.String("id", request.ID),
		slog.String("dataset", dataset),
		slog.Any("parameters", params))

	// Execute blocks for the life of the run, so callers that want the ID
	// back immediately run it in the background
	go func() {
		runCtx := context.WithoutCancel(ctx)
		if _, err := as.manager.Execute(runCtx, request); err != nil {
			as.logger.Error("analysis run failed",
				slog.String("id", request.ID),
				slog.String("error", err.Error()))
		}
	}()

	return request.ID, nil
}

// RunAnalysis executes a pipeline run synchronously
func (as *AnalysisService) RunAnalysis(ctx context.Context, request operations.OperationRequest) (*operations.OperationResponse, error) {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}

	resp, err := as.manager.Execute(ctx, request)
	if err != nil {
		return resp, fmt.Errorf("execute analysis: %w", err)
	}

	as.logger.InfoContext(ctx, "analysis run finished",
		slog.String("id", resp.ID),
		slog.String("status", string(resp.Status)),
		slog.Duration("duration", resp.Duration))
	return resp, nil
}

// StartStep launches a single pipeline step
func (as *AnalysisService) StartStep(ctx context.Context, stepID, dataset string, params map[string]interface{}) (string, error) {
	if _, err := as.manager.GetRegistry().Get(stepID); err != nil {
		return "", ErrInvalidStep
	}

	merged := map[string]interface{}{"step": stepID}
	for k, v := range params {
		merged[k] = v
	}
	return as.StartAnalysis(ctx, dataset, merged)
}

// GetStatus returns the live state of a running operation
func (as *AnalysisService) GetStatus(ctx context.Context, operationID string) (*operations.OperationState, error) {
	if operationID == "" {
		return nil, ErrInvalidInput
	}

	state, err := as.manager.GetOperation(operationID)
	if err != nil {
		return nil, ErrOperationNotFound
	}
	return state, nil
}

// GetSnapshot returns the broadcaster's view of an operation, which
// survives run completion until cleanup
func (as *AnalysisService) GetSnapshot(ctx context.Context, operationID string) (*operations.OperationSnapshot, error) {
	snapshot, ok := as.manager.GetBroadcaster().GetSnapshot(operationID)
	if !ok {
		return nil, ErrOperationNotFound
	}
	return snapshot, nil
}

// ListOperations returns every tracked operation snapshot
func (as *AnalysisService) ListOperations(ctx context.Context) []*operations.OperationSnapshot {
	return as.manager.GetBroadcaster().GetAllSnapshots()
}

// CancelOperation cancels a running operation
func (as *AnalysisService) CancelOperation(ctx context.Context, operationID string) error {
	if err := as.manager.CancelOperation(operationID); err != nil {
		return ErrOperationNotFound
	}

	as.logger.InfoContext(ctx, "operation cancelled", slog.String("id", operationID))
	return nil
}

// CancelAll stops every running operation
func (as *AnalysisService) CancelAll(ctx context.Context) error {
	for _, state := range as.manager.ListOperations() {
		if state.Status == operations.OperationStatusRunning {
			if err := as.manager.CancelOperation(state.ID); err != nil {
				as.logger.ErrorContext(ctx, "failed to cancel operation",
					slog.String("id", state.ID),
					slog.String("error", err.Error()))
				return err
			}
		}
	}
	return nil
}

// GetOperationTypes describes the runnable steps and the full pipeline
func (as *AnalysisService) GetOperationTypes(ctx context.Context) []operations.OperationType {
	steps := as.manager.GetRegistry().List()

	types := make([]operations.OperationType, 0, len(steps)+1)
	for _, step := range steps {
		types = append(types, operations.OperationType{
			ID:           step.ID(),
			Name:         step.Name(),
			Description:  stepDescription(step.ID()),
			Dependencies: step.GetDependencies(),
			CanRunAlone:  true,
			Parameters:   stepParameters(step.ID()),
		})
	}

	types = append(types, operations.OperationType{
		ID:           "full_pipeline",
		Name:         "Full Pipeline",
		Description:  "Run every analysis step in dependency order",
		Dependencies: []string{},
		CanRunAlone:  true,
		Parameters: []operations.ParameterDefinition{
			{
				Name:        "dataset",
				Type:        "string",
				Description: "Dataset directory name under the datasets root",
				Required:    false,
			},
			{
				Name:        "include_workbook",
				Type:        "bool",
				Description: "Also write the consolidated XLSX workbook",
				Required:    false,
				Default:     true,
			},
		},
	})

	return types
}

// stepDescription returns a user-facing description for each step
func stepDescription(stepID string) string {
	descriptions := map[string]string{
		operations.StepIDIngest:    "Load every table file from the dataset directory",
		operations.StepIDProfile:   "Profile column fill rates and classify table variability",
		operations.StepIDReduce:    "Drop invariant, duplicate and low-entropy columns",
		operations.StepIDIdentify:  "Match columns against entity definitions (IPs, hashes, paths)",
		operations.StepIDSignature: "Compute row presence signatures per table",
		operations.StepIDAnomaly:   "Score rows with an isolation forest and decompose hourly series",
		operations.StepIDReport:    "Export profiles, signatures, anomalies and the entity map",
	}

	if desc, ok := descriptions[stepID]; ok {
		return desc
	}
	return "Analysis step"
}

// stepParameters returns the parameters accepted by each step
func stepParameters(stepID string) []operations.ParameterDefinition {
	switch stepID {
	case operations.StepIDReduce:
		return []operations.ParameterDefinition{
			{Name: "drop_list", Type: "list", Description: "Column names to always drop", Required: false},
			{Name: "entropy_cleanup", Type: "bool", Description: "Drop low-entropy columns", Required: false, Default: false},
			{Name: "entropy_cutoff", Type: "number", Description: "Normalized entropy cutoff", Required: false, Default: 0.5},
		}
	case operations.StepIDIdentify:
		return []operations.ParameterDefinition{
			{Name: "sample_size", Type: "number", Description: "Rows sampled per table", Required: false},
			{Name: "partial", Type: "bool", Description: "Match substrings instead of whole cells", Required: false, Default: false},
			{Name: "threshold", Type: "number", Description: "Minimum match ratio to assign an entity", Required: false, Default: 0.5},
		}
	case operations.StepIDAnomaly:
		return []operations.ParameterDefinition{
			{Name: "trees", Type: "number", Description: "Isolation forest size", Required: false, Default: 100},
			{Name: "contamination", Type: "number", Description: "Expected anomaly fraction", Required: false, Default: 0.1},
			{Name: "time_column", Type: "string", Description: "Timestamp column for the hourly series", Required: false},
		}
	case operations.StepIDReport:
		return []operations.ParameterDefinition{
			{Name: "include_workbook", Type: "bool", Description: "Also write the consolidated XLSX workbook", Required: false, Default: true},
		}
	default:
		return []operations.ParameterDefinition{}
	}
}

// GetAnalysisMetrics summarises tracked operations for the API
func (as *AnalysisService) GetAnalysisMetrics(ctx context.Context) map[string]interface{} {
	snapshots := as.manager.GetBroadcaster().GetAllSnapshots()

	active := 0
	completed := 0
	failed := 0
	for _, snap := range snapshots {
		switch snap.Status {
		case "running", "pending":
			active++
		case "completed":
			completed++
		case "failed", "cancelled":
			failed++
		}
	}

	return map[string]interface{}{
		"total_operations":     len(snapshots),
		"active_operations":    active,
		"completed_operations": completed,
		"failed_operations":    failed,
		"timestamp":            time.Now().Unix(),
	}
}

// GetManager returns the underlying operations manager
func (as *AnalysisService) GetManager() *operations.Manager {
	return as.manager
}
