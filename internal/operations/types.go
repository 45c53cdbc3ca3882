package operations

import (
	"time"
)

// Step identifiers
const (
	StepIDIngest    = "ingest"
	StepIDProfile   = "profile"
	StepIDReduce    = "reduce"
	StepIDIdentify  = "identify"
	StepIDSignature = "signature"
	StepIDAnomaly   = "anomaly"
	StepIDReport    = "report"
)

// Step display names
const (
	StepNameIngest    = "Dataset Ingestion"
	StepNameProfile   = "Table Profiling"
	StepNameReduce    = "Column Reduction"
	StepNameIdentify  = "Entity Identification"
	StepNameSignature = "Signature Census"
	StepNameAnomaly   = "Anomaly Detection"
	StepNameReport    = "Report Export"
)

// Keys for values passed between steps through the operation context
const (
	ContextKeyDataset     = "dataset"
	ContextKeyDatasetDir  = "dataset_dir"
	ContextKeyTables      = "tables"
	ContextKeyProfiles    = "profiles"
	ContextKeyReduced     = "reduced_tables"
	ContextKeyReductions  = "reduction_reports"
	ContextKeyMatches     = "column_matches"
	ContextKeyAssignments = "entity_assignments"
	ContextKeyEntityMap   = "entity_map"
	ContextKeySignatures  = "signature_sets"
	ContextKeyForest      = "forest_results"
	ContextKeySeries      = "series_decompositions"
	ContextKeyReports     = "report_files"
	ContextKeyTimeColumn  = "time_column"
)

// WebSocket event types consumed by the frontend
const (
	EventTypeOperationStatus   = "operation:status"
	EventTypeOperationSnapshot = "operation:snapshot"
	EventTypeOperationProgress = "operation:progress"
	EventTypeOperationComplete = "operation:complete"
	EventTypeOperationError    = "operation:error"
)

// Default timeouts. Ingest and anomaly carry the heavy work: file IO and
// forest training respectively.
const (
	DefaultStepTimeout      = 10 * time.Minute
	DefaultIngestTimeout    = 15 * time.Minute
	DefaultProfileTimeout   = 5 * time.Minute
	DefaultReduceTimeout    = 5 * time.Minute
	DefaultIdentifyTimeout  = 10 * time.Minute
	DefaultSignatureTimeout = 10 * time.Minute
	DefaultAnomalyTimeout   = 15 * time.Minute
	DefaultReportTimeout    = 5 * time.Minute
)

// ExecutionMode defines how steps are executed
type ExecutionMode string

const (
	ExecutionModeSequential ExecutionMode = "sequential"
	ExecutionModeParallel   ExecutionMode = "parallel"
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// StepExecutionResult represents the result of one step execution
type StepExecutionResult struct {
	StepID    string                 `json:"step_id"`
	Success   bool                   `json:"success"`
	Output    string                 `json:"output,omitempty"`
	Error     error                  `json:"error,omitempty"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// OperationRequest represents a request to execute an analysis run
type OperationRequest struct {
	ID         string                 `json:"id"`
	Dataset    string                 `json:"dataset,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from an analysis run
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}

// ProgressUpdate represents a progress update from a step
type ProgressUpdate struct {
	StepID   string                 `json:"step_id"`
	Progress float64                `json:"progress"`
	Message  string                 `json:"message"`
	ETA      string                 `json:"eta,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// OperationType describes an available run type to the API
type OperationType struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Dependencies []string              `json:"dependencies"`
	CanRunAlone  bool                  `json:"can_run_alone"`
	Parameters   []ParameterDefinition `json:"parameters"`
}

// ParameterDefinition defines a parameter for an operation type
type ParameterDefinition struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // string, number, select, boolean
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Options     []string    `json:"options,omitempty"`
}
