package domain

import (
	"time"
)

// Operation represents a complete analysis workflow consisting of multiple steps

// Operation is one pipeline run over a dataset
type Operation struct {
	ID          string                 `json:"id" validate:"required,uuid"`
	Name        string                 `json:"name" validate:"required,min=3,max=100"`
	Type        OperationType          `json:"type" validate:"required,oneof=analysis identification anomaly"`
	Status      OperationStatus        `json:"status"`
	Steps       []Step                 `json:"steps"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// OperationType defines the type of operation
type OperationType string

const (
	OperationTypeAnalysis       OperationType = "analysis"
	OperationTypeIdentification OperationType = "identification"
	OperationTypeAnomaly        OperationType = "anomaly"
)

// OperationStatus represents the status of an operation
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
	OperationStatusRetrying  OperationStatus = "retrying"
)

// Step is the externally visible state of one pipeline stage
type Step struct {
	ID           string         `json:"id" validate:"required"`
	Name         string         `json:"name" validate:"required"`
	Status       StepStatus     `json:"status"`
	Order        int            `json:"order" validate:"min=0"`
	Dependencies []string       `json:"dependencies,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Duration     *time.Duration `json:"duration,omitempty"`
	Progress     float64        `json:"progress"`
	Error        string         `json:"error,omitempty"`
}

// StepStatus represents the status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusRetrying  StepStatus = "retrying"
)

// ProgressUpdate is a live progress event for an operation or step
type ProgressUpdate struct {
	OperationID    string                 `json:"operation_id"`
	StepID         string                 `json:"step_id,omitempty"`
	Progress       float64                `json:"progress"` // 0-100
	Message        string                 `json:"message,omitempty"`
	ItemsProcessed int64                  `json:"items_processed,omitempty"`
	ItemsTotal     int64                  `json:"items_total,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// OperationRequest asks the service to start a run
type OperationRequest struct {
	Type    OperationType          `json:"type" validate:"required"`
	Dataset string                 `json:"dataset" validate:"required"`
	Step    string                 `json:"step,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
}

// OperationResponse acknowledges a started run
type OperationResponse struct {
	OperationID  string          `json:"operation_id"`
	Status       OperationStatus `json:"status"`
	Message      string          `json:"message"`
	StartedAt    time.Time       `json:"started_at"`
	WebSocketURL string          `json:"websocket_url,omitempty"`
}

// Context keys for values shared between pipeline stages
const (
	ContextKeyDataset     = "dataset"
	ContextKeyDatasetDir  = "dataset_dir"
	ContextKeyReportDir   = "report_dir"
	ContextKeyTables      = "tables"
	ContextKeyProfiles    = "profiles"
	ContextKeyReductions  = "reductions"
	ContextKeyMatches     = "matches"
	ContextKeyAssignments = "assignments"
	ContextKeyEntityMap   = "entity_map"
	ContextKeySignatures  = "signatures"
	ContextKeyAnomalies   = "anomalies"
	ContextKeyTraceID     = "trace_id"
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

// Step names
const (
	StepNameIngest    = "Dataset Ingestion"
	StepNameProfile   = "Table Profiling"
	StepNameReduce    = "Column Reduction"
	StepNameIdentify  = "Entity Identification"
	StepNameSignature = "Signature Census"
	StepNameAnomaly   = "Anomaly Detection"
	StepNameReport    = "Report Export"
)
