// Package api contains API contract definitions for the loglens service.
// Version v1 represents the current stable API version.
package api

// Common request parameters

// PaginationRequest represents common pagination parameters
type PaginationRequest struct {
	Page     int    `json:"page" query:"page" validate:"min=1"`
	PageSize int    `json:"page_size" query:"page_size" validate:"min=1,max=100"`
	Sort     string `json:"sort" query:"sort" validate:"omitempty,oneof=asc desc"`
	SortBy   string `json:"sort_by" query:"sort_by"`
}

// Operation API Requests

// OperationStartRequest represents a request to start an analysis run
type OperationStartRequest struct {
	Type       string                 `json:"type" validate:"required,oneof=analysis identification anomaly"`
	Dataset    string                 `json:"dataset" validate:"required"`
	Step       string                 `json:"step,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// OperationStopRequest represents a request to cancel a run
type OperationStopRequest struct {
	OperationID string `json:"operation_id" param:"id" validate:"required,uuid"`
	Force       bool   `json:"force" query:"force"`
}

// OperationListRequest represents a request to list runs
type OperationListRequest struct {
	PaginationRequest
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	Type   string `json:"type" query:"type" validate:"omitempty,oneof=analysis identification anomaly"`
}

// Entity API Requests

// DefinitionAddRequest adds one pattern definition to the registry
type DefinitionAddRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=40"`
	Regex      string `json:"regex" validate:"required"`
	Priority   int    `json:"priority" validate:"min=0,max=2"`
	Entity     string `json:"entity,omitempty" validate:"omitempty,oneof=ipaddress host account file process url hash registrykey azureresource"`
	DataFormat string `json:"data_format,omitempty"`
}

// EntityScanRequest asks for an on-demand scan of one table
type EntityScanRequest struct {
	Dataset    string  `json:"dataset" validate:"required"`
	Table      string  `json:"table" validate:"required"`
	SampleSize int     `json:"sample_size,omitempty" validate:"omitempty,min=10,max=10000"`
	Threshold  float64 `json:"threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	Partial    bool    `json:"partial,omitempty"`
}

// QueryGenerateRequest renders hunting queries for an entity type
type QueryGenerateRequest struct {
	Entity   string `json:"entity" validate:"required"`
	Search   string `json:"search" validate:"required"`
	Template string `json:"template,omitempty"`
}

// Anomaly API Requests

// ForestScoreRequest runs isolation-forest scoring over numeric columns
type ForestScoreRequest struct {
	Dataset       string   `json:"dataset" validate:"required"`
	Table         string   `json:"table" validate:"required"`
	Columns       []string `json:"columns,omitempty"`
	Trees         int      `json:"trees,omitempty" validate:"omitempty,min=1,max=1000"`
	SampleSize    int      `json:"sample_size,omitempty" validate:"omitempty,min=2"`
	Contamination float64  `json:"contamination,omitempty" validate:"omitempty,gt=0,lt=0.5"`
}

// SeriesDecomposeRequest runs a seasonal decomposition over a value series
type SeriesDecomposeRequest struct {
	Dataset        string  `json:"dataset" validate:"required"`
	Table          string  `json:"table" validate:"required"`
	TimeColumn     string  `json:"time_column" validate:"required"`
	ValueColumn    string  `json:"value_column" validate:"required"`
	Period         int     `json:"period,omitempty" validate:"omitempty,min=2"`
	Seasonal       int     `json:"seasonal,omitempty" validate:"omitempty,min=3"`
	ScoreThreshold float64 `json:"score_threshold,omitempty" validate:"omitempty,gt=0"`
}

// Report API Requests

// ReportListRequest represents a request to list reports
type ReportListRequest struct {
	PaginationRequest
	Kinds   []string `json:"kinds,omitempty" validate:"omitempty,dive,oneof=profiles entity_map signatures anomalies reduction workbook"`
	Dataset string   `json:"dataset,omitempty" query:"dataset"`
}

// WebSocket API Requests

// WebSocketSubscribeRequest represents a WebSocket subscription request
type WebSocketSubscribeRequest struct {
	Type     string                 `json:"type" validate:"required,oneof=operation all"`
	Channels []string               `json:"channels" validate:"required,min=1"`
	Filters  map[string]interface{} `json:"filters,omitempty"`
}

// Health API Requests

// HealthCheckRequest represents a health check request
type HealthCheckRequest struct {
	Verbose bool     `json:"verbose" query:"verbose"`
	Include []string `json:"include" query:"include" validate:"omitempty,dive,oneof=paths definitions websocket services"`
}
