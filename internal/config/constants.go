package config

import "time"

// Application constants - hardcoded values shared across commands
const (
	// Application Info
	AppName    = "loglens"
	AppVersion = "0.3.0"

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	SheetsFetchTimeout  = 45 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir     = "data"
	DefaultLogsDir     = "logs"
	DefaultWebDir      = "web"
	DefaultDatasetsDir = "data/datasets"
	DefaultReportsDir  = "data/reports"

	// Cache Settings
	FingerprintCacheDuration = 15 * time.Minute
	ReportCacheDuration      = 1 * time.Hour

	// Operation Timeouts
	DefaultOperationTimeout = 1 * time.Hour
	IngestTimeout           = 15 * time.Minute
	ScanTimeout             = 30 * time.Minute
	ReportGenerationTimeout = 15 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10

	// Dataset file patterns
	DatasetCSVPattern  = `(?i)\.csv$`
	DatasetXLSXPattern = `(?i)\.xlsx?$`
)

// API Endpoints (internal)
const (
	APIBasePath        = "/api"
	OperationsEndpoint = "/api/operations"
	DatasetsEndpoint   = "/api/datasets"
	EntitiesEndpoint   = "/api/entities"
	ReportsEndpoint    = "/api/reports"
	HealthEndpoint     = "/api/health"
	MetricsEndpoint    = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)
