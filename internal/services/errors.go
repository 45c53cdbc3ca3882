package services

import "errors"

// Dataset errors
var (
	ErrNoDatasetsFound = errors.New("no datasets found")
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrTableNotFound   = errors.New("table not found")
	ErrNoTablesFound   = errors.New("no loadable tables found")
)

// Report errors
var (
	ErrNoReportsFound  = errors.New("no reports found")
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidFileType = errors.New("invalid file type")
)

// Sheets import errors
var (
	ErrSheetsDisabled = errors.New("sheets source is disabled")
)

// Entity errors
var (
	ErrDefinitionNotFound = errors.New("entity definition not found")
	ErrNoMatchesFound     = errors.New("no entity matches found")
)

// Operation errors
var (
	ErrOperationNotFound   = errors.New("operation not found")
	ErrOperationRunning    = errors.New("operation already running")
	ErrOperationNotRunning = errors.New("operation not running")
	ErrInvalidStep         = errors.New("invalid pipeline step")
)

// General errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrOperationTimeout   = errors.New("operation timed out")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
