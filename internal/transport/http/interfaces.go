package http

import (
	"context"

	"loglens/internal/config"
	"loglens/internal/operations"
	"loglens/internal/services"
	"loglens/internal/signature"
	"loglens/pkg/contracts/domain"
)

// DataServiceInterface defines dataset and report operations used by the
// data handler
type DataServiceInterface interface {
	ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error)
	PreviewTable(ctx context.Context, dataset, table string, limit int) (*services.TablePreview, error)
	ImportSheet(ctx context.Context, cfg config.SheetsConfig, dataset, readRange string) (*domain.DatasetInfo, error)
	ListReports(ctx context.Context) ([]domain.ReportFile, error)
	ResolveReportPath(relPath string) (string, error)
	DeleteReport(ctx context.Context, relPath string) error
}

// AnalysisServiceInterface defines pipeline and on-demand analysis
// operations used by the operations, signature and anomaly handlers
type AnalysisServiceInterface interface {
	StartAnalysis(ctx context.Context, dataset string, params map[string]interface{}) (string, error)
	RunAnalysis(ctx context.Context, request operations.OperationRequest) (*operations.OperationResponse, error)
	GetSnapshot(ctx context.Context, operationID string) (*operations.OperationSnapshot, error)
	ListOperations(ctx context.Context) []*operations.OperationSnapshot
	CancelOperation(ctx context.Context, operationID string) error
	GetOperationTypes(ctx context.Context) []operations.OperationType
	GetAnalysisMetrics(ctx context.Context) map[string]interface{}
	ComputeSignatures(ctx context.Context, dataset, table string) (*domain.SignatureSet, error)
	UniqueSignatureValues(ctx context.Context, dataset, table string, threshold int) (*domain.SignatureSet, []signature.UniqueValue, error)
	DetectForest(ctx context.Context, req services.ForestRequest) (*domain.ForestResult, error)
	DetectSeries(ctx context.Context, req services.SeriesRequest) (*domain.SeriesDecomposition, error)
}

// EntityServiceInterface defines definition store and scan operations
// used by the entity handler
type EntityServiceInterface interface {
	ListDefinitions(ctx context.Context) []domain.EntityDefinition
	GetDefinition(ctx context.Context, name string) (domain.EntityDefinition, error)
	AddDefinition(ctx context.Context, def domain.EntityDefinition) error
	RemoveDefinition(ctx context.Context, name string) error
	ScanTable(ctx context.Context, req services.ScanRequest) (*services.ScanResult, error)
	LatestEntityMap(ctx context.Context) (*domain.EntityMap, error)
	HuntingQueries(ctx context.Context, entityType domain.EntityType, search, template string) ([]domain.HuntingQuery, error)
}

// HealthServiceInterface defines the readiness surface used by the
// health handler
type HealthServiceInterface interface {
	GetHealth(ctx context.Context) *services.HealthStatus
	IsReady(ctx context.Context) bool
}
