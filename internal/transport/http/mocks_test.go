package http

import (
	"context"
	"io"

	"log/slog"

	"github.com/stretchr/testify/mock"

	"loglens/internal/config"
	apierrors "loglens/internal/errors"
	"loglens/internal/operations"
	"loglens/internal/services"
	"loglens/internal/signature"
	"loglens/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testErrorHandler() *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(), false)
}

// mockDataService implements DataServiceInterface
type mockDataService struct {
	mock.Mock
}

func (m *mockDataService) ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.DatasetInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDataService) PreviewTable(ctx context.Context, dataset, table string, limit int) (*services.TablePreview, error) {
	args := m.Called(ctx, dataset, table, limit)
	if v := args.Get(0); v != nil {
		return v.(*services.TablePreview), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDataService) ImportSheet(ctx context.Context, cfg config.SheetsConfig, dataset, readRange string) (*domain.DatasetInfo, error) {
	args := m.Called(ctx, cfg, dataset, readRange)
	if v := args.Get(0); v != nil {
		return v.(*domain.DatasetInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDataService) ListReports(ctx context.Context) ([]domain.ReportFile, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.ReportFile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDataService) ResolveReportPath(relPath string) (string, error) {
	args := m.Called(relPath)
	return args.String(0), args.Error(1)
}

func (m *mockDataService) DeleteReport(ctx context.Context, relPath string) error {
	args := m.Called(ctx, relPath)
	return args.Error(0)
}

// mockAnalysisService implements AnalysisServiceInterface
type mockAnalysisService struct {
	mock.Mock
}

func (m *mockAnalysisService) StartAnalysis(ctx context.Context, dataset string, params map[string]interface{}) (string, error) {
	args := m.Called(ctx, dataset, params)
	return args.String(0), args.Error(1)
}

func (m *mockAnalysisService) RunAnalysis(ctx context.Context, request operations.OperationRequest) (*operations.OperationResponse, error) {
	args := m.Called(ctx, request)
	if v := args.Get(0); v != nil {
		return v.(*operations.OperationResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnalysisService) GetSnapshot(ctx context.Context, operationID string) (*operations.OperationSnapshot, error) {
	args := m.Called(ctx, operationID)
	if v := args.Get(0); v != nil {
		return v.(*operations.OperationSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnalysisService) ListOperations(ctx context.Context) []*operations.OperationSnapshot {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*operations.OperationSnapshot)
	}
	return nil
}

func (m *mockAnalysisService) CancelOperation(ctx context.Context, operationID string) error {
	args := m.Called(ctx, operationID)
	return args.Error(0)
}

func (m *mockAnalysisService) GetOperationTypes(ctx context.Context) []operations.OperationType {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]operations.OperationType)
	}
	return nil
}

func (m *mockAnalysisService) GetAnalysisMetrics(ctx context.Context) map[string]interface{} {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(map[string]interface{})
	}
	return nil
}

func (m *mockAnalysisService) ComputeSignatures(ctx context.Context, dataset, table string) (*domain.SignatureSet, error) {
	args := m.Called(ctx, dataset, table)
	if v := args.Get(0); v != nil {
		return v.(*domain.SignatureSet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnalysisService) UniqueSignatureValues(ctx context.Context, dataset, table string, threshold int) (*domain.SignatureSet, []signature.UniqueValue, error) {
	args := m.Called(ctx, dataset, table, threshold)
	var set *domain.SignatureSet
	if v := args.Get(0); v != nil {
		set = v.(*domain.SignatureSet)
	}
	var unique []signature.UniqueValue
	if v := args.Get(1); v != nil {
		unique = v.([]signature.UniqueValue)
	}
	return set, unique, args.Error(2)
}

func (m *mockAnalysisService) DetectForest(ctx context.Context, req services.ForestRequest) (*domain.ForestResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*domain.ForestResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnalysisService) DetectSeries(ctx context.Context, req services.SeriesRequest) (*domain.SeriesDecomposition, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*domain.SeriesDecomposition), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockEntityService implements EntityServiceInterface
type mockEntityService struct {
	mock.Mock
}

func (m *mockEntityService) ListDefinitions(ctx context.Context) []domain.EntityDefinition {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.EntityDefinition)
	}
	return nil
}

func (m *mockEntityService) GetDefinition(ctx context.Context, name string) (domain.EntityDefinition, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.EntityDefinition), args.Error(1)
}

func (m *mockEntityService) AddDefinition(ctx context.Context, def domain.EntityDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *mockEntityService) RemoveDefinition(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *mockEntityService) ScanTable(ctx context.Context, req services.ScanRequest) (*services.ScanResult, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*services.ScanResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEntityService) LatestEntityMap(ctx context.Context) (*domain.EntityMap, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*domain.EntityMap), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEntityService) HuntingQueries(ctx context.Context, entityType domain.EntityType, search, template string) ([]domain.HuntingQuery, error) {
	args := m.Called(ctx, entityType, search, template)
	if v := args.Get(0); v != nil {
		return v.([]domain.HuntingQuery), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockHealthService implements HealthServiceInterface
type mockHealthService struct {
	mock.Mock
}

func (m *mockHealthService) GetHealth(ctx context.Context) *services.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(*services.HealthStatus)
}

func (m *mockHealthService) IsReady(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

// mockHub implements Hub
type mockHub struct {
	mock.Mock
}

func (m *mockHub) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	m.Called(eventType, step, status, metadata)
}
