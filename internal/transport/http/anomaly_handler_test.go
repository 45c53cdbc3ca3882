package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"loglens/internal/services"
	"loglens/pkg/contracts/domain"
)

func newAnomalyHandler(svc *mockAnalysisService) *AnomalyHandler {
	return NewAnomalyHandler(svc, testLogger(), testErrorHandler())
}

func TestDetectForestHandler(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("DetectForest", mock.Anything, mock.MatchedBy(func(req services.ForestRequest) bool {
		return req.Dataset == "prod" && req.Table == "auth" && req.Trees == 50
	})).Return(&domain.ForestResult{
		Table:        "auth",
		Trees:        50,
		AnomalyCount: 3,
	}, nil)

	h := newAnomalyHandler(svc)
	body := `{"dataset":"prod","table":"auth","trees":50}`
	req := httptest.NewRequest(http.MethodPost, "/forest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"anomaly_count":3`)
	svc.AssertExpectations(t)
}

func TestDetectForestRequiresDataset(t *testing.T) {
	svc := new(mockAnalysisService)
	h := newAnomalyHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/forest", strings.NewReader(`{"table":"auth"}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "DetectForest", mock.Anything, mock.Anything)
}

func TestDetectForestInvalidContamination(t *testing.T) {
	svc := new(mockAnalysisService)
	h := newAnomalyHandler(svc)

	body := `{"dataset":"prod","table":"auth","contamination":0.9}`
	req := httptest.NewRequest(http.MethodPost, "/forest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectForestTableNotFound(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("DetectForest", mock.Anything, mock.Anything).Return(nil, services.ErrTableNotFound)

	h := newAnomalyHandler(svc)
	body := `{"dataset":"prod","table":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/forest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "TABLE_NOT_FOUND")
}

func TestDetectSeriesHandler(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("DetectSeries", mock.Anything, mock.MatchedBy(func(req services.SeriesRequest) bool {
		return req.Dataset == "prod" && req.TimeColumn == "event_time"
	})).Return(&domain.SeriesDecomposition{
		Period:       24,
		AnomalyCount: 1,
	}, nil)

	h := newAnomalyHandler(svc)
	body := `{"dataset":"prod","table":"auth","time_column":"event_time"}`
	req := httptest.NewRequest(http.MethodPost, "/series", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"period":24`)
}

func TestDetectSeriesRejectsUnknownMethod(t *testing.T) {
	svc := new(mockAnalysisService)

	h := newAnomalyHandler(svc)
	body := `{"dataset":"prod","table":"auth","method":"loess"}`
	req := httptest.NewRequest(http.MethodPost, "/series", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "DetectSeries", mock.Anything, mock.Anything)
}

func TestDetectSeriesUnsuitableTable(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("DetectSeries", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidInput)

	h := newAnomalyHandler(svc)
	body := `{"dataset":"prod","table":"fw"}`
	req := httptest.NewRequest(http.MethodPost, "/series", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUITABLE_TABLE")
}
