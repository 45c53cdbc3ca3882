package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"loglens/internal/services"
	"loglens/internal/signature"
	"loglens/pkg/contracts/domain"
)

func newSignatureHandler(svc *mockAnalysisService) *SignatureHandler {
	return NewSignatureHandler(svc, testLogger(), testErrorHandler())
}

func TestGetSignatures(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("ComputeSignatures", mock.Anything, "prod", "auth").Return(&domain.SignatureSet{
		Table:       "auth",
		RowCount:    50,
		ColumnNames: []string{"src_ip", "bytes"},
		Summaries:   []domain.SignatureSummary{{Signature: "11", Count: 50}},
	}, nil)

	h := newSignatureHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/auth?dataset=prod", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"auth"`)
	svc.AssertExpectations(t)
}

func TestGetSignaturesRequiresDataset(t *testing.T) {
	svc := new(mockAnalysisService)
	h := newSignatureHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "ComputeSignatures", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSignaturesTableNotFound(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("ComputeSignatures", mock.Anything, "prod", "nope").Return(nil, services.ErrTableNotFound)

	h := newSignatureHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/nope?dataset=prod", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "TABLE_NOT_FOUND")
}

func TestGetUniqueValues(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("UniqueSignatureValues", mock.Anything, "prod", "auth", 5).Return(
		&domain.SignatureSet{Table: "auth", Summaries: []domain.SignatureSummary{{Signature: "11"}}},
		[]signature.UniqueValue{{Signature: "11", Feature: "src_ip", Value: "10.0.0.9"}},
		nil,
	)

	h := newSignatureHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/auth/unique?dataset=prod&threshold=5", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "10.0.0.9")
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestGetUniqueValuesNoneFound(t *testing.T) {
	svc := new(mockAnalysisService)
	svc.On("UniqueSignatureValues", mock.Anything, "prod", "auth", 1).Return(
		&domain.SignatureSet{Table: "auth", Summaries: []domain.SignatureSummary{{Signature: "11"}}},
		nil,
		services.ErrNoMatchesFound,
	)

	h := newSignatureHandler(svc)
	req := httptest.NewRequest(http.MethodGet, "/auth/unique?dataset=prod", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	// An empty answer is a valid census result, not an error
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestGetUniqueValuesInvalidThreshold(t *testing.T) {
	svc := new(mockAnalysisService)
	h := newSignatureHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/unique?dataset=prod&threshold=abc", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "UniqueSignatureValues", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
