package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler(t *testing.T) *ErrorHandler {
	t.Helper()
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func problemFor(t *testing.T, h *ErrorHandler, err error) *ProblemDetails {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	return h.ErrorToProblem(err, r)
}

func TestErrorToProblemContextErrors(t *testing.T) {
	h := testHandler(t)

	for _, err := range []error{context.DeadlineExceeded, context.Canceled} {
		problem := problemFor(t, h, err)
		assert.Equal(t, http.StatusGatewayTimeout, problem.Status)
		assert.Equal(t, TypeTimeout, problem.Type)
	}
}

func TestErrorToProblemAPIError(t *testing.T) {
	h := testHandler(t)

	problem := problemFor(t, h, error(ErrDatasetNotFound))
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Equal(t, TypeDatasetNotFound, problem.Type)
	assert.Equal(t, "DATASET_NOT_FOUND", problem.Extensions["error_code"])

	problem = problemFor(t, h, error(ErrOperationNotFound))
	assert.Equal(t, TypeOperationNotFound, problem.Type)

	problem = problemFor(t, h, error(ErrValidationFailed))
	assert.Equal(t, TypeValidation, problem.Type)
}

func TestErrorToProblemAppError(t *testing.T) {
	h := testHandler(t)

	problem := problemFor(t, h, error(NewAppValidationError("contamination out of range")))
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, TypeValidation, problem.Type)

	problem = problemFor(t, h, error(NewParsingError("malformed csv", fmt.Errorf("row 3"))))
	assert.Equal(t, http.StatusUnprocessableEntity, problem.Status)
	assert.Equal(t, TypeDatasetUnreadable, problem.Type)
}

func TestErrorToProblemMessageFallback(t *testing.T) {
	h := testHandler(t)

	cases := []struct {
		err    string
		status int
		ptype  string
	}{
		{"table signin not found", http.StatusNotFound, TypeNotFound},
		{"operation run-1 already running", http.StatusConflict, TypeOperationRunning},
		{"rate limit exceeded for 10.0.0.1", http.StatusTooManyRequests, TypeRateLimit},
		{"something unexpected broke", http.StatusInternalServerError, TypeInternal},
	}

	for _, tc := range cases {
		problem := problemFor(t, h, fmt.Errorf("%s", tc.err))
		assert.Equal(t, tc.status, problem.Status, tc.err)
		assert.Equal(t, tc.ptype, problem.Type, tc.err)
	}
}

func TestHandleErrorRendersProblemJSON(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/anomalies/forest", nil)

	h.HandleError(rec, r, ErrTableNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeDatasetNotFound, body["type"])
	assert.Equal(t, "/api/anomalies/forest", body["instance"])
	assert.Contains(t, body, "trace_id")
}

func TestHandlePanic(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/operations", nil)

	h.HandlePanic(rec, r, "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "stack")
}

func TestHandlePanicIncludesStackInDev(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), true)
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/operations", nil)

	h.HandlePanic(rec, r, "boom")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "stack")
	assert.Equal(t, "boom", body["panic"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := testHandler(t)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProblemDetailsMarshalExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "duplicate run", "/api/operations").
		WithExtension("run_id", "abc-123")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc-123", decoded["run_id"])
	assert.Equal(t, float64(http.StatusConflict), decoded["status"])
}

func TestErrorMiddlewareRecoversPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewErrorMiddleware(testHandler(t), logger)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestErrorMiddlewarePassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewErrorMiddleware(testHandler(t), logger)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSanitizeRequestBody(t *testing.T) {
	out := sanitizeRequestBody(`{"api_key":"secret-value","table":"signin"}`)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "[REDACTED]", decoded["api_key"])
	assert.Equal(t, "signin", decoded["table"])

	// Non-JSON bodies pass through untouched
	assert.Equal(t, "plain text", sanitizeRequestBody("plain text"))
}
