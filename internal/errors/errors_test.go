package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := New(http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset not found")
	assert.Equal(t, "Dataset not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.StatusCode)

	withDetails := NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "bad", map[string]string{"field": "name"})
	assert.NotNil(t, withDetails.Details)
}

func TestPredefinedErrors(t *testing.T) {
	cases := []struct {
		err    *APIError
		status int
		code   string
	}{
		{ErrDatasetNotFound, http.StatusNotFound, "DATASET_NOT_FOUND"},
		{ErrTableNotFound, http.StatusNotFound, "TABLE_NOT_FOUND"},
		{ErrDefinitionNotFound, http.StatusNotFound, "DEFINITION_NOT_FOUND"},
		{ErrOperationNotFound, http.StatusNotFound, "OPERATION_NOT_FOUND"},
		{ErrOperationFailed, http.StatusInternalServerError, "OPERATION_FAILED"},
		{ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode, tc.code)
		assert.Equal(t, tc.code, tc.err.ErrorCode)
	}
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("threshold", "must be between 0 and 1")
	require.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "threshold", detail.Field)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "trees", Message: "must be positive"},
		{Field: "contamination", Message: "must be below 0.5"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrDatasetNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "DATASET_NOT_FOUND", resp.Error.ErrorCode)
}

func TestErrOperationExecution(t *testing.T) {
	err := ErrOperationExecution(fmt.Errorf("stage identify: no tables"))
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "stage identify: no tables", err.Details)
}

func TestAppErrorWrapping(t *testing.T) {
	cause := fmt.Errorf("open datasets: permission denied")
	err := NewStorageError("failed to list datasets", cause)

	assert.Contains(t, err.Error(), "STORAGE")
	assert.Contains(t, err.Error(), "permission denied")
	assert.ErrorIs(t, err, cause)

	err.WithContext("dir", "/data")
	assert.Equal(t, "/data", err.Context["dir"])
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewNotFoundError("table signin_logs")
	assert.Equal(t, "[NOT_FOUND] table signin_logs not found", err.Error())
	assert.Nil(t, err.Unwrap())
}
