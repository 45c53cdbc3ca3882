package operations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationErrorFormatting(t *testing.T) {
	withStep := NewValidationError("ingest", "dataset directory missing")
	assert.Equal(t, "[validation] ingest: dataset directory missing", withStep.Error())

	withoutStep := NewFatalError("registry broken", nil)
	assert.Equal(t, "[fatal] registry broken", withoutStep.Error())
}

func TestOperationErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewExecutionError("report", cause, true)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(NewTimeoutError("anomaly", "15m")))
	assert.True(t, IsRetryable(NewExecutionError("ingest", errors.New("io"), true)))
	assert.False(t, IsRetryable(NewValidationError("ingest", "bad")))
	assert.False(t, IsRetryable(NewCancellationError("profile")))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
	assert.Equal(t, ErrorTypeExecution, GetErrorType(errors.New("plain")))
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(NewTimeoutError("x", "1m")))
	assert.Equal(t, ErrorTypeDependency, GetErrorType(NewDependencyError("b", "a", "not done")))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "x", "msg"))

	plain := errors.New("plain")
	wrapped := WrapError(plain, "reduce", "step execution failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, "reduce", wrapped.Step)
	assert.Equal(t, ErrorTypeExecution, wrapped.Type)
	assert.ErrorIs(t, wrapped, plain)

	// Wrapping an OperationError keeps its type and fills the step
	inner := NewTimeoutError("", "5m")
	rewrapped := WrapError(inner, "anomaly", "")
	assert.Equal(t, ErrorTypeTimeout, rewrapped.Type)
	assert.Equal(t, "anomaly", rewrapped.Step)
	assert.True(t, rewrapped.Retryable)
}

func TestErrorList(t *testing.T) {
	list := &ErrorList{}
	assert.False(t, list.HasErrors())
	assert.Equal(t, "no errors", list.Error())

	list.Add(NewValidationError("ingest", "bad"))
	assert.Equal(t, "[validation] ingest: bad", list.Error())

	list.Add(NewExecutionError("ingest", errors.New("io"), false))
	list.Add(NewTimeoutError("report", "5m"))
	list.Add(nil)

	assert.True(t, list.HasErrors())
	assert.Len(t, list.Errors, 3)
	assert.Len(t, list.GetByStep("ingest"), 2)
	assert.Len(t, list.GetByStep("report"), 1)
	assert.Empty(t, list.GetByStep("absent"))
	assert.Contains(t, list.Error(), "3 errors")
}
