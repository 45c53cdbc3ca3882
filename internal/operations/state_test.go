package operations

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationStateLifecycle(t *testing.T) {
	state := NewOperationState("op-1")
	assert.Equal(t, OperationStatusPending, state.Status)

	state.Start()
	assert.Equal(t, OperationStatusRunning, state.Status)
	assert.Nil(t, state.EndTime)

	state.Complete()
	assert.Equal(t, OperationStatusCompleted, state.Status)
	require.NotNil(t, state.EndTime)
	assert.GreaterOrEqual(t, state.Duration(), time.Duration(0))
}

func TestOperationStateFailAndCancel(t *testing.T) {
	failed := NewOperationState("op-fail")
	failed.Start()
	failed.Fail(errors.New("boom"))
	assert.Equal(t, OperationStatusFailed, failed.Status)
	assert.EqualError(t, failed.Error, "boom")

	cancelled := NewOperationState("op-cancel")
	cancelled.Start()
	cancelled.Cancel()
	assert.Equal(t, OperationStatusCancelled, cancelled.Status)
}

func TestOperationStateContextAndConfig(t *testing.T) {
	state := NewOperationState("op-ctx")

	_, ok := state.GetContext("missing")
	assert.False(t, ok)

	state.SetContext(ContextKeyDataset, "prod_logs")
	val, ok := state.GetContext(ContextKeyDataset)
	require.True(t, ok)
	assert.Equal(t, "prod_logs", val)

	state.SetConfig("threshold", 0.5)
	cfg, ok := state.GetConfig("threshold")
	require.True(t, ok)
	assert.Equal(t, 0.5, cfg)
}

func TestOperationStateStepQueries(t *testing.T) {
	state := NewOperationState("op-steps")

	active := NewStepState("a", "A")
	active.Start()
	done := NewStepState("b", "B")
	done.Start()
	done.Complete()
	failed := NewStepState("c", "C")
	failed.Start()
	failed.Fail(errors.New("boom"))
	pending := NewStepState("d", "D")

	state.SetStep("a", active)
	state.SetStep("b", done)
	state.SetStep("c", failed)
	state.SetStep("d", pending)

	assert.Len(t, state.ActiveSteps(), 1)
	assert.Len(t, state.CompletedSteps(), 1)
	assert.Len(t, state.FailedSteps(), 1)
	assert.False(t, state.IsComplete())
	assert.True(t, state.HasFailures())

	active.Complete()
	pending.Skip("not needed")
	assert.True(t, state.IsComplete())
}

func TestOperationStateCloneIsIndependent(t *testing.T) {
	state := NewOperationState("op-clone")
	state.Start()
	step := NewStepState("a", "A")
	step.SetMetadata("rows", 10)
	state.SetStep("a", step)
	state.SetContext(ContextKeyDataset, "prod_logs")

	clone := state.Clone()

	clone.Steps["a"].SetMetadata("rows", 99)
	clone.Steps["a"].Status = StepStatusFailed
	clone.SetContext(ContextKeyDataset, "other")

	assert.Equal(t, 10, state.GetStep("a").Metadata["rows"])
	assert.Equal(t, StepStatusPending, state.GetStep("a").Status)
	val, _ := state.GetContext(ContextKeyDataset)
	assert.Equal(t, "prod_logs", val)
}

func TestStepStateLifecycle(t *testing.T) {
	step := NewStepState("x", "X")
	assert.Equal(t, StepStatusPending, step.Status)
	assert.Equal(t, time.Duration(0), step.Duration())

	step.Start()
	assert.Equal(t, StepStatusActive, step.Status)

	step.UpdateProgress(40, "working")
	assert.Equal(t, float64(40), step.Progress)
	assert.Equal(t, "working", step.Message)

	step.Complete()
	assert.Equal(t, StepStatusCompleted, step.Status)
	assert.Equal(t, float64(100), step.Progress)
}
