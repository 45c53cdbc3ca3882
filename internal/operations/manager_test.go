package operations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStep is a configurable step for exercising the manager.
type fakeStep struct {
	BaseStep
	mu       sync.Mutex
	calls    int
	execute  func(ctx context.Context, state *OperationState) error
	validate func(state *OperationState) error
}

func newFakeStep(id string, deps []string, execute func(ctx context.Context, state *OperationState) error) *fakeStep {
	return &fakeStep{
		BaseStep: NewBaseStep(id, "Step "+id, deps),
		execute:  execute,
	}
}

func (f *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.execute == nil {
		return nil
	}
	return f.execute(ctx, state)
}

func (f *fakeStep) Validate(state *OperationState) error {
	if f.validate != nil {
		return f.validate(state)
	}
	return nil
}

func (f *fakeStep) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// executionRecorder tracks the order steps ran in.
type executionRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *executionRecorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
}

func (r *executionRecorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func newTestManager(t *testing.T, config *Config) *Manager {
	t.Helper()
	if config == nil {
		config = NewConfig()
		config.RetryConfig = fastRetryConfig()
	}
	m := NewManager(nil, NewRegistry(), config)
	t.Cleanup(m.GetBroadcaster().Stop)
	return m
}

func TestManagerExecutesStepsInDependencyOrder(t *testing.T) {
	m := newTestManager(t, nil)
	rec := &executionRecorder{}

	recorder := func(id string) func(context.Context, *OperationState) error {
		return func(context.Context, *OperationState) error {
			rec.record(id)
			return nil
		}
	}

	// Registered out of order on purpose
	require.NoError(t, m.RegisterStep(newFakeStep("c", []string{"b"}, recorder("c"))))
	require.NoError(t, m.RegisterStep(newFakeStep("a", nil, recorder("a"))))
	require.NoError(t, m.RegisterStep(newFakeStep("b", []string{"a"}, recorder("b"))))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-order"})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"a", "b", "c"}, rec.ids())
	for _, id := range []string{"a", "b", "c"} {
		require.Contains(t, resp.Steps, id)
		assert.Equal(t, StepStatusCompleted, resp.Steps[id].Status)
	}
}

func TestManagerSingleStepExecution(t *testing.T) {
	m := newTestManager(t, nil)
	rec := &executionRecorder{}

	stepA := newFakeStep("a", nil, func(context.Context, *OperationState) error {
		rec.record("a")
		return nil
	})
	stepB := newFakeStep("b", []string{"a"}, func(context.Context, *OperationState) error {
		rec.record("b")
		return nil
	})
	require.NoError(t, m.RegisterStep(stepA))
	require.NoError(t, m.RegisterStep(stepB))

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:         "op-single",
		Parameters: map[string]interface{}{"step": "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"b"}, rec.ids())
	assert.Equal(t, 0, stepA.callCount())
	assert.Len(t, resp.Steps, 1)
}

func TestManagerUnknownSingleStepFails(t *testing.T) {
	m := newTestManager(t, nil)
	require.NoError(t, m.RegisterStep(newFakeStep("a", nil, nil)))

	resp, err := m.Execute(context.Background(), OperationRequest{
		ID:         "op-missing",
		Parameters: map[string]interface{}{"step": "nope"},
	})
	require.Error(t, err)
	assert.Equal(t, OperationStatusFailed, resp.Status)
}

func TestManagerRetriesRetryableFailures(t *testing.T) {
	m := newTestManager(t, nil)

	attempts := 0
	flaky := newFakeStep("flaky", nil, func(context.Context, *OperationState) error {
		attempts++
		if attempts < 3 {
			return NewExecutionError("flaky", errors.New("transient"), true)
		}
		return nil
	})
	require.NoError(t, m.RegisterStep(flaky))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-retry"})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Equal(t, 3, flaky.callCount())
}

func TestManagerDoesNotRetryNonRetryableFailures(t *testing.T) {
	m := newTestManager(t, nil)

	broken := newFakeStep("broken", nil, func(context.Context, *OperationState) error {
		return NewExecutionError("broken", errors.New("bad input"), false)
	})
	require.NoError(t, m.RegisterStep(broken))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-noretry"})
	require.Error(t, err)

	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, 1, broken.callCount())
	assert.Equal(t, StepStatusFailed, resp.Steps["broken"].Status)
}

func TestManagerSkipsDependentsOnFailure(t *testing.T) {
	m := newTestManager(t, nil)

	require.NoError(t, m.RegisterStep(newFakeStep("a", nil, func(context.Context, *OperationState) error {
		return NewExecutionError("a", errors.New("boom"), false)
	})))
	b := newFakeStep("b", []string{"a"}, nil)
	c := newFakeStep("c", []string{"b"}, nil)
	require.NoError(t, m.RegisterStep(b))
	require.NoError(t, m.RegisterStep(c))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-skip"})
	require.Error(t, err)

	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps["a"].Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps["b"].Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps["c"].Status)
	assert.Equal(t, 0, b.callCount())
	assert.Equal(t, 0, c.callCount())
}

func TestManagerContinueOnErrorRunsIndependentSteps(t *testing.T) {
	cfg := NewConfig()
	cfg.RetryConfig = fastRetryConfig()
	cfg.ContinueOnError = true
	m := newTestManager(t, cfg)

	require.NoError(t, m.RegisterStep(newFakeStep("a", nil, func(context.Context, *OperationState) error {
		return NewExecutionError("a", errors.New("boom"), false)
	})))
	d := newFakeStep("d", nil, nil)
	require.NoError(t, m.RegisterStep(d))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-continue"})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Equal(t, StepStatusFailed, resp.Steps["a"].Status)
	assert.Equal(t, StepStatusCompleted, resp.Steps["d"].Status)
	assert.Equal(t, 1, d.callCount())
}

func TestManagerCancellationStopsPipeline(t *testing.T) {
	m := newTestManager(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.RegisterStep(newFakeStep("a", nil, func(context.Context, *OperationState) error {
		cancel()
		return nil
	})))
	b := newFakeStep("b", []string{"a"}, nil)
	require.NoError(t, m.RegisterStep(b))

	resp, err := m.Execute(ctx, OperationRequest{ID: "op-cancel"})
	require.Error(t, err)

	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.Equal(t, 0, b.callCount())
}

func TestManagerValidationFailureSkipsStep(t *testing.T) {
	m := newTestManager(t, nil)

	step := newFakeStep("picky", nil, nil)
	step.validate = func(*OperationState) error {
		return errors.New("missing input")
	}
	require.NoError(t, m.RegisterStep(step))

	resp, err := m.Execute(context.Background(), OperationRequest{ID: "op-validate"})
	require.Error(t, err)

	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, StepStatusSkipped, resp.Steps["picky"].Status)
	assert.Equal(t, 0, step.callCount())
}

func TestManagerTracksRunningOperations(t *testing.T) {
	m := newTestManager(t, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, m.RegisterStep(newFakeStep("slow", nil, func(ctx context.Context, _ *OperationState) error {
		close(started)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})))

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Execute(context.Background(), OperationRequest{ID: "op-live"})
	}()

	<-started

	state, err := m.GetOperation("op-live")
	require.NoError(t, err)
	assert.Equal(t, OperationStatusRunning, state.Status)
	assert.Len(t, m.ListOperations(), 1)

	close(release)
	<-done

	// Finished operations are removed from the active set
	_, err = m.GetOperation("op-live")
	assert.Error(t, err)
	assert.Empty(t, m.ListOperations())
}

func TestManagerDatasetAndParametersReachState(t *testing.T) {
	m := newTestManager(t, nil)

	var gotDataset, gotCustom string
	require.NoError(t, m.RegisterStep(newFakeStep("inspect", nil, func(_ context.Context, state *OperationState) error {
		gotDataset = configString(state, ContextKeyDataset, "")
		gotCustom = configString(state, "custom", "")
		return nil
	})))

	_, err := m.Execute(context.Background(), OperationRequest{
		ID:         "op-params",
		Dataset:    "prod_logs",
		Parameters: map[string]interface{}{"custom": "value"},
	})
	require.NoError(t, err)

	assert.Equal(t, "prod_logs", gotDataset)
	assert.Equal(t, "value", gotCustom)
}

func TestManagerCancelOperation(t *testing.T) {
	m := newTestManager(t, nil)

	require.Error(t, m.CancelOperation("absent"))

	state := NewOperationState("op-manual")
	m.storeOperation(state)
	defer m.removeOperation("op-manual")

	require.NoError(t, m.CancelOperation("op-manual"))
	got, err := m.GetOperation("op-manual")
	require.NoError(t, err)
	assert.Equal(t, OperationStatusCancelled, got.Status)
}
