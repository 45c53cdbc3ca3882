package operations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager orchestrates analysis run execution
type Manager struct {
	registry    *Registry
	config      *Config
	hub         WebSocketHub
	broadcaster *StatusBroadcaster

	// Active runs
	mu         sync.RWMutex
	operations map[string]*OperationState
}

// NewManager creates a new run manager
func NewManager(hub WebSocketHub, registry *Registry, config *Config) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}

	broadcaster := NewStatusBroadcaster(hub, slog.Default())

	return &Manager{
		registry:    registry,
		config:      config,
		hub:         hub,
		broadcaster: broadcaster,
		operations:  make(map[string]*OperationState),
	}
}

// RegisterStep registers a step with the manager
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// SetConfig updates the run configuration
func (m *Manager) SetConfig(config *Config) {
	if config != nil {
		m.config = config
	}
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetBroadcaster returns the status broadcaster
func (m *Manager) GetBroadcaster() *StatusBroadcaster {
	return m.broadcaster
}

// Execute runs an analysis with the given request
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = fmt.Sprintf("operation-%d", time.Now().Unix())
	}

	state := NewOperationState(req.ID)

	if req.Dataset != "" {
		state.SetConfig(ContextKeyDataset, req.Dataset)
	}
	for k, v := range req.Parameters {
		state.SetConfig(k, v)
	}

	m.storeOperation(state)
	defer m.removeOperation(req.ID)

	// Determine which steps to run based on request
	var steps []Step
	stepParam, hasStep := req.Parameters["step"].(string)

	if hasStep && stepParam != "" && stepParam != "full_pipeline" {
		requestedStep, err := m.registry.Get(stepParam)
		if err != nil || requestedStep == nil {
			if err == nil {
				err = fmt.Errorf("requested step not found: %s", stepParam)
			}
			m.logOperationError(ctx, req.ID, err)
			state.Fail(err)
			return m.createResponse(state), err
		}
		steps = []Step{requestedStep}

		slog.InfoContext(ctx, "executing_single_step",
			slog.String("step_id", stepParam),
			slog.String("operation_id", req.ID))
	} else {
		var err error
		steps, err = m.registry.GetDependencyOrder()
		if err != nil {
			m.logOperationError(ctx, req.ID, fmt.Errorf("failed to get dependency order: %w", err))
			state.Fail(err)
			return m.createResponse(state), err
		}

		slog.InfoContext(ctx, "executing_full_pipeline",
			slog.Int("step_count", len(steps)),
			slog.String("operation_id", req.ID))
	}

	// Initialize step states. The broadcaster snapshot uses step IDs so
	// that later UpdateStepProgress calls match the entries.
	stepIDs := make([]string, len(steps))
	for i, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
		stepIDs[i] = step.ID()
	}

	m.broadcaster.CreateOperation(req.ID, stepIDs)

	state.Start()
	m.broadcaster.StartOperation(req.ID)

	var err error
	if m.config.ExecutionMode == ExecutionModeSequential {
		err = m.executeSequential(ctx, state, steps)
	} else {
		err = m.executeParallel(ctx, state, steps)
	}

	if err != nil {
		state.Fail(err)
		m.broadcaster.FailOperation(req.ID, err)
	} else {
		state.Complete()
		m.broadcaster.CompleteOperation(req.ID, "Operation completed successfully")
	}

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	slog.InfoContext(ctx, "sequential_execution_start",
		slog.String("operation_id", state.ID),
		slog.Int("step_count", len(steps)))
	for i, step := range steps {
		select {
		case <-ctx.Done():
			slog.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID())
		default:
			stepState := state.GetStep(step.ID())
			if stepState != nil && stepState.Status == StepStatusSkipped {
				slog.InfoContext(ctx, "step_skipped",
					slog.String("operation_id", state.ID),
					slog.String("step", step.ID()),
					slog.Int("step_number", i+1),
					slog.Int("total_steps", len(steps)))
				continue
			}

			// For sequential execution the previous step must have finished
			if i > 0 {
				prevStep := steps[i-1]
				prevState := state.GetStep(prevStep.ID())
				if prevState != nil && prevState.Status != StepStatusCompleted && prevState.Status != StepStatusSkipped {
					if m.config.ContinueOnError && prevState.Status == StepStatusFailed {
						slog.InfoContext(ctx, "continuing_after_failed_step",
							slog.String("operation_id", state.ID),
							slog.String("step", step.ID()),
							slog.String("previous_step", prevStep.ID()),
							slog.String("previous_status", string(prevState.Status)))
					} else {
						slog.ErrorContext(ctx, "previous_step_incomplete",
							slog.String("operation_id", state.ID),
							slog.String("step", step.ID()),
							slog.String("previous_step", prevStep.ID()),
							slog.String("previous_status", string(prevState.Status)))
						stepState.Skip(fmt.Sprintf("Previous step %s not completed", prevStep.ID()))
						m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Skipped: previous step %s not completed", prevStep.ID()))
						continue
					}
				}
			}

			slog.InfoContext(ctx, "executing_step",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Int("step_number", i+1),
				slog.Int("total_steps", len(steps)))
			if err := m.executeStep(ctx, state, step); err != nil {
				m.logStepError(ctx, state.ID, step.ID(), err)
				if !m.config.ContinueOnError {
					m.skipDependentSteps(state, steps, step.ID())
					return err
				}
				slog.WarnContext(ctx, "step_failed_continuing",
					slog.String("operation_id", state.ID),
					slog.String("step", step.ID()),
					slog.String("error", err.Error()))
			}
		}
	}
	slog.InfoContext(ctx, "all_steps_completed",
		slog.String("operation_id", state.ID))
	return nil
}

// executeParallel executes steps in parallel. The analysis pipeline is
// inherently sequential: every step consumes the tables or results the
// previous step produced, so this delegates to sequential execution.
func (m *Manager) executeParallel(ctx context.Context, state *OperationState, steps []Step) error {
	return m.executeSequential(ctx, state, steps)
}

// executeStep executes a single step with retry logic
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) error {
	m.logStepStart(ctx, state.ID, step.ID())
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		slog.ErrorContext(ctx, "step_state_not_found",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()))
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		slog.WarnContext(ctx, "dependencies_not_met",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Skip(fmt.Sprintf("Dependencies not met: %v", err))
		m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Skipped: dependencies not met - %v", err))
		return err
	}

	if err := step.Validate(state); err != nil {
		slog.WarnContext(ctx, "validation_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Skip(fmt.Sprintf("Validation failed: %v", err))
		m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Skipped: validation failed - %v", err))
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retryConfig := m.config.RetryConfig
	var lastErr error

	for attempt := 1; attempt <= retryConfig.MaxAttempts; attempt++ {
		stepState.Start()
		m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), "Step started")

		slog.InfoContext(ctx, "calling_execute",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt))
		startTime := time.Now()
		err := step.Execute(stepCtx, state)
		duration := time.Since(startTime)

		if err == nil {
			m.logStepComplete(ctx, state.ID, step.ID(), duration)
			stepState.Complete()
			m.broadcaster.CompleteStep(state.ID, step.ID(), "Step completed successfully")
			return nil
		}

		slog.ErrorContext(ctx, "step_execution_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		if stepState.Metadata != nil {
			if metaJSON, merr := json.Marshal(stepState.Metadata); merr == nil {
				slog.ErrorContext(ctx, "step_metadata",
					slog.String("operation_id", state.ID),
					slog.String("step", step.ID()),
					slog.String("metadata", string(metaJSON)))
			}
		}

		lastErr = err

		if !IsRetryable(err) || attempt >= retryConfig.MaxAttempts {
			stepState.Fail(err)
			m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Step failed: %v", err))
			return WrapError(err, step.ID(), "step execution failed")
		}

		delay := m.calculateRetryDelay(attempt, retryConfig)
		slog.WarnContext(ctx, "step_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retryConfig.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
			// next attempt
		case <-stepCtx.Done():
			stepState.Fail(NewTimeoutError(step.ID(), timeout.String()))
			m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Step timed out after %s", timeout))
			return NewTimeoutError(step.ID(), timeout.String())
		}
	}

	stepState.Fail(lastErr)
	m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Step failed after %d retries: %v", retryConfig.MaxAttempts, lastErr))
	return WrapError(lastErr, step.ID(), "step execution failed after retries")
}

// skipDependentSteps marks all steps that depend on the failed step as skipped
func (m *Manager) skipDependentSteps(state *OperationState, steps []Step, failedStepID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep == failedStepID {
				stepState := state.GetStep(step.ID())
				if stepState != nil && stepState.Status == StepStatusPending {
					stepState.Skip(fmt.Sprintf("Dependency %s failed", failedStepID))
					m.broadcaster.UpdateStepProgress(state.ID, step.ID(), int(stepState.Progress), fmt.Sprintf("Skipped: dependency %s failed", failedStepID))
					m.skipDependentSteps(state, steps, step.ID())
				}
				break
			}
		}
	}
}

// checkDependencies verifies that all dependencies in this run are
// satisfied. A dependency that is not part of the run (single-step
// execution) is not checked; steps load missing inputs themselves.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			continue
		}
		if depState.Status != StepStatusCompleted {
			return fmt.Errorf("dependency %s not completed (status: %s)", dep, depState.Status)
		}
	}
	return nil
}

// calculateRetryDelay calculates the delay before the next retry
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay * time.Duration(float64(attempt-1)*config.Multiplier)
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// createResponse creates a run response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

// GetOperation retrieves the state of a running operation
func (m *Manager) GetOperation(id string) (*OperationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.operations[id]
	if !exists {
		return nil, fmt.Errorf("operation %s not found", id)
	}

	return state.Clone(), nil
}

// ListOperations returns all active operations
func (m *Manager) ListOperations() []*OperationState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	operations := make([]*OperationState, 0, len(m.operations))
	for _, state := range m.operations {
		operations = append(operations, state.Clone())
	}

	return operations
}

// CancelOperation cancels a running operation
func (m *Manager) CancelOperation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.operations[id]
	if !exists {
		return fmt.Errorf("operation %s not found", id)
	}

	state.Cancel()
	m.broadcaster.FailOperation(id, fmt.Errorf("operation cancelled by user"))
	return nil
}

// storeOperation stores a run state
func (m *Manager) storeOperation(state *OperationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[state.ID] = state
}

// removeOperation removes a run state
func (m *Manager) removeOperation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.operations, id)
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}
