package operations

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DataRequirement specifies data needed for a step to run
type DataRequirement struct {
	Type     string `json:"type"`      // Type of data needed (e.g. "dataset_files")
	Location string `json:"location"`  // Where to find the data
	MinCount int    `json:"min_count"` // Minimum number of files/items needed
	Optional bool   `json:"optional"`  // Whether this requirement is optional
}

// DataOutput specifies data produced by a step
type DataOutput struct {
	Type     string `json:"type"`     // Type of data produced
	Location string `json:"location"` // Where the data is stored
	Pattern  string `json:"pattern"`  // File pattern (e.g. "*.csv")
}

// Step represents a single unit of work in an analysis run
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step with the given context and operation state
	Execute(ctx context.Context, state *OperationState) error

	// Validate checks if the step can be executed with the current state
	Validate(state *OperationState) error

	// GetDependencies returns the IDs of steps that must complete first
	GetDependencies() []string

	// RequiredInputs returns the on-disk data this step needs
	RequiredInputs() []DataRequirement

	// ProducedOutputs returns the on-disk data this step produces
	ProducedOutputs() []DataOutput

	// CanRun checks if the step can run based on available data
	CanRun(manifest *RunManifest) bool
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a step
type StepState struct {
	mu        sync.RWMutex           `json:"-"`
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StepStatus             `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Progress  float64                `json:"progress"`
	Message   string                 `json:"message"`
	Error     error                  `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStepState creates a new step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Progress: 0,
		Metadata: make(map[string]interface{}),
	}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
	s.Progress = 0
}

// Complete marks the step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
	s.Progress = 100
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Skip marks the step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// UpdateProgress updates the step progress and message
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Progress = progress
	s.Message = message
}

// SetMetadata records a metadata value on the step state
func (s *StepState) SetMetadata(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Metadata == nil {
		s.Metadata = make(map[string]interface{})
	}
	s.Metadata[key] = value
}

// Duration returns the duration of the step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStep provides common functionality for step implementations
type BaseStep struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStep creates a new base step
func NewBaseStep(id, name string, dependencies []string) BaseStep {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStep{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the step ID
func (b *BaseStep) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Name returns the step name
func (b *BaseStep) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// GetDependencies returns the step dependencies
func (b *BaseStep) GetDependencies() []string {
	if b == nil {
		return nil
	}
	return b.dependencies
}

// Validate provides a default validation that always passes
func (b *BaseStep) Validate(state *OperationState) error {
	if b == nil {
		return fmt.Errorf("step is nil")
	}
	return nil
}

// RequiredInputs returns empty requirements by default
func (b *BaseStep) RequiredInputs() []DataRequirement {
	if b == nil {
		return nil
	}
	return []DataRequirement{}
}

// ProducedOutputs returns empty outputs by default
func (b *BaseStep) ProducedOutputs() []DataOutput {
	if b == nil {
		return nil
	}
	return []DataOutput{}
}

// CanRun checks if the step can run based on available data. A step with
// no required inputs can always run.
func (b *BaseStep) CanRun(manifest *RunManifest) bool {
	if b == nil {
		return false
	}
	requirements := b.RequiredInputs()
	if len(requirements) == 0 {
		return true
	}

	for _, req := range requirements {
		if req.Optional {
			continue
		}

		data, exists := manifest.GetData(req.Type)
		if !exists {
			return false
		}

		if req.MinCount > 0 && data.FileCount < req.MinCount {
			return false
		}
	}

	return true
}
