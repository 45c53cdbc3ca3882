package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"loglens/internal/config"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job represents an async analysis job
type Job struct {
	ID          string                 `json:"id"`
	OperationID string                 `json:"operation_id"`
	StepID      string                 `json:"step_id"`
	StepName    string                 `json:"step_name"`
	Status      JobStatus              `json:"status"`
	Progress    int                    `json:"progress"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Request     *OperationRequest      `json:"request,omitempty"`
}

// JobStore interface for job persistence
type JobStore interface {
	// Job operations
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter JobFilter) ([]*Job, error)
	DeleteJob(id string) error

	// Manifest operations
	CreateManifest(manifest *RunManifest) error
	GetManifest(id string) (*RunManifest, error)
	UpdateManifest(manifest *RunManifest) error
	GetManifestByOperationID(operationID string) (*RunManifest, error)
}

// JobFilter for querying jobs
type JobFilter struct {
	Status      JobStatus
	OperationID string
	StepID      string
	Since       time.Time
	Limit       int
}

// JobQueue manages async job execution
type JobQueue struct {
	mu       sync.RWMutex
	jobs     chan *Job
	workers  int
	wg       sync.WaitGroup
	store    JobStore
	manager  *Manager
	paths    *config.Paths
	logger   *slog.Logger
	shutdown chan struct{}
	active   map[string]*Job // currently executing jobs
}

// NewJobQueue creates a new job queue
func NewJobQueue(workers int, store JobStore, manager *Manager, paths *config.Paths, logger *slog.Logger) *JobQueue {
	if workers <= 0 {
		workers = 4
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &JobQueue{
		jobs:     make(chan *Job, workers*2),
		workers:  workers,
		store:    store,
		manager:  manager,
		paths:    paths,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
		active:   make(map[string]*Job),
	}
}

// Start begins processing jobs
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("workers", q.workers))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}

	// Re-queue jobs that were running when the process stopped
	go q.recoverJobs(ctx)
}

// Stop gracefully shuts down the job queue
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")

	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue adds a job to the queue
func (q *JobQueue) Enqueue(job *Job) error {
	job.Status = JobStatusPending
	job.CreatedAt = time.Now()

	if err := q.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	// Initialize operation in broadcaster
	broadcaster := q.manager.GetBroadcaster()
	var stepIDs []string
	if job.StepID == "" || job.StepID == "full_pipeline" {
		stepIDs = q.pipelineStepIDs()
	} else {
		stepIDs = []string{job.StepID}
	}
	broadcaster.CreateOperation(job.OperationID, stepIDs)

	select {
	case q.jobs <- job:
		q.logger.Info("job enqueued",
			slog.String("job_id", job.ID),
			slog.String("step_id", job.StepID))
		return nil
	default:
		job.Status = JobStatusFailed
		job.Error = "job queue is full"
		q.store.UpdateJob(job)
		return fmt.Errorf("job queue is full")
	}
}

// pipelineStepIDs returns the registered step IDs in dependency order,
// falling back to the canonical pipeline when no steps are registered.
func (q *JobQueue) pipelineStepIDs() []string {
	steps, err := q.manager.GetRegistry().GetDependencyOrder()
	if err != nil || len(steps) == 0 {
		return PipelineStepIDs()
	}
	ids := make([]string, len(steps))
	for i, step := range steps {
		ids[i] = step.ID()
	}
	return ids
}

// GetJob retrieves a job by ID
func (q *JobQueue) GetJob(id string) (*Job, error) {
	q.mu.RLock()
	if activeJob, ok := q.active[id]; ok {
		q.mu.RUnlock()
		return activeJob, nil
	}
	q.mu.RUnlock()

	return q.store.GetJob(id)
}

// CancelJob cancels a running job
func (q *JobQueue) CancelJob(id string) error {
	job, err := q.GetJob(id)
	if err != nil {
		return err
	}

	if job.Status != JobStatusRunning && job.Status != JobStatusPending {
		return fmt.Errorf("job %s cannot be cancelled (status: %s)", id, job.Status)
	}

	job.Status = JobStatusCancelled
	now := time.Now()
	job.CompletedAt = &now

	return q.store.UpdateJob(job)
}

// ListJobs returns jobs matching the filter
func (q *JobQueue) ListJobs(filter JobFilter) ([]*Job, error) {
	return q.store.ListJobs(filter)
}

// worker processes jobs from the queue
func (q *JobQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case job := <-q.jobs:
			q.processJob(ctx, job, logger)
		}
	}
}

// processJob executes a single job
func (q *JobQueue) processJob(ctx context.Context, job *Job, logger *slog.Logger) {
	if job.Metadata != nil {
		if traceID, ok := job.Metadata["trace_id"].(string); ok {
			ctx = context.WithValue(ctx, middleware.RequestIDKey, traceID)
		}
	}

	logger = logger.With(
		slog.String("job_id", job.ID),
		slog.String("operation_id", job.OperationID),
		slog.String("step_id", job.StepID),
	)

	logger.Info("processing job started")

	broadcaster := q.manager.GetBroadcaster()

	q.mu.Lock()
	q.active[job.ID] = job
	q.mu.Unlock()

	defer func() {
		// A panicking step must not take the server down
		if r := recover(); r != nil {
			logger.Error("job processing panicked",
				slog.Any("panic", r),
				slog.String("job_id", job.ID))

			job.Status = JobStatusFailed
			job.Error = fmt.Sprintf("job processing panicked: %v", r)
			job.Message = "Internal error occurred"
			completedAt := time.Now()
			job.CompletedAt = &completedAt

			if err := q.store.UpdateJob(job); err != nil {
				logger.Error("failed to update job after panic", slog.String("error", err.Error()))
			}
		}

		q.mu.Lock()
		delete(q.active, job.ID)
		q.mu.Unlock()
	}()

	job.Status = JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	job.Progress = 0
	job.Message = "Job started"

	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job status", slog.String("error", err.Error()))
	}

	broadcaster.StartOperation(job.OperationID)

	manifest, err := q.getOrCreateManifest(job)
	if err != nil {
		q.handleJobError(job, err, logger)
		return
	}

	if job.StepID != "" && job.StepID != "full_pipeline" {
		if err := q.executeSingleStep(ctx, job, manifest, logger); err != nil {
			q.handleJobError(job, err, logger)
			return
		}
	} else {
		if err := q.executeFullPipeline(ctx, job, manifest, logger); err != nil {
			q.handleJobError(job, err, logger)
			return
		}
	}

	job.Status = JobStatusCompleted
	job.Progress = 100
	job.Message = "Job completed successfully"
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job completion", slog.String("error", err.Error()))
	}

	broadcaster.CompleteOperation(job.OperationID, "Operation completed successfully")

	logger.Info("processing job completed")
}

// executeSingleStep runs a single step
func (q *JobQueue) executeSingleStep(ctx context.Context, job *Job, manifest *RunManifest, logger *slog.Logger) error {
	step, err := q.manager.GetRegistry().Get(job.StepID)
	if err != nil {
		return fmt.Errorf("step not found: %w", err)
	}

	logger.Debug("checking if step can run",
		slog.String("step_id", job.StepID),
		slog.String("operation_id", job.OperationID),
		slog.String("request_id", middleware.GetReqID(ctx)))

	canRun := step.CanRun(manifest)

	logger.Info("step can_run check completed",
		slog.String("step_id", job.StepID),
		slog.Bool("can_run", canRun),
		slog.String("request_id", middleware.GetReqID(ctx)))

	if !canRun {
		return fmt.Errorf("step %s cannot run: required inputs not available", job.StepID)
	}

	job.Progress = 10
	job.Message = fmt.Sprintf("Starting %s", step.Name())
	q.store.UpdateJob(job)

	broadcaster := q.manager.GetBroadcaster()
	broadcaster.UpdateStepProgress(job.OperationID, step.ID(), 10, fmt.Sprintf("Starting %s", step.Name()))

	manifest.RecordStepStart(step.ID(), step.Name())

	state := NewOperationState(job.OperationID)
	state.SetConfig(ContextKeyDataset, manifest.Dataset)
	if job.Request != nil {
		for k, v := range job.Request.Parameters {
			state.SetConfig(k, v)
		}
	}

	stepState := NewStepState(step.ID(), step.Name())
	state.SetStep(step.ID(), stepState)

	logger.Info("executing step", slog.String("step", step.ID()))

	if err := step.Execute(ctx, state); err != nil {
		manifest.RecordStepFailure(step.ID(), err)
		q.store.UpdateManifest(manifest)
		broadcaster.FailStep(job.OperationID, step.ID(), err)
		return fmt.Errorf("step %s failed: %w", step.ID(), err)
	}

	// Record what the step produced
	outputs := step.ProducedOutputs()
	outputTypes := make([]string, len(outputs))
	for i, output := range outputs {
		outputTypes[i] = output.Type
		manifest.ScanDataDirectory(output.Type, output.Location, output.Pattern)
	}

	manifest.RecordStepCompletion(step.ID(), outputTypes, nil)
	q.store.UpdateManifest(manifest)

	job.Progress = 90
	job.Message = fmt.Sprintf("Completed %s", step.Name())
	q.store.UpdateJob(job)

	broadcaster.CompleteStep(job.OperationID, step.ID(), fmt.Sprintf("Completed %s", step.Name()))

	return nil
}

// executeFullPipeline runs all steps in dependency order
func (q *JobQueue) executeFullPipeline(ctx context.Context, job *Job, manifest *RunManifest, logger *slog.Logger) error {
	steps, err := q.manager.GetRegistry().GetDependencyOrder()
	if err != nil {
		return fmt.Errorf("failed to get step order: %w", err)
	}

	totalSteps := len(steps)

	for i, step := range steps {
		if !step.CanRun(manifest) {
			logger.Info("skipping step, requirements not met",
				slog.String("step", step.ID()))
			continue
		}

		progress := (i * 90) / totalSteps
		job.Progress = progress
		job.Message = fmt.Sprintf("Running %s (%d/%d)", step.Name(), i+1, totalSteps)
		q.store.UpdateJob(job)

		tempJob := *job
		tempJob.StepID = step.ID()
		tempJob.StepName = step.Name()

		if err := q.executeSingleStep(ctx, &tempJob, manifest, logger); err != nil {
			return err
		}
	}

	return nil
}

// handleJobError handles job execution errors
func (q *JobQueue) handleJobError(job *Job, err error, logger *slog.Logger) {
	logger.Error("job failed", slog.String("error", err.Error()))

	job.Status = JobStatusFailed
	job.Error = err.Error()
	job.Message = "Job failed"
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err := q.store.UpdateJob(job); err != nil {
		logger.Error("failed to update job error", slog.String("error", err.Error()))
	}

	broadcaster := q.manager.GetBroadcaster()
	broadcaster.FailOperation(job.OperationID, err)
}

// getOrCreateManifest gets the existing manifest or creates a new one
func (q *JobQueue) getOrCreateManifest(job *Job) (*RunManifest, error) {
	manifest, err := q.store.GetManifestByOperationID(job.OperationID)
	if err == nil && manifest != nil {
		return manifest, nil
	}

	dataset := ""
	if job.Request != nil {
		dataset = job.Request.Dataset
	}

	manifest = NewRunManifest(job.OperationID, dataset)

	// Scan existing data so runs can resume against data already on disk
	if q.paths != nil {
		datasetDir := q.paths.DatasetsDir
		if dataset != "" {
			datasetDir = q.paths.GetDatasetPath(dataset)
		}
		manifest.ScanDataDirectory(DataTypeDatasetFiles, datasetDir, "*")
		manifest.ScanDataDirectory(DataTypeReportFiles, q.paths.ReportsDir, "loglens_*")
	}

	if err := q.store.CreateManifest(manifest); err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	return manifest, nil
}

// recoverJobs recovers jobs that were running when the system stopped
func (q *JobQueue) recoverJobs(ctx context.Context) {
	q.logger.Info("recovering pending and running jobs")

	jobs, err := q.store.ListJobs(JobFilter{
		Status: JobStatusRunning,
	})
	if err != nil {
		q.logger.Error("failed to recover running jobs", slog.String("error", err.Error()))
		return
	}

	pendingJobs, err := q.store.ListJobs(JobFilter{
		Status: JobStatusPending,
	})
	if err != nil {
		q.logger.Error("failed to recover pending jobs", slog.String("error", err.Error()))
	} else {
		jobs = append(jobs, pendingJobs...)
	}

	for _, job := range jobs {
		if job.Status == JobStatusRunning {
			job.Status = JobStatusPending
			job.StartedAt = nil
			job.Progress = 0
			q.store.UpdateJob(job)
		}

		select {
		case q.jobs <- job:
			q.logger.Info("recovered job",
				slog.String("job_id", job.ID),
				slog.String("status", string(job.Status)))
		default:
			q.logger.Warn("could not recover job, queue full",
				slog.String("job_id", job.ID))
		}
	}
}

// GetQueueStats returns queue statistics
func (q *JobQueue) GetQueueStats() map[string]interface{} {
	q.mu.RLock()
	activeCount := len(q.active)
	q.mu.RUnlock()

	return map[string]interface{}{
		"workers":     q.workers,
		"queue_size":  len(q.jobs),
		"queue_cap":   cap(q.jobs),
		"active_jobs": activeCount,
	}
}
