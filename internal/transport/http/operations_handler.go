package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "loglens/internal/errors"
	"loglens/internal/infrastructure"
	"loglens/internal/middleware"
	"loglens/internal/operations"
	"loglens/internal/services"
)

// Hub interface defines WebSocket hub operations
type Hub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}

// OperationsHandler handles analysis run HTTP requests
type OperationsHandler struct {
	service  AnalysisServiceInterface
	wsHub    Hub
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
	jobQueue *operations.JobQueue
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service AnalysisServiceInterface, wsHub Hub, logger *slog.Logger) *OperationsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OperationsHandler{
		service: service,
		wsHub:   wsHub,
		logger:  logger.With(slog.String("handler", "operations")),
	}
}

// SetMetrics sets the business metrics for the handler
func (h *OperationsHandler) SetMetrics(metrics *infrastructure.BusinessMetrics) {
	h.metrics = metrics
}

// SetJobQueue sets the job queue for async runs
func (h *OperationsHandler) SetJobQueue(jobQueue *operations.JobQueue) {
	h.jobQueue = jobQueue
}

// AnalysisRequest represents the request to start a new analysis run
type AnalysisRequest struct {
	Dataset    string                 `json:"dataset"`
	Step       string                 `json:"step,omitempty"`
	Wait       bool                   `json:"wait,omitempty"`
	Timeout    string                 `json:"timeout,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Bind implements the render.Binder interface for request validation
func (ar *AnalysisRequest) Bind(req *http.Request) error {
	if ar.Dataset == "" {
		return errors.New("dataset is required")
	}

	if ar.Step != "" && ar.Step != "full_pipeline" {
		valid := false
		for _, id := range operations.PipelineStepIDs() {
			if ar.Step == id {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown step: %s", ar.Step)
		}
	}

	if ar.Timeout != "" {
		if _, err := time.ParseDuration(ar.Timeout); err != nil {
			return fmt.Errorf("invalid timeout format: %s", ar.Timeout)
		}
	}

	return nil
}

// Routes returns a chi router for operations endpoints
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Status reads and run starts share the same budget
	r.Use(middleware.Timeout(60*time.Second, h.logger))

	r.Get("/types", h.GetOperationTypes)
	r.Post("/", h.StartOperation)
	r.Get("/", h.ListOperations)
	r.Get("/{id}", h.GetOperationStatus)
	r.Delete("/{id}", h.StopOperation)

	// Async job endpoints
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{id}", h.GetJobStatus)

	return r
}

// StartOperation handles POST /api/operations
func (h *OperationsHandler) StartOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.start_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations"),
			attribute.String("request_id", reqID),
			attribute.String("component", "operations_handler"),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "analysis run requested",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)),
	)

	data := &AnalysisRequest{}
	if err := render.Bind(r, data); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "request_validation"))

		h.logger.ErrorContext(ctx, "failed to bind analysis request",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.NewProblemDetails(
			http.StatusBadRequest,
			"/errors/validation_failed",
			"validation_failed",
			err.Error(),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx))

		render.Render(w, r, problem)
		return
	}

	operationID := uuid.New().String()

	params := make(map[string]interface{}, len(data.Parameters)+1)
	for k, v := range data.Parameters {
		params[k] = v
	}
	if data.Step != "" {
		params["step"] = data.Step
	}

	request := operations.OperationRequest{
		ID:         operationID,
		Dataset:    data.Dataset,
		Parameters: params,
	}

	span.SetAttributes(
		attribute.String("operation.id", operationID),
		attribute.String("operation.dataset", data.Dataset),
		attribute.String("operation.step", data.Step),
	)

	// Synchronous execution when the caller asks to wait
	if data.Wait {
		h.runSynchronously(ctx, w, r, span, request, data)
		return
	}

	if h.jobQueue != nil {
		h.enqueueJob(ctx, w, r, span, request, data, reqID)
		return
	}

	// No queue wired: run in the background through the manager
	startedID, err := h.service.StartAnalysis(ctx, data.Dataset, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "background start failed")
		h.handleError(w, r, err, map[string]interface{}{"dataset": data.Dataset})
		return
	}

	h.logger.InfoContext(ctx, "analysis run started",
		slog.String("operation_id", startedID),
		slog.String("dataset", data.Dataset),
		slog.String("request_id", reqID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"operation_id": startedID,
		"status":       "pending",
		"message":      "Analysis run started",
		"poll_url":     "/api/operations/" + startedID,
	})
}

// runSynchronously executes the run inline and returns the final result
func (h *OperationsHandler) runSynchronously(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, request operations.OperationRequest, data *AnalysisRequest) {
	reqID := middleware.GetReqID(ctx)

	timeout := 5 * time.Minute
	if data.Timeout != "" {
		parsed, err := time.ParseDuration(data.Timeout)
		if err == nil {
			timeout = parsed
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if h.metrics != nil {
		infrastructure.RecordActiveOperationChange(ctx, h.metrics, 1, data.Step)
		defer infrastructure.RecordActiveOperationChange(ctx, h.metrics, -1, data.Step)
	}

	executionStart := time.Now()
	result, err := h.service.RunAnalysis(runCtx, request)
	executionDuration := time.Since(executionStart)

	if h.metrics != nil {
		infrastructure.RecordOperationMetrics(ctx, h.metrics, request.ID, data.Step, executionDuration, err == nil, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis run failed")

		h.logger.ErrorContext(ctx, "analysis run failed",
			slog.String("operation_id", request.ID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/operation_failed",
			"operation_failed",
			"Failed to execute analysis run: "+err.Error(),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
			WithExtension("operation_id", request.ID)

		render.Render(w, r, problem)
		return
	}

	span.SetAttributes(
		attribute.Bool("operation.success", result.Status == operations.OperationStatusCompleted),
		attribute.Float64("operation.duration_ms", float64(result.Duration.Milliseconds())),
	)

	h.logger.InfoContext(ctx, "analysis run completed synchronously",
		slog.String("operation_id", request.ID),
		slog.Bool("success", result.Status == operations.OperationStatusCompleted),
		slog.Duration("duration", result.Duration),
		slog.String("request_id", reqID))

	response := map[string]interface{}{
		"id":      result.ID,
		"success": result.Status == operations.OperationStatusCompleted,
		"steps":   result.Steps,
	}
	if result.Error != "" {
		response["error"] = result.Error
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

// enqueueJob hands the run to the async worker pool
func (h *OperationsHandler) enqueueJob(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, request operations.OperationRequest, data *AnalysisRequest, reqID string) {
	stepID := data.Step
	stepName := data.Step
	if stepID == "" || stepID == "full_pipeline" {
		stepID = "full_pipeline"
		stepName = "Full Pipeline"
	}

	job := &operations.Job{
		ID:          request.ID,
		OperationID: request.ID,
		StepID:      stepID,
		StepName:    stepName,
		Status:      operations.JobStatusPending,
		CreatedAt:   time.Now(),
		Request:     &request,
		Metadata: map[string]interface{}{
			"trace_id":   infrastructure.TraceIDFromContext(ctx),
			"request_id": reqID,
			"dataset":    data.Dataset,
		},
	}

	if err := h.jobQueue.Enqueue(job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job enqueue failed")

		h.logger.ErrorContext(ctx, "failed to enqueue job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.NewProblemDetails(
			http.StatusServiceUnavailable,
			"/errors/queue_full",
			"queue_full",
			"Analysis queue is full. Please try again later.",
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
			WithExtension("operation_id", request.ID)

		render.Render(w, r, problem)
		return
	}

	h.logger.InfoContext(ctx, "analysis job enqueued",
		slog.String("job_id", job.ID),
		slog.String("operation_id", request.ID),
		slog.String("step_id", job.StepID),
		slog.String("request_id", reqID))

	if h.wsHub != nil {
		h.wsHub.BroadcastUpdate("operation:snapshot", job.StepID, "pending", map[string]interface{}{
			"job_id":       job.ID,
			"operation_id": request.ID,
			"dataset":      data.Dataset,
			"timestamp":    time.Now().UTC(),
		})
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"job_id":       job.ID,
		"operation_id": request.ID,
		"status":       "pending",
		"message":      "Analysis run queued for processing",
		"poll_url":     "/api/operations/jobs/" + job.ID,
	})
}

// StopOperation handles DELETE /api/operations/{id}
func (h *OperationsHandler) StopOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.stop_operation",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/{id}"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "operation cancel request",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.TraceIDFromContext(ctx)))

	cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := h.service.CancelOperation(cancelCtx, operationID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation cancellation failed")

		h.logger.ErrorContext(ctx, "failed to cancel operation",
			slog.String("operation_id", operationID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.handleError(w, r, err, map[string]interface{}{
			"operation_id": operationID,
		})
		return
	}

	h.logger.InfoContext(ctx, "operation cancelled",
		slog.String("operation_id", operationID),
		slog.String("request_id", reqID))

	if h.wsHub != nil {
		h.wsHub.BroadcastUpdate("operation:snapshot", "", "cancelled", map[string]interface{}{
			"operation_id": operationID,
			"timestamp":    time.Now().UTC(),
		})
	}

	render.JSON(w, r, map[string]string{
		"message": "Operation cancelled successfully",
	})
}

// GetOperationStatus handles GET /api/operations/{id}
func (h *OperationsHandler) GetOperationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	operationID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.get_status",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/{id}"),
			attribute.String("operation.id", operationID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	statusCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snapshot, err := h.service.GetSnapshot(statusCtx, operationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status retrieval failed")

		h.handleError(w, r, err, map[string]interface{}{
			"operation_id": operationID,
		})
		return
	}

	span.SetAttributes(
		attribute.String("operation.status", snapshot.Status),
		attribute.Int("operation.progress", snapshot.Progress),
	)

	render.JSON(w, r, snapshot)
}

// ListOperations handles GET /api/operations
func (h *OperationsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.list_operations",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" && !validSnapshotStatus(statusFilter) {
		problem := apierrors.NewProblemDetails(
			http.StatusBadRequest,
			"/errors/validation_failed",
			"validation_failed",
			fmt.Sprintf("Invalid status filter: %s", statusFilter),
			r.URL.Path+"#"+reqID,
		).WithExtension("trace_id", infrastructure.TraceIDFromContext(ctx)).
			WithExtension("valid_statuses", []string{"pending", "running", "completed", "failed", "cancelled"})

		render.Render(w, r, problem)
		return
	}

	snapshots := h.service.ListOperations(ctx)
	if statusFilter != "" {
		filtered := snapshots[:0]
		for _, snap := range snapshots {
			if snap.Status == statusFilter {
				filtered = append(filtered, snap)
			}
		}
		snapshots = filtered
		span.SetAttributes(attribute.String("filter.status", statusFilter))
	}

	span.SetAttributes(attribute.Int("operations.count", len(snapshots)))

	render.JSON(w, r, map[string]interface{}{
		"operations": snapshots,
		"count":      len(snapshots),
	})
}

// GetOperationTypes handles GET /api/operations/types
func (h *OperationsHandler) GetOperationTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("operations-handler")

	ctx, span := tracer.Start(ctx, "operations_handler.get_operation_types",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/operations/types"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	types := h.service.GetOperationTypes(ctx)
	span.SetAttributes(attribute.Int("operation_types.count", len(types)))

	render.JSON(w, r, types)
}

// GetJobStatus handles GET /api/operations/jobs/{id}
func (h *OperationsHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")
	reqID := middleware.GetReqID(ctx)

	if h.jobQueue == nil {
		problem := apierrors.NewProblemDetails(
			http.StatusServiceUnavailable,
			"/errors/queue_unavailable",
			"queue_unavailable",
			"Async job queue is not enabled",
			r.URL.Path+"#"+reqID,
		)
		render.Render(w, r, problem)
		return
	}

	job, err := h.jobQueue.GetJob(jobID)
	if err != nil {
		problem := apierrors.NewProblemDetails(
			http.StatusNotFound,
			"/errors/not_found",
			"not_found",
			fmt.Sprintf("Job '%s' not found", jobID),
			r.URL.Path+"#"+reqID,
		).WithExtension("job_id", jobID)

		render.Render(w, r, problem)
		return
	}

	response := map[string]interface{}{
		"job": job,
	}
	// Poll hint while the job is still moving
	if job.Status == operations.JobStatusPending || job.Status == operations.JobStatusRunning {
		response["retry_after"] = 2
		response["poll_url"] = "/api/operations/jobs/" + job.ID
	} else {
		response["operation_url"] = "/api/operations/" + job.OperationID
	}

	render.JSON(w, r, response)
}

// ListJobs handles GET /api/operations/jobs
func (h *OperationsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	if h.jobQueue == nil {
		problem := apierrors.NewProblemDetails(
			http.StatusServiceUnavailable,
			"/errors/queue_unavailable",
			"queue_unavailable",
			"Async job queue is not enabled",
			r.URL.Path+"#"+reqID,
		)
		render.Render(w, r, problem)
		return
	}

	filter := operations.JobFilter{
		Status:      operations.JobStatus(r.URL.Query().Get("status")),
		OperationID: r.URL.Query().Get("operation_id"),
		StepID:      r.URL.Query().Get("step_id"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	jobs, err := h.jobQueue.ListJobs(filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list jobs",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		problem := apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/list_failed",
			"list_failed",
			"Failed to list jobs",
			r.URL.Path+"#"+reqID,
		)
		render.Render(w, r, problem)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// handleError centralizes error handling for the handler
func (h *OperationsHandler) handleError(w http.ResponseWriter, r *http.Request, err error, extensions map[string]interface{}) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	traceID := infrastructure.TraceIDFromContext(ctx)

	h.logger.ErrorContext(ctx, "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method))

	var problem *apierrors.ProblemDetails

	switch {
	case errors.Is(err, services.ErrOperationNotFound), errors.Is(err, operations.ErrOperationNotFound):
		problem = apierrors.NewProblemDetails(
			http.StatusNotFound,
			"/errors/not_found",
			"not_found",
			"Operation not found",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, operations.ErrOperationCompleted), errors.Is(err, services.ErrOperationNotRunning):
		problem = apierrors.NewProblemDetails(
			http.StatusConflict,
			"/errors/invalid_state",
			"invalid_state",
			"Operation has already finished and cannot be cancelled",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, services.ErrInvalidInput):
		problem = apierrors.NewProblemDetails(
			http.StatusBadRequest,
			"/errors/validation_failed",
			"validation_failed",
			err.Error(),
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, context.DeadlineExceeded):
		problem = apierrors.NewProblemDetails(
			http.StatusGatewayTimeout,
			"/errors/timeout",
			"Request Timeout",
			"The request timed out while processing",
			r.URL.Path+"#"+reqID,
		)

	case errors.Is(err, context.Canceled):
		problem = apierrors.NewProblemDetails(
			http.StatusRequestTimeout,
			"/errors/request_canceled",
			"Request Canceled",
			"The request was canceled",
			r.URL.Path+"#"+reqID,
		)

	default:
		problem = apierrors.NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/internal_error",
			"Internal Server Error",
			"An unexpected error occurred",
			r.URL.Path+"#"+reqID,
		)
	}

	problem.WithExtension("trace_id", traceID).
		WithExtension("timestamp", time.Now().UTC()).
		WithExtension("request_id", reqID)

	for k, v := range extensions {
		problem.WithExtension(k, v)
	}

	render.Render(w, r, problem)
}

// validSnapshotStatus reports whether s is a known snapshot status
func validSnapshotStatus(s string) bool {
	switch s {
	case "pending", "running", "completed", "failed", "cancelled":
		return true
	}
	return false
}
