package operations

import (
	"context"
	"fmt"
	"time"

	"loglens/internal/infrastructure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "loglens.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for analysis runs
type OperationTracer struct {
	tracer          trace.Tracer
	meter           metric.Meter
	businessMetrics *infrastructure.BusinessMetrics
}

// NewOperationTracer creates a new operation tracer
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	businessMetrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return &OperationTracer{
		tracer:          otel.Tracer(TracerName),
		meter:           providers.Meter,
		businessMetrics: businessMetrics,
	}, nil
}

// TraceOperationExecution creates a span for the entire run execution
func (pt *OperationTracer) TraceOperationExecution(ctx context.Context, operationID string, req OperationRequest) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "operation.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("operation.dataset", req.Dataset),
			attribute.String("operation.operation", "execute"),
		),
	)

	pt.businessMetrics.OperationExecutionsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("dataset", req.Dataset),
			attribute.String("operation", "start"),
		),
	)

	pt.businessMetrics.OperationActiveOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("dataset", req.Dataset),
		),
	)

	return ctx, span
}

// TraceStepExecution creates a span for an individual step execution
func (pt *OperationTracer) TraceStepExecution(ctx context.Context, operationID, stepID string) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("operation.step.%s", stepID)
	ctx, span := pt.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", operationID),
			attribute.String("step.id", stepID),
			attribute.String("step.operation", "execute"),
		),
	)

	pt.businessMetrics.OperationStepsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("step", stepID),
			attribute.String("operation", "start"),
		),
	)

	return ctx, span
}

// RecordOperationCompletion records run completion with metrics and span events
func (pt *OperationTracer) RecordOperationCompletion(ctx context.Context, span trace.Span, operationID string, duration time.Duration, status string, dataProcessed int64) {
	span.SetAttributes(
		attribute.String("operation.status", status),
		attribute.Float64("operation.duration_seconds", duration.Seconds()),
		attribute.Int64("operation.data_processed_bytes", dataProcessed),
	)

	attrs := []attribute.KeyValue{
		attribute.String("status", status),
	}

	pt.businessMetrics.OperationExecutionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attrs...),
	)

	pt.businessMetrics.OperationActiveOperations.Add(ctx, -1)

	if dataProcessed > 0 {
		pt.businessMetrics.OperationDataProcessed.Add(ctx, dataProcessed,
			metric.WithAttributes(
				attribute.String("operation_id", operationID),
			),
		)
	}

	infrastructure.AddSpanEvent(ctx, "operation.completed", map[string]interface{}{
		"operation_id":   operationID,
		"status":         status,
		"duration":       duration.Seconds(),
		"data_processed": dataProcessed,
	})

	if status == "success" {
		span.SetStatus(codes.Ok, "operation completed successfully")
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("operation failed with status: %s", status))
	}
}

// RecordStepCompletion records step completion with metrics and span events
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, operationID, stepID string, duration time.Duration, success bool, itemsProcessed int64) {
	status := "success"
	if !success {
		status = "failure"
	}

	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int64("step.items_processed", itemsProcessed),
	)

	pt.businessMetrics.OperationStepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("step", stepID),
			attribute.String("status", status),
		),
	)

	infrastructure.AddSpanEvent(ctx, "step.completed", map[string]interface{}{
		"step_id":         stepID,
		"status":          status,
		"duration":        duration.Seconds(),
		"items_processed": itemsProcessed,
	})

	if success {
		span.SetStatus(codes.Ok, "step completed successfully")
	} else {
		span.SetStatus(codes.Error, "step execution failed")
	}
}

// RecordStepProgress records step progress as span events
func (pt *OperationTracer) RecordStepProgress(ctx context.Context, operationID, stepID string, progress int, message string) {
	infrastructure.AddSpanEvent(ctx, "step.progress", map[string]interface{}{
		"step_id":  stepID,
		"progress": progress,
		"message":  message,
	})

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int("step.progress_percent", progress),
			attribute.String("step.progress_message", message),
		)
	}
}

// RecordStepError records step errors with proper error tracking
func (pt *OperationTracer) RecordStepError(ctx context.Context, operationID, stepID string, err error) {
	infrastructure.RecordError(ctx, err,
		trace.WithAttributes(
			attribute.String("step_id", stepID),
			attribute.String("error.type", "step_execution_error"),
		),
	)

	pt.businessMetrics.OperationErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("step", stepID),
		),
	)
}

// RecordOperationError records run errors with proper error tracking
func (pt *OperationTracer) RecordOperationError(ctx context.Context, operationID string, err error) {
	infrastructure.RecordError(ctx, err,
		trace.WithAttributes(
			attribute.String("operation_id", operationID),
			attribute.String("error.type", "operation_execution_error"),
		),
	)

	pt.businessMetrics.OperationActiveOperations.Add(ctx, -1)
}

// TraceDataProcessing creates a span for table processing work
func (pt *OperationTracer) TraceDataProcessing(ctx context.Context, operationType string, itemCount int) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("operation.data.%s", operationType)
	ctx, span := pt.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("data.operation", operationType),
			attribute.Int("data.item_count", itemCount),
		),
	)

	return ctx, span
}

// RecordDataProcessingCompletion records completion of table processing work
func (pt *OperationTracer) RecordDataProcessingCompletion(ctx context.Context, span trace.Span, operationType string, itemsProcessed, bytesProcessed int64, duration time.Duration) {
	span.SetAttributes(
		attribute.Int64("data.items_processed", itemsProcessed),
		attribute.Int64("data.bytes_processed", bytesProcessed),
		attribute.Float64("data.duration_seconds", duration.Seconds()),
		attribute.Float64("data.throughput_items_per_second", float64(itemsProcessed)/duration.Seconds()),
	)

	if bytesProcessed > 0 {
		pt.businessMetrics.OperationDataProcessed.Add(ctx, bytesProcessed,
			metric.WithAttributes(
				attribute.String("operation", operationType),
			),
		)
	}

	infrastructure.AddSpanEvent(ctx, "data.processing.completed", map[string]interface{}{
		"operation":       operationType,
		"items_processed": itemsProcessed,
		"bytes_processed": bytesProcessed,
		"duration":        duration.Seconds(),
		"throughput_ips":  float64(itemsProcessed) / duration.Seconds(),
	})

	span.SetStatus(codes.Ok, fmt.Sprintf("Processed %d items in %v", itemsProcessed, duration))
}

var globalOperationTracer *OperationTracer

// InitGlobalOperationTracer initializes the global operation tracer
func InitGlobalOperationTracer(providers *infrastructure.OTelProviders) error {
	tracer, err := NewOperationTracer(providers)
	if err != nil {
		return err
	}
	globalOperationTracer = tracer
	return nil
}

// GetOperationTracer returns the global operation tracer
func GetOperationTracer() *OperationTracer {
	return globalOperationTracer
}
