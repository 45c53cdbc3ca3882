package http

import (
	"errors"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"loglens/internal/anomaly"
	apierrors "loglens/internal/errors"
	"loglens/internal/services"
)

// AnomalyHandler serves on-demand anomaly detection for single tables
type AnomalyHandler struct {
	service      AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnomalyHandler creates a new anomaly handler
func NewAnomalyHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnomalyHandler {
	return &AnomalyHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "anomaly_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the anomaly routes
func (h *AnomalyHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/forest", h.DetectForest)
	r.Post("/series", h.DetectSeries)

	return r
}

// DetectForest handles POST /api/anomalies/forest
func (h *AnomalyHandler) DetectForest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req services.ForestRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}
	if req.Dataset == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Dataset is required"))
		return
	}
	if req.Contamination < 0 || req.Contamination > 0.5 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("contamination", "Contamination must be between 0 and 0.5"))
		return
	}

	h.logger.InfoContext(r.Context(), "isolation forest requested",
		slog.String("request_id", reqID),
		slog.String("dataset", req.Dataset),
		slog.String("table", req.Table),
		slog.Int("trees", req.Trees),
	)

	result, err := h.service.DetectForest(r.Context(), req)
	if err != nil {
		h.handleDetectionError(w, r, err, req.Dataset, req.Table)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// DetectSeries handles POST /api/anomalies/series
func (h *AnomalyHandler) DetectSeries(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req services.SeriesRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}
	if req.Dataset == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Dataset is required"))
		return
	}
	if !anomaly.ValidScoreMethod(req.Method) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("method", "Method must be one of zscore, mad, ewma, iqr"))
		return
	}

	h.logger.InfoContext(r.Context(), "seasonal decomposition requested",
		slog.String("request_id", reqID),
		slog.String("dataset", req.Dataset),
		slog.String("table", req.Table),
		slog.String("time_column", req.TimeColumn),
	)

	result, err := h.service.DetectSeries(r.Context(), req)
	if err != nil {
		h.handleDetectionError(w, r, err, req.Dataset, req.Table)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// handleDetectionError maps detection failures to API errors
func (h *AnomalyHandler) handleDetectionError(w http.ResponseWriter, r *http.Request, err error, dataset, table string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusUnprocessableEntity,
			"UNSUITABLE_TABLE",
			"Table does not support the requested detection",
			map[string]interface{}{"dataset": dataset, "table": table, "error": err.Error()},
		))
	case errors.Is(err, services.ErrDatasetNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"DATASET_NOT_FOUND",
			fmt.Sprintf("Dataset '%s' not found", dataset),
			map[string]interface{}{"dataset": dataset},
		))
	case errors.Is(err, services.ErrTableNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"TABLE_NOT_FOUND",
			fmt.Sprintf("Table '%s' not found in dataset '%s'", table, dataset),
			map[string]interface{}{"dataset": dataset, "table": table},
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
