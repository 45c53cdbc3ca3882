package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "loglens/internal/errors"
	"loglens/internal/services"
)

// SignatureHandler serves on-demand signature censuses for single tables
type SignatureHandler struct {
	service      AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSignatureHandler creates a new signature handler
func NewSignatureHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SignatureHandler {
	return &SignatureHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "signature_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the signature routes
func (h *SignatureHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/{table}", h.GetSignatures)
	r.Get("/{table}/unique", h.GetUniqueValues)

	return r
}

// GetSignatures handles GET /api/signatures/{table}?dataset=
func (h *SignatureHandler) GetSignatures(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	table := chi.URLParam(r, "table")
	dataset := r.URL.Query().Get("dataset")

	if dataset == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Dataset query parameter is required"))
		return
	}

	h.logger.InfoContext(r.Context(), "computing signatures",
		slog.String("request_id", reqID),
		slog.String("dataset", dataset),
		slog.String("table", table),
	)

	set, err := h.service.ComputeSignatures(r.Context(), dataset, table)
	if err != nil {
		h.handleTableError(w, r, err, dataset, table)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   set,
	})
}

// GetUniqueValues handles GET /api/signatures/{table}/unique?dataset=&threshold=
func (h *SignatureHandler) GetUniqueValues(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	table := chi.URLParam(r, "table")
	dataset := r.URL.Query().Get("dataset")

	if dataset == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Dataset query parameter is required"))
		return
	}

	threshold := 1
	if thresholdStr := r.URL.Query().Get("threshold"); thresholdStr != "" {
		parsed, err := strconv.Atoi(thresholdStr)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("threshold", "Threshold must be a number between 1 and 1000"))
			return
		}
		threshold = parsed
	}

	h.logger.InfoContext(r.Context(), "mining unique signature values",
		slog.String("request_id", reqID),
		slog.String("dataset", dataset),
		slog.String("table", table),
		slog.Int("threshold", threshold),
	)

	set, unique, err := h.service.UniqueSignatureValues(r.Context(), dataset, table, threshold)
	if err != nil {
		if errors.Is(err, services.ErrNoMatchesFound) {
			// Still a useful answer: the census exists, nothing was rare
			render.JSON(w, r, map[string]interface{}{
				"status":     "success",
				"data":       []interface{}{},
				"count":      0,
				"signatures": len(set.Summaries),
				"threshold":  threshold,
			})
			return
		}
		h.handleTableError(w, r, err, dataset, table)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":     "success",
		"data":       unique,
		"count":      len(unique),
		"signatures": len(set.Summaries),
		"threshold":  threshold,
	})
}

// handleTableError maps table resolution failures to API errors
func (h *SignatureHandler) handleTableError(w http.ResponseWriter, r *http.Request, err error, dataset, table string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("table", "Invalid dataset or table name"))
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
