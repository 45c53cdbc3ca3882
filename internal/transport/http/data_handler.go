package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"loglens/internal/config"
	apierrors "loglens/internal/errors"
	"loglens/internal/services"
)

// DataHandler handles dataset and report HTTP requests with RFC 7807
// compliant errors
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	sheetsConfig config.SheetsConfig
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// SetSheetsConfig enables the spreadsheet import endpoint
func (h *DataHandler) SetSheetsConfig(cfg config.SheetsConfig) {
	h.sheetsConfig = cfg
}

// DatasetRoutes returns the dataset routes
func (h *DataHandler) DatasetRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetDatasets)
	r.Get("/{name}/preview", h.PreviewTable)
	r.Post("/import/sheet", h.ImportSheet)

	return r
}

// ReportRoutes returns the report routes
func (h *DataHandler) ReportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetReports)
	r.Get("/download/{filepath:.*}", h.DownloadReport)
	r.Delete("/{filepath:.*}", h.DeleteReport)

	return r
}

// GetDatasets handles GET /api/datasets
func (h *DataHandler) GetDatasets(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "listing datasets",
		slog.String("request_id", reqID),
		slog.String("path", r.URL.Path),
	)

	datasets, err := h.service.ListDatasets(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list datasets",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)

		if errors.Is(err, services.ErrNoDatasetsFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_DATASETS_FOUND",
				"No datasets available",
			))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   datasets,
		"count":  len(datasets),
	})
}

// PreviewTable handles GET /api/datasets/{name}/preview
func (h *DataHandler) PreviewTable(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	dataset := chi.URLParam(r, "name")
	table := r.URL.Query().Get("table")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "Limit must be a number between 1 and 1000"))
			return
		}
		limit = parsed
	}

	h.logger.InfoContext(r.Context(), "previewing table",
		slog.String("request_id", reqID),
		slog.String("dataset", dataset),
		slog.String("table", table),
		slog.Int("limit", limit),
	)

	preview, err := h.service.PreviewTable(r.Context(), dataset, table, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to preview table",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("dataset", dataset),
		)

		switch {
		case errors.Is(err, services.ErrInvalidInput):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Invalid dataset or table name"))
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
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"data":    preview,
		"dataset": dataset,
	})
}

// ImportSheet handles POST /api/datasets/import/sheet
func (h *DataHandler) ImportSheet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req struct {
		Dataset string `json:"dataset"`
		Range   string `json:"range"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Request body must be valid JSON",
		))
		return
	}
	if req.Dataset == "" || req.Range == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Both dataset and range are required"))
		return
	}

	h.logger.InfoContext(r.Context(), "importing spreadsheet range",
		slog.String("request_id", reqID),
		slog.String("dataset", req.Dataset),
		slog.String("range", req.Range),
	)

	info, err := h.service.ImportSheet(r.Context(), h.sheetsConfig, req.Dataset, req.Range)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to import spreadsheet range",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)

		switch {
		case errors.Is(err, services.ErrSheetsDisabled):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusServiceUnavailable,
				"SHEETS_DISABLED",
				"Google Sheets import is not enabled",
			))
		case errors.Is(err, services.ErrInvalidInput):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Invalid dataset name or range"))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   info,
	})
}

// GetReports handles GET /api/reports
func (h *DataHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "listing reports",
		slog.String("request_id", reqID),
	)

	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list reports",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)

		if errors.Is(err, services.ErrNoReportsFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_REPORTS_FOUND",
				"No reports available",
			))
			return
		}

		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   reports,
		"count":  len(reports),
	})
}

// DownloadReport handles GET /api/reports/download/{filepath} with
// nested path support
func (h *DataHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	raw := chi.URLParam(r, "filepath")

	// Encoded slashes (%2F) arrive escaped in the route param
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_PATH",
			"Invalid file path encoding",
			map[string]interface{}{"filepath": raw},
		))
		return
	}

	full, err := h.service.ResolveReportPath(decoded)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to resolve report path",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("filepath", decoded),
		)
		h.handleReportError(w, r, err, decoded)
		return
	}

	h.logger.InfoContext(r.Context(), "serving report file",
		slog.String("request_id", reqID),
		slog.String("filepath", decoded),
	)

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(full)))
	w.Header().Set("Content-Type", contentTypeFor(full))
	http.ServeFile(w, r, full)
}

// DeleteReport handles DELETE /api/reports/{filepath}
func (h *DataHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	raw := chi.URLParam(r, "filepath")

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_PATH",
			"Invalid file path encoding",
			map[string]interface{}{"filepath": raw},
		))
		return
	}

	if err := h.service.DeleteReport(r.Context(), decoded); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to delete report",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("filepath", decoded),
		)
		h.handleReportError(w, r, err, decoded)
		return
	}

	h.logger.InfoContext(r.Context(), "report deleted",
		slog.String("request_id", reqID),
		slog.String("filepath", decoded),
	)

	w.WriteHeader(http.StatusNoContent)
}

// handleReportError maps report lookup failures to API errors
func (h *DataHandler) handleReportError(w http.ResponseWriter, r *http.Request, err error, relPath string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filepath", "Invalid report path"))
	case errors.Is(err, services.ErrReportNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"REPORT_NOT_FOUND",
			fmt.Sprintf("Report '%s' not found", relPath),
			map[string]interface{}{"filepath": relPath},
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// contentTypeFor picks the download content type from the extension
func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
