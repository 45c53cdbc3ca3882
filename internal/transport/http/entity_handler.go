package http

import (
	"errors"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "loglens/internal/errors"
	custommw "loglens/internal/middleware"
	"loglens/internal/services"
	"loglens/pkg/contracts/domain"
)

// EntityHandler handles entity definition and scan HTTP requests
type EntityHandler struct {
	service      EntityServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *custommw.ValidationMiddleware
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(service EntityServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *EntityHandler {
	return &EntityHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "entity_handler")),
		errorHandler: errorHandler,
		validator:    custommw.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the entity routes
func (h *EntityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/definitions", h.GetDefinitions)
	r.Post("/definitions", h.AddDefinition)
	r.Get("/definitions/{name}", h.GetDefinition)
	r.Delete("/definitions/{name}", h.RemoveDefinition)
	r.Post("/scan", h.Scan)
	r.Get("/map", h.GetEntityMap)
	r.Get("/queries", h.GetHuntingQueries)

	return r
}

// GetDefinitions handles GET /api/entities/definitions
func (h *EntityHandler) GetDefinitions(w http.ResponseWriter, r *http.Request) {
	defs := h.service.ListDefinitions(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   defs,
		"count":  len(defs),
	})
}

// GetDefinition handles GET /api/entities/definitions/{name}
func (h *EntityHandler) GetDefinition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	def, err := h.service.GetDefinition(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusNotFound,
			"DEFINITION_NOT_FOUND",
			fmt.Sprintf("Entity definition '%s' not found", name),
			map[string]interface{}{"name": name},
		))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   def,
	})
}

// definitionRequest is the POST body for a new definition
type definitionRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=64"`
	Regex      string `json:"regex" validate:"required"`
	Priority   int    `json:"priority" validate:"min=0,max=2"`
	Entity     string `json:"entity,omitempty"`
	DataFormat string `json:"data_format,omitempty"`
}

// AddDefinition handles POST /api/entities/definitions
func (h *EntityHandler) AddDefinition(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req definitionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_REQUEST",
			"Invalid request body",
			map[string]interface{}{"error": err.Error()},
		))
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	def := domain.EntityDefinition{
		Name:       req.Name,
		Regex:      req.Regex,
		Priority:   req.Priority,
		Entity:     domain.EntityType(req.Entity),
		DataFormat: req.DataFormat,
	}

	h.logger.InfoContext(r.Context(), "adding entity definition",
		slog.String("request_id", reqID),
		slog.String("name", def.Name),
	)

	if err := h.service.AddDefinition(r.Context(), def); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("regex", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   def,
	})
}

// RemoveDefinition handles DELETE /api/entities/definitions/{name}
func (h *EntityHandler) RemoveDefinition(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.service.RemoveDefinition(r.Context(), name); err != nil {
		if errors.Is(err, services.ErrDefinitionNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"DEFINITION_NOT_FOUND",
				fmt.Sprintf("Entity definition '%s' not found", name),
				map[string]interface{}{"name": name},
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Scan handles POST /api/entities/scan
func (h *EntityHandler) Scan(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req services.ScanRequest
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

	h.logger.InfoContext(r.Context(), "on-demand entity scan",
		slog.String("request_id", reqID),
		slog.String("dataset", req.Dataset),
		slog.String("table", req.Table),
	)

	result, err := h.service.ScanTable(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dataset", "Invalid dataset or table name"))
		case errors.Is(err, services.ErrDatasetNotFound), errors.Is(err, services.ErrTableNotFound):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"TABLE_NOT_FOUND",
				fmt.Sprintf("Table '%s' not found in dataset '%s'", req.Table, req.Dataset),
				map[string]interface{}{"dataset": req.Dataset, "table": req.Table},
			))
		case errors.Is(err, services.ErrNoMatchesFound):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_MATCHES_FOUND",
				"No entity definitions matched the table",
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// GetHuntingQueries handles GET /api/entities/queries
func (h *EntityHandler) GetHuntingQueries(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("type")
	if entityType == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("type", "Entity type is required"))
		return
	}

	search := r.URL.Query().Get("search")
	if search == "" {
		search = "*"
	}
	template := r.URL.Query().Get("template")

	queries, err := h.service.HuntingQueries(r.Context(), domain.EntityType(entityType), search, template)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReportNotFound):
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"ENTITY_MAP_NOT_FOUND",
				"No entity map has been generated yet",
			))
		case errors.Is(err, services.ErrNoMatchesFound):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusNotFound,
				"NO_LOCATIONS_FOUND",
				fmt.Sprintf("Entity type '%s' has no locations in the entity map", entityType),
				map[string]interface{}{"type": entityType},
			))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   queries,
		"count":  len(queries),
	})
}

// GetEntityMap handles GET /api/entities/map
func (h *EntityHandler) GetEntityMap(w http.ResponseWriter, r *http.Request) {
	entityMap, err := h.service.LatestEntityMap(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"ENTITY_MAP_NOT_FOUND",
				"No entity map has been generated yet",
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   entityMap,
	})
}
