package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"loglens/internal/config"
	"loglens/internal/entity"
	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// EntityService manages the entity definition store and runs on-demand
// scans against single tables
type EntityService struct {
	mu       sync.Mutex
	registry *entity.Registry
	paths    *config.Paths
	logger   *slog.Logger
}

// NewEntityService loads the definitions file (falling back to the
// built-in set when it does not exist) and returns the service
func NewEntityService(paths *config.Paths, logger *slog.Logger) (*EntityService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := entity.NewRegistry()
	if err := registry.LoadJSON(paths.GetDefinitionsPath()); err != nil {
		return nil, fmt.Errorf("load entity definitions: %w", err)
	}

	logger.Info("EntityService initialized",
		slog.String("definitions_file", paths.GetDefinitionsPath()),
		slog.Int("definitions", registry.Len()))

	return &EntityService{
		registry: registry,
		paths:    paths,
		logger:   logger,
	}, nil
}

// ListDefinitions returns every definition sorted by name
func (es *EntityService) ListDefinitions(ctx context.Context) []domain.EntityDefinition {
	return es.registry.List()
}

// GetDefinition returns one definition by name
func (es *EntityService) GetDefinition(ctx context.Context, name string) (domain.EntityDefinition, error) {
	def, ok := es.registry.Get(name)
	if !ok {
		return domain.EntityDefinition{}, ErrDefinitionNotFound
	}
	return def, nil
}

// AddDefinition compiles, stores and persists a definition. An existing
// definition with the same name is replaced.
func (es *EntityService) AddDefinition(ctx context.Context, def domain.EntityDefinition) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if err := es.registry.Add(def); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if err := es.registry.SaveJSON(es.paths.GetDefinitionsPath()); err != nil {
		return fmt.Errorf("persist definitions: %w", err)
	}

	es.logger.InfoContext(ctx, "entity definition stored",
		slog.String("name", def.Name),
		slog.Int("priority", def.Priority))
	return nil
}

// RemoveDefinition deletes a definition and persists the store
func (es *EntityService) RemoveDefinition(ctx context.Context, name string) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.registry.Remove(name) {
		return ErrDefinitionNotFound
	}
	if err := es.registry.SaveJSON(es.paths.GetDefinitionsPath()); err != nil {
		return fmt.Errorf("persist definitions: %w", err)
	}

	es.logger.InfoContext(ctx, "entity definition removed", slog.String("name", name))
	return nil
}

// ScanRequest selects the table and tuning for an on-demand scan
type ScanRequest struct {
	Dataset    string  `json:"dataset"`
	Table      string  `json:"table"`
	SampleSize int     `json:"sample_size,omitempty"`
	Partial    bool    `json:"partial,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
}

// ScanResult carries the raw matches plus the winning assignments
type ScanResult struct {
	Table       string                    `json:"table"`
	SampledRows int                       `json:"sampled_rows"`
	Matches     []domain.ColumnMatch      `json:"matches"`
	Assignments []domain.EntityAssignment `json:"assignments"`
	EntityMap   *domain.EntityMap         `json:"entity_map"`
}

// ScanTable grades every definition against one table's columns and
// interprets the winners into entity assignments
func (es *EntityService) ScanTable(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	path, err := resolveTablePath(es.paths, req.Dataset, req.Table)
	if err != nil {
		return nil, err
	}

	table, err := tables.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	opts := entity.DefaultScanOptions()
	if req.SampleSize > 0 {
		opts.SampleSize = req.SampleSize
	}
	opts.Partial = req.Partial

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.5
	}

	scanner := entity.NewScanner(es.registry, es.logger)
	matches, err := scanner.ScanTable(ctx, table, opts)
	if err != nil {
		return nil, fmt.Errorf("scan table: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoMatchesFound
	}

	assignments := entity.Interpret(matches, es.registry, threshold)

	sampled := opts.SampleSize
	if sampled == 0 || sampled > table.RowCount {
		sampled = table.RowCount
	}

	es.logger.InfoContext(ctx, "on-demand scan finished",
		slog.String("table", table.Name),
		slog.Int("matches", len(matches)),
		slog.Int("assignments", len(assignments)))

	return &ScanResult{
		Table:       table.Name,
		SampledRows: sampled,
		Matches:     matches,
		Assignments: assignments,
		EntityMap:   entity.BuildEntityMap(assignments),
	}, nil
}

// LatestEntityMap loads the newest persisted entity map report
func (es *EntityService) LatestEntityMap(ctx context.Context) (*domain.EntityMap, error) {
	matches, err := filepath.Glob(filepath.Join(es.paths.ReportsDir, "loglens_entity_map_*.json"))
	if err != nil || len(matches) == 0 {
		return nil, ErrReportNotFound
	}
	sort.Strings(matches)
	newest := matches[len(matches)-1]

	data, err := os.ReadFile(newest)
	if err != nil {
		return nil, fmt.Errorf("read entity map: %w", err)
	}

	var entityMap domain.EntityMap
	if err := json.Unmarshal(data, &entityMap); err != nil {
		return nil, fmt.Errorf("parse entity map %s: %w", newest, err)
	}

	es.logger.DebugContext(ctx, "entity map served", slog.String("path", newest))
	return &entityMap, nil
}

// HuntingQueries renders a search statement for every location of the
// entity type in the latest entity map
func (es *EntityService) HuntingQueries(ctx context.Context, entityType domain.EntityType, search, template string) ([]domain.HuntingQuery, error) {
	entityMap, err := es.LatestEntityMap(ctx)
	if err != nil {
		return nil, err
	}

	queries := entity.GenerateQueries(entityMap, entityType, search, template)
	if len(queries) == 0 {
		return nil, ErrNoMatchesFound
	}

	es.logger.DebugContext(ctx, "hunting queries rendered",
		slog.String("entity", string(entityType)),
		slog.Int("queries", len(queries)))
	return queries, nil
}

// Registry exposes the live registry for pipeline wiring
func (es *EntityService) Registry() *entity.Registry {
	return es.registry
}
