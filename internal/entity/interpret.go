package entity

import (
	"sort"
	"strings"
	"time"

	"loglens/pkg/contracts/domain"
)

// Interpret assigns each column the winning definition among its matches.
// The definition with the highest match ratio at or above threshold wins;
// ties break toward the stronger (lower) priority. Format-only
// definitions, GUID in the default set, never win: a column of UUIDs
// names no security object.
func Interpret(matches []domain.ColumnMatch, registry *Registry, threshold float64) []domain.EntityAssignment {
	type columnKey struct{ table, column string }
	byColumn := make(map[columnKey][]domain.ColumnMatch)
	for _, m := range matches {
		key := columnKey{m.Table, m.Column}
		byColumn[key] = append(byColumn[key], m)
	}

	var assignments []domain.EntityAssignment
	for key, colMatches := range byColumn {
		var best *domain.ColumnMatch
		for i := range colMatches {
			m := &colMatches[i]
			def, ok := registry.Get(m.Definition)
			if !ok || def.Entity == domain.EntityNone {
				continue
			}
			if m.MatchRatio < threshold {
				continue
			}
			if best == nil ||
				m.MatchRatio > best.MatchRatio ||
				(m.MatchRatio == best.MatchRatio && m.Priority < best.Priority) {
				best = m
			}
		}
		if best == nil {
			continue
		}

		def, _ := registry.Get(best.Definition)
		assignments = append(assignments, domain.EntityAssignment{
			Table:      key.table,
			Column:     key.column,
			Entity:     def.Entity,
			Definition: best.Definition,
			MatchRatio: best.MatchRatio,
		})
	}

	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].Table != assignments[j].Table {
			return assignments[i].Table < assignments[j].Table
		}
		return assignments[i].Column < assignments[j].Column
	})
	return assignments
}

// BuildEntityMap inverts column assignments into the entity map: for each
// entity type, every (table, column) location carrying it.
func BuildEntityMap(assignments []domain.EntityAssignment) *domain.EntityMap {
	entities := make(map[domain.EntityType][]domain.EntityLocation)
	for _, a := range assignments {
		entities[a.Entity] = append(entities[a.Entity], domain.EntityLocation{
			Table:  a.Table,
			Column: a.Column,
		})
	}
	return &domain.EntityMap{
		Entities:    entities,
		GeneratedAt: time.Now(),
	}
}

// Query template placeholders
const (
	PlaceholderTable  = "{table}"
	PlaceholderColumn = "{ColumnName}"
	PlaceholderSearch = "{MySearch}"
)

// DefaultQueryTemplate is a workable hunting query for log backends with
// a KQL-style surface.
const DefaultQueryTemplate = "{table} | where {ColumnName} == \"{MySearch}\""

// GenerateQuery renders one hunting query from a template
func GenerateQuery(template, table, column, search string) string {
	query := strings.ReplaceAll(template, PlaceholderTable, table)
	query = strings.ReplaceAll(query, PlaceholderColumn, column)
	return strings.ReplaceAll(query, PlaceholderSearch, search)
}

// GenerateQueries renders a hunting query for every location of an
// entity type in the map.
func GenerateQueries(entityMap *domain.EntityMap, entityType domain.EntityType, search, template string) []domain.HuntingQuery {
	if template == "" {
		template = DefaultQueryTemplate
	}

	var queries []domain.HuntingQuery
	for _, loc := range entityMap.Locations(entityType) {
		queries = append(queries, domain.HuntingQuery{
			Entity: entityType,
			Table:  loc.Table,
			Column: loc.Column,
			Query:  GenerateQuery(template, loc.Table, loc.Column, search),
		})
	}
	return queries
}
