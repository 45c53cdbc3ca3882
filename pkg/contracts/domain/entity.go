package domain

import (
	"time"
)

// EntityType is the semantic category inferred for a column by pattern
// matching: the kind of security object its values name.
type EntityType string

const (
	EntityIPAddress     EntityType = "ipaddress"
	EntityHost          EntityType = "host"
	EntityAccount       EntityType = "account"
	EntityFile          EntityType = "file"
	EntityProcess       EntityType = "process"
	EntityURL           EntityType = "url"
	EntityHash          EntityType = "hash"
	EntityRegistryKey   EntityType = "registrykey"
	EntityAzureResource EntityType = "azureresource"
	// EntityNone marks definitions that describe a data format (such as a
	// UUID) without implying any entity.
	EntityNone EntityType = ""
)

// Definition priorities. Lower wins: a priority-0 definition beats a
// priority-1 definition when both match a column equally well.
const (
	PriorityStrong = 0
	PriorityMedium = 1
	PriorityWeak   = 2
)

// EntityDefinition pairs a named pattern with the entity it implies
type EntityDefinition struct {
	Name       string     `json:"name" validate:"required"`
	Regex      string     `json:"regex" validate:"required"`
	Priority   int        `json:"priority" validate:"min=0,max=2"`
	Entity     EntityType `json:"entity,omitempty"`
	DataFormat string     `json:"data_format,omitempty"`
}

// ColumnMatch is the match grade of one definition against one column.
// MatchRatio counts matches against non-blank values only; TotalMatchRatio
// counts against every sampled value.
type ColumnMatch struct {
	Table           string  `json:"table"`
	Column          string  `json:"column"`
	Definition      string  `json:"definition"`
	Priority        int     `json:"priority"`
	MatchRatio      float64 `json:"match_ratio"`
	TotalMatchRatio float64 `json:"total_match_ratio"`
	SampledRows     int     `json:"sampled_rows"`
}

// EntityAssignment records the winning definition for a column
type EntityAssignment struct {
	Table      string     `json:"table"`
	Column     string     `json:"column"`
	Entity     EntityType `json:"entity"`
	Definition string     `json:"definition"`
	MatchRatio float64    `json:"match_ratio"`
}

// EntityLocation is one (table, column) position holding an entity
type EntityLocation struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// EntityMap is the reverse index from entity type to every location that
// carries it across the scanned dataset.
type EntityMap struct {
	Entities    map[EntityType][]EntityLocation `json:"entities"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// Locations returns the locations for one entity type, never nil
func (m *EntityMap) Locations(et EntityType) []EntityLocation {
	if m == nil || m.Entities == nil {
		return []EntityLocation{}
	}
	locs, ok := m.Entities[et]
	if !ok {
		return []EntityLocation{}
	}
	return locs
}

// HuntingQuery is a rendered search statement for one entity location
type HuntingQuery struct {
	Entity EntityType `json:"entity"`
	Table  string     `json:"table"`
	Column string     `json:"column"`
	Query  string     `json:"query"`
}
