package domain

import (
	"time"
)

// ColumnKind classifies the values observed in a column
type ColumnKind string

const (
	ColumnKindText    ColumnKind = "text"
	ColumnKindNumeric ColumnKind = "numeric"
	ColumnKindTime    ColumnKind = "time"
	ColumnKindBool    ColumnKind = "bool"
	ColumnKindEmpty   ColumnKind = "empty"
)

// Column describes a single column within a loaded table
type Column struct {
	Name          string     `json:"name" validate:"required"`
	Index         int        `json:"index" validate:"min=0"`
	Kind          ColumnKind `json:"kind"`
	BlankCount    int        `json:"blank_count"`
	DistinctCount int        `json:"distinct_count"`
}

// Table is an in-memory log table: a header plus row-major string cells.
// Cells keep their ingested text form; numeric interpretation is deferred
// to the analysis engines.
type Table struct {
	Name        string     `json:"name" validate:"required"`
	Source      string     `json:"source,omitempty"`
	Columns     []Column   `json:"columns"`
	Rows        [][]string `json:"rows,omitempty"`
	RowCount    int        `json:"row_count"`
	ColumnCount int        `json:"column_count"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	LoadedAt    time.Time  `json:"loaded_at"`
}

// ColumnNames returns the header in column order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the index of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnValues returns the cells of one column across all rows
func (t *Table) ColumnValues(index int) []string {
	if index < 0 || index >= len(t.Columns) {
		return nil
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if index < len(row) {
			values = append(values, row[index])
		} else {
			values = append(values, "")
		}
	}
	return values
}

// VariabilityClass classifies how much a table's row shapes vary
type VariabilityClass string

const (
	// TableVariable marks tables whose rows carry many different blank/filled shapes
	TableVariable VariabilityClass = "variable"
	// TableConstant marks tables with a stable row shape
	TableConstant VariabilityClass = "constant"
	// TableNoData marks tables with no rows at all
	TableNoData VariabilityClass = "no_data"
)

// ColumnFillStats summarizes how often a column is populated
type ColumnFillStats struct {
	Name       string  `json:"name"`
	BlankRatio float64 `json:"blank_ratio"`
	AlwaysSet  bool    `json:"always_set"`
	NeverSet   bool    `json:"never_set"`
}

// TableProfile is the shape summary produced by the profile stage.
// Variability is the ratio of sometimes-populated columns to always-populated
// columns; a value above 1 means row shapes dominate over a fixed schema.
type TableProfile struct {
	Table         string            `json:"table"`
	RowCount      int               `json:"row_count"`
	ColumnCount   int               `json:"column_count"`
	PatternCount  int               `json:"pattern_count"`
	Columns       []ColumnFillStats `json:"columns"`
	Variability   float64           `json:"variability"`
	Class         VariabilityClass  `json:"class"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// DatasetInfo describes a dataset directory entry visible to the API
type DatasetInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Tables   int       `json:"tables,omitempty"`
	Modified time.Time `json:"modified"`
}
