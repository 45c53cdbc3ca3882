package tables

import (
	"strings"
	"time"

	"loglens/pkg/contracts/domain"
)

// Profile summarizes a table's shape: how many distinct blank/filled row
// patterns it carries, how often each column is populated, and the
// variability score classifying the table.
//
// Variability is the count of sometimes-populated columns over the count
// of always-populated columns. A score above 1 means the table's rows
// mostly disagree about which columns they fill, so per-row signatures
// carry real information; a score of at most 1 means the schema is
// effectively fixed.
func Profile(table *domain.Table) *domain.TableProfile {
	profile := &domain.TableProfile{
		Table:       table.Name,
		RowCount:    table.RowCount,
		ColumnCount: table.ColumnCount,
		GeneratedAt: time.Now(),
	}

	if table.RowCount == 0 {
		profile.Class = domain.TableNoData
		return profile
	}

	patterns := make(map[string]int)
	blankCounts := make([]int, table.ColumnCount)
	var pattern strings.Builder

	for _, row := range table.Rows {
		pattern.Reset()
		for i := 0; i < table.ColumnCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if IsBlank(cell) {
				blankCounts[i]++
				pattern.WriteByte('0')
			} else {
				pattern.WriteByte('1')
			}
		}
		patterns[pattern.String()]++
	}
	profile.PatternCount = len(patterns)

	alwaysSet, sometimesSet := 0, 0
	profile.Columns = make([]domain.ColumnFillStats, table.ColumnCount)
	for i, col := range table.Columns {
		blankRatio := float64(blankCounts[i]) / float64(table.RowCount)
		stats := domain.ColumnFillStats{
			Name:       col.Name,
			BlankRatio: blankRatio,
			AlwaysSet:  blankCounts[i] == 0,
			NeverSet:   blankCounts[i] == table.RowCount,
		}
		profile.Columns[i] = stats

		switch {
		case stats.AlwaysSet:
			alwaysSet++
		case !stats.NeverSet:
			sometimesSet++
		}
	}

	if alwaysSet > 0 {
		profile.Variability = float64(sometimesSet) / float64(alwaysSet)
	} else {
		// No anchor columns at all: treat any variation as variable
		profile.Variability = float64(sometimesSet)
	}

	if profile.Variability > 1 {
		profile.Class = domain.TableVariable
	} else {
		profile.Class = domain.TableConstant
	}
	return profile
}
