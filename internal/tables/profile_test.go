package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/pkg/contracts/domain"
)

func TestProfileVariableTable(t *testing.T) {
	// One always-filled anchor column, three sometimes-filled columns
	table := buildTable("events", "", []string{"Tenant", "A", "B", "C"}, [][]string{
		{"t1", "x", "", ""},
		{"t1", "", "y", ""},
		{"t1", "", "", "z"},
		{"t1", "x", "y", ""},
	})

	profile := Profile(table)

	assert.Equal(t, domain.TableVariable, profile.Class)
	assert.InDelta(t, 3.0, profile.Variability, 1e-9)
	assert.Equal(t, 4, profile.PatternCount)

	require.Len(t, profile.Columns, 4)
	assert.True(t, profile.Columns[0].AlwaysSet)
	assert.False(t, profile.Columns[1].AlwaysSet)
	assert.InDelta(t, 0.5, profile.Columns[1].BlankRatio, 1e-9)
}

func TestProfileConstantTable(t *testing.T) {
	table := buildTable("audit", "", []string{"A", "B", "C"}, [][]string{
		{"1", "x", ""},
		{"2", "y", ""},
		{"3", "z", ""},
	})

	profile := Profile(table)

	// Two always-filled columns, none sometimes-filled: ratio 0
	assert.Equal(t, domain.TableConstant, profile.Class)
	assert.Zero(t, profile.Variability)
	assert.Equal(t, 1, profile.PatternCount)
	assert.True(t, profile.Columns[2].NeverSet)
}

func TestProfileEmptyTable(t *testing.T) {
	table := buildTable("empty", "", []string{"A", "B"}, nil)
	profile := Profile(table)

	assert.Equal(t, domain.TableNoData, profile.Class)
	assert.Zero(t, profile.RowCount)
}

func TestProfileNoAnchorColumns(t *testing.T) {
	// Every column is sometimes blank; no always-filled column to anchor
	// the ratio, so any variation classifies as variable.
	table := buildTable("sparse", "", []string{"A", "B"}, [][]string{
		{"x", ""},
		{"", "y"},
	})

	profile := Profile(table)
	assert.Equal(t, domain.TableVariable, profile.Class)
	assert.InDelta(t, 2.0, profile.Variability, 1e-9)
}
