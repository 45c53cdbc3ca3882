package redux

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/pkg/contracts/domain"
)

func makeTable(header []string, rows [][]string) *domain.Table {
	columns := make([]domain.Column, len(header))
	for i, name := range header {
		distinct := make(map[string]struct{})
		for _, row := range rows {
			if i < len(row) && row[i] != "" {
				distinct[row[i]] = struct{}{}
			}
		}
		columns[i] = domain.Column{
			Name:          name,
			Index:         i,
			Kind:          domain.ColumnKindText,
			DistinctCount: len(distinct),
		}
	}
	return &domain.Table{
		Name:        "events",
		Columns:     columns,
		Rows:        rows,
		RowCount:    len(rows),
		ColumnCount: len(columns),
		LoadedAt:    time.Now(),
	}
}

func TestReduceDropList(t *testing.T) {
	table := makeTable([]string{"TenantId", "Account"}, [][]string{
		{"t1", "alice"},
		{"t2", "bob"},
	})

	opts := Options{DropList: []string{"TenantId"}}
	reduced, report, err := Reduce(table, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"Account"}, reduced.ColumnNames())
	assert.Equal(t, []string{"TenantId"}, report.DroppedBy(domain.DropReasonListed))
	assert.Equal(t, 2, report.OriginalColumns)
	assert.Equal(t, 1, report.KeptColumns)
}

func TestReduceInvariant(t *testing.T) {
	table := makeTable([]string{"Type", "Account", "Empty"}, [][]string{
		{"SignIn", "alice", ""},
		{"SignIn", "bob", ""},
	})

	reduced, report, err := Reduce(table, Options{RemoveInvariant: true})
	require.NoError(t, err)

	// Both the constant column and the all-blank column are invariant
	assert.Equal(t, []string{"Account"}, reduced.ColumnNames())
	assert.ElementsMatch(t, []string{"Type", "Empty"}, report.DroppedBy(domain.DropReasonInvariant))
}

func TestReduceNameRegexes(t *testing.T) {
	table := makeTable([]string{"TimeGenerated", "IngestionTime", "Account"}, [][]string{
		{"a", "b", "alice"},
		{"c", "d", "bob"},
	})

	reduced, report, err := Reduce(table, Options{NameRegexes: []string{`Time`}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Account"}, reduced.ColumnNames())
	assert.Len(t, report.DroppedBy(domain.DropReasonNameMatch), 2)
}

func TestReduceBadNameRegex(t *testing.T) {
	table := makeTable([]string{"A"}, [][]string{{"x"}})
	_, _, err := Reduce(table, Options{NameRegexes: []string{"(["}})
	assert.Error(t, err)
}

func TestReduceDuplicatesKeepEarlier(t *testing.T) {
	table := makeTable([]string{"IP", "SourceIP", "Account"}, [][]string{
		{"10.0.0.1", "10.0.0.1", "alice"},
		{"10.0.0.2", "10.0.0.2", "bob"},
	})

	reduced, report, err := Reduce(table, Options{RemoveDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"IP", "Account"}, reduced.ColumnNames())
	dropped := report.DroppedBy(domain.DropReasonDuplicate)
	assert.Equal(t, []string{"SourceIP"}, dropped)
}

func TestReduceDuplicatesKeepEmptyColumns(t *testing.T) {
	table := makeTable([]string{"E1", "E2", "Account"}, [][]string{
		{"", "", "alice"},
		{"", "", "bob"},
	})

	reduced, _, err := Reduce(table, Options{RemoveDuplicates: true, KeepEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "E2", "Account"}, reduced.ColumnNames())

	// Without the exemption the second empty column is a duplicate
	reduced, _, err = Reduce(table, Options{RemoveDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"E1", "Account"}, reduced.ColumnNames())
}

func TestReduceEntropyCleanup(t *testing.T) {
	rows := make([][]string, 8)
	for i := range rows {
		// ID column: all distinct. Level column: two balanced values.
		id := string(rune('a' + i))
		level := "low"
		if i%2 == 0 {
			level = "high"
		}
		rows[i] = []string{id, level}
	}
	table := makeTable([]string{"CorrelationId", "Level"}, rows)

	reduced, report, err := Reduce(table, Options{EntropyCleanup: true, EntropyCutoff: 0.9})
	require.NoError(t, err)

	assert.Equal(t, []string{"Level"}, reduced.ColumnNames())
	require.Len(t, report.Dropped, 1)
	assert.Equal(t, domain.DropReasonEntropy, report.Dropped[0].Reason)
	assert.InDelta(t, 1.0, report.Dropped[0].Entropy, 1e-9)
}

func TestNormalizedEntropy(t *testing.T) {
	// All distinct: maximum entropy
	assert.InDelta(t, 1.0, NormalizedEntropy([]string{"a", "b", "c", "d"}), 1e-9)

	// Single repeated value: zero
	assert.Zero(t, NormalizedEntropy([]string{"a", "a", "a"}))

	// Blank values are excluded from the distribution
	assert.Zero(t, NormalizedEntropy([]string{"a", "", "a", "NaN"}))

	// Two values at 3:1 odds
	p := []float64{0.75, 0.25}
	want := -(p[0]*math.Log(p[0]) + p[1]*math.Log(p[1])) / math.Log(2)
	got := NormalizedEntropy([]string{"x", "x", "x", "y"})
	assert.InDelta(t, want, got, 1e-9)
}

func TestReduceZeroOptionsDropsNothing(t *testing.T) {
	table := makeTable([]string{"A", "A2"}, [][]string{{"1", "1"}})
	reduced, report, err := Reduce(table, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, reduced.ColumnCount)
	assert.Empty(t, report.Dropped)
}
