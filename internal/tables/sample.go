package tables

import (
	"math/rand"

	"loglens/pkg/contracts/domain"
)

// Sample returns a table with up to n rows drawn without replacement.
// The draw is deterministic for a given seed so entity scans over the
// same dataset are reproducible. Tables at or under n rows are returned
// unchanged.
func Sample(table *domain.Table, n int, seed int64) *domain.Table {
	if n <= 0 || table.RowCount <= n {
		return table
	}

	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(table.RowCount)[:n]

	rows := make([][]string, 0, n)
	for _, idx := range picked {
		rows = append(rows, table.Rows[idx])
	}

	sampled := buildTable(table.Name, table.Source, table.ColumnNames(), rows)
	sampled.Fingerprint = table.Fingerprint
	return sampled
}
