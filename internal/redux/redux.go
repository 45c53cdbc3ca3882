// Package redux trims extraneous columns from tables before the heavier
// analysis passes. Security log exports carry schema baggage: constant
// tenant columns, duplicated fields, near-unique correlation IDs. Each
// heuristic removes one kind of baggage and records why, so a reduction
// is always explainable.
package redux

import (
	"fmt"
	"math"
	"regexp"

	"gonum.org/v1/gonum/stat"

	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// Options select and tune the reduction heuristics. The zero value drops
// nothing.
type Options struct {
	// DropList removes columns by exact name
	DropList []string
	// NameRegexes removes columns whose names match any pattern
	NameRegexes []string
	// RemoveInvariant drops columns with at most one distinct non-blank value
	RemoveInvariant bool
	// RemoveDuplicates drops columns whose cells duplicate an earlier column
	RemoveDuplicates bool
	// KeepEmpty protects all-blank columns from the duplicate rule so they
	// stay visible in signatures
	KeepEmpty bool
	// EntropyCleanup drops near-unique columns by normalized entropy
	EntropyCleanup bool
	// EntropyCutoff is the normalized entropy at or above which
	// EntropyCleanup drops a column (0 disables the upper bound)
	EntropyCutoff float64
}

// DefaultOptions enable the structural heuristics but leave the entropy
// cleanup off; it is the aggressive mode.
func DefaultOptions() Options {
	return Options{
		RemoveInvariant:  true,
		RemoveDuplicates: true,
		KeepEmpty:        true,
		EntropyCutoff:    0.5,
	}
}

// Reduce applies the selected heuristics in order (drop list, invariant,
// name match, duplicate, entropy) and returns the reduced table with a
// report naming every removed column.
func Reduce(table *domain.Table, opts Options) (*domain.Table, *domain.ReductionReport, error) {
	patterns := make([]*regexp.Regexp, 0, len(opts.NameRegexes))
	for _, expr := range opts.NameRegexes {
		p, err := regexp.Compile(expr)
		if err != nil {
			return nil, nil, fmt.Errorf("name pattern %q: %w", expr, err)
		}
		patterns = append(patterns, p)
	}

	dropList := make(map[string]struct{}, len(opts.DropList))
	for _, name := range opts.DropList {
		dropList[name] = struct{}{}
	}

	report := &domain.ReductionReport{
		Table:           table.Name,
		OriginalColumns: table.ColumnCount,
	}
	dropped := make(map[int]struct{})

	drop := func(idx int, reason domain.DropReason, detail string, entropy float64) {
		dropped[idx] = struct{}{}
		report.Dropped = append(report.Dropped, domain.DroppedColumn{
			Name:    table.Columns[idx].Name,
			Reason:  reason,
			Detail:  detail,
			Entropy: entropy,
		})
	}

	for idx, col := range table.Columns {
		if _, listed := dropList[col.Name]; listed {
			drop(idx, domain.DropReasonListed, "", 0)
		}
	}

	if opts.RemoveInvariant {
		for idx, col := range table.Columns {
			if _, gone := dropped[idx]; gone {
				continue
			}
			if col.DistinctCount <= 1 {
				drop(idx, domain.DropReasonInvariant,
					fmt.Sprintf("%d distinct values", col.DistinctCount), 0)
			}
		}
	}

	for idx, col := range table.Columns {
		if _, gone := dropped[idx]; gone {
			continue
		}
		for i, p := range patterns {
			if p.MatchString(col.Name) {
				drop(idx, domain.DropReasonNameMatch, opts.NameRegexes[i], 0)
				break
			}
		}
	}

	if opts.RemoveDuplicates {
		markDuplicates(table, dropped, opts.KeepEmpty, drop)
	}

	if opts.EntropyCleanup {
		for idx := range table.Columns {
			if _, gone := dropped[idx]; gone {
				continue
			}
			norm := NormalizedEntropy(table.ColumnValues(idx))
			if norm == 0 || (opts.EntropyCutoff > 0 && norm >= opts.EntropyCutoff) {
				drop(idx, domain.DropReasonEntropy,
					fmt.Sprintf("normalized entropy %.3f", norm), norm)
			}
		}
	}

	reduced := selectColumns(table, dropped)
	report.KeptColumns = reduced.ColumnCount
	return reduced, report, nil
}

// markDuplicates drops any column whose full cell content equals an
// earlier surviving column. All-blank columns are exempt when keepEmpty
// is set; they carry shape information even without values.
func markDuplicates(table *domain.Table, dropped map[int]struct{}, keepEmpty bool, drop func(int, domain.DropReason, string, float64)) {
	seen := make(map[string]int)
	for idx := range table.Columns {
		if _, gone := dropped[idx]; gone {
			continue
		}
		values := table.ColumnValues(idx)
		if keepEmpty && tables.NonBlankCount(values) == 0 {
			continue
		}

		key := contentKey(values)
		if first, ok := seen[key]; ok {
			drop(idx, domain.DropReasonDuplicate,
				fmt.Sprintf("duplicate of %s", table.Columns[first].Name), 0)
			continue
		}
		seen[key] = idx
	}
}

// contentKey builds a collision-safe key for a column's cell content
func contentKey(values []string) string {
	key := make([]byte, 0, 64)
	for _, v := range values {
		key = append(key, byte(len(v)>>8), byte(len(v)))
		key = append(key, v...)
	}
	return string(key)
}

// NormalizedEntropy returns H/ln(n) over the distribution of a column's
// non-blank values, where n is the distinct count. The result lies in
// [0,1]: 0 for a single repeated value, 1 when every value is distinct.
// Normalization cancels the logarithm base, so the natural-log entropy
// gonum computes serves directly.
func NormalizedEntropy(values []string) float64 {
	counts := make(map[string]int)
	total := 0
	for _, v := range values {
		if tables.IsBlank(v) {
			continue
		}
		counts[v]++
		total++
	}
	if len(counts) <= 1 || total == 0 {
		return 0
	}

	probs := make([]float64, 0, len(counts))
	for _, c := range counts {
		probs = append(probs, float64(c)/float64(total))
	}

	return stat.Entropy(probs) / math.Log(float64(len(counts)))
}

// selectColumns rebuilds the table with the surviving columns, re-indexed
func selectColumns(table *domain.Table, dropped map[int]struct{}) *domain.Table {
	kept := make([]int, 0, table.ColumnCount)
	for idx := range table.Columns {
		if _, gone := dropped[idx]; !gone {
			kept = append(kept, idx)
		}
	}

	columns := make([]domain.Column, len(kept))
	for newIdx, oldIdx := range kept {
		columns[newIdx] = table.Columns[oldIdx]
		columns[newIdx].Index = newIdx
	}

	rows := make([][]string, table.RowCount)
	for r, row := range table.Rows {
		newRow := make([]string, len(kept))
		for newIdx, oldIdx := range kept {
			if oldIdx < len(row) {
				newRow[newIdx] = row[oldIdx]
			}
		}
		rows[r] = newRow
	}

	return &domain.Table{
		Name:        table.Name,
		Source:      table.Source,
		Columns:     columns,
		Rows:        rows,
		RowCount:    table.RowCount,
		ColumnCount: len(columns),
		Fingerprint: table.Fingerprint,
		LoadedAt:    table.LoadedAt,
	}
}
