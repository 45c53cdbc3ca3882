// Package signature computes per-row data signatures: the binary vector
// marking which columns of a row are populated. Rows sharing a signature
// are censused together, and rare signatures point at rows whose shape
// differs from the rest of the table.
package signature

import (
	"sort"
	"strings"
	"time"

	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// Binarize renders each row as a bitstring in column order: 0 where the
// cell is blank, 1 where it carries data.
func Binarize(table *domain.Table) []string {
	sigs := make([]string, table.RowCount)
	var b strings.Builder
	for r, row := range table.Rows {
		b.Reset()
		for i := 0; i < table.ColumnCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if tables.IsBlank(cell) {
				b.WriteByte('0')
			} else {
				b.WriteByte('1')
			}
		}
		sigs[r] = b.String()
	}
	return sigs
}

// Compute builds the signature census for a table: for every signature,
// the row count, which features are present and missing, and per present
// feature the census of values it takes within rows of that signature.
// Summaries are ordered by descending count so the dominant row shapes
// come first.
func Compute(table *domain.Table) *domain.SignatureSet {
	names := table.ColumnNames()
	sigs := Binarize(table)

	bySig := make(map[string]*domain.SignatureSummary)
	for r, sig := range sigs {
		summary, ok := bySig[sig]
		if !ok {
			present, missing := splitFeatures(sig, names)
			values := make(map[string]map[string]int, len(present))
			for _, feature := range present {
				values[feature] = make(map[string]int)
			}
			summary = &domain.SignatureSummary{
				Signature:       sig,
				PresentFeatures: present,
				MissingFeatures: missing,
				FeatureValues:   values,
			}
			bySig[sig] = summary
		}

		summary.Count++
		row := table.Rows[r]
		for i, feature := range names {
			if sig[i] != '1' {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			summary.FeatureValues[feature][value]++
		}
	}

	summaries := make([]domain.SignatureSummary, 0, len(bySig))
	for _, summary := range bySig {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Signature < summaries[j].Signature
	})

	return &domain.SignatureSet{
		Table:       table.Name,
		RowCount:    table.RowCount,
		ColumnNames: names,
		Summaries:   summaries,
		GeneratedAt: time.Now(),
	}
}

// UniqueValue is a feature whose value census within a signature is at
// or under the uniqueness threshold: a candidate rare event.
type UniqueValue struct {
	Signature string `json:"signature"`
	Feature   string `json:"feature"`
	Value     string `json:"value"`
	// TableUnique marks values appearing in exactly one signature across
	// the whole table.
	TableUnique bool `json:"table_unique"`
}

// FindUnique mines each signature for features taking at most threshold
// distinct values, and flags those unique across the entire set.
// Thresholds below 1 are raised to 1.
func FindUnique(set *domain.SignatureSet, threshold int) []UniqueValue {
	if threshold < 1 {
		threshold = 1
	}

	type valueKey struct{ feature, value string }
	occurrences := make(map[valueKey]int)
	var found []UniqueValue

	for _, summary := range set.Summaries {
		for _, feature := range summary.PresentFeatures {
			values := summary.FeatureValues[feature]
			if len(values) > threshold {
				continue
			}
			for value := range values {
				occurrences[valueKey{feature, value}]++
				found = append(found, UniqueValue{
					Signature: summary.Signature,
					Feature:   feature,
					Value:     value,
				})
			}
		}
	}

	for i := range found {
		found[i].TableUnique = occurrences[valueKey{found[i].Feature, found[i].Value}] == 1
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Signature != found[j].Signature {
			return found[i].Signature < found[j].Signature
		}
		if found[i].Feature != found[j].Feature {
			return found[i].Feature < found[j].Feature
		}
		return found[i].Value < found[j].Value
	})
	return found
}

// Rows returns the indices of rows carrying the given signature
func Rows(table *domain.Table, sig string) []int {
	var indices []int
	for r, rowSig := range Binarize(table) {
		if rowSig == sig {
			indices = append(indices, r)
		}
	}
	return indices
}

// splitFeatures partitions column names by signature bit
func splitFeatures(sig string, names []string) (present, missing []string) {
	for i, name := range names {
		if i < len(sig) && sig[i] == '1' {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}
	return present, missing
}
