package domain

import (
	"time"
)

// SignatureSummary aggregates every row sharing one data signature: the
// binary vector marking which columns were populated. Signature is the
// vector rendered as a bitstring in column order ("1011...").
type SignatureSummary struct {
	Signature       string                    `json:"signature"`
	Count           int                       `json:"count"`
	PresentFeatures []string                  `json:"present_features"`
	MissingFeatures []string                  `json:"missing_features"`
	FeatureValues   map[string]map[string]int `json:"feature_values,omitempty"`
}

// SignatureSet is the full signature census for one table
type SignatureSet struct {
	Table       string             `json:"table"`
	RowCount    int                `json:"row_count"`
	ColumnNames []string           `json:"column_names"`
	Summaries   []SignatureSummary `json:"summaries"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Summary returns the summary for a signature bitstring, or nil
func (s *SignatureSet) Summary(sig string) *SignatureSummary {
	for i := range s.Summaries {
		if s.Summaries[i].Signature == sig {
			return &s.Summaries[i]
		}
	}
	return nil
}

// UniqueSignatures returns summaries whose row count does not exceed
// threshold. These are the rare row shapes worth a closer look.
func (s *SignatureSet) UniqueSignatures(threshold int) []SignatureSummary {
	if threshold < 1 {
		threshold = 1
	}
	var rare []SignatureSummary
	for _, sum := range s.Summaries {
		if sum.Count <= threshold {
			rare = append(rare, sum)
		}
	}
	return rare
}
