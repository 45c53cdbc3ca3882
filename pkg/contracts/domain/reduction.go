package domain

// DropReason names the heuristic that removed a column
type DropReason string

const (
	DropReasonListed    DropReason = "listed"
	DropReasonInvariant DropReason = "invariant"
	DropReasonNameMatch DropReason = "name_match"
	DropReasonDuplicate DropReason = "duplicate"
	DropReasonEntropy   DropReason = "entropy"
)

// DroppedColumn records one removed column and why
type DroppedColumn struct {
	Name    string     `json:"name"`
	Reason  DropReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
	Entropy float64    `json:"entropy,omitempty"`
}

// ReductionReport summarizes a column-reduction pass over one table
type ReductionReport struct {
	Table           string          `json:"table"`
	OriginalColumns int             `json:"original_columns"`
	KeptColumns     int             `json:"kept_columns"`
	Dropped         []DroppedColumn `json:"dropped"`
}

// DroppedBy returns the names of columns removed by one heuristic
func (r *ReductionReport) DroppedBy(reason DropReason) []string {
	var names []string
	for _, d := range r.Dropped {
		if d.Reason == reason {
			names = append(names, d.Name)
		}
	}
	return names
}
