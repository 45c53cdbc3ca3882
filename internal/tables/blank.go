package tables

import "strings"

// blankTokens are cell values treated as missing data in addition to the
// empty string. Log exports from different backends disagree on how they
// spell "no value"; these cover the forms seen in practice.
var blankTokens = map[string]struct{}{
	"nan":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// IsBlank reports whether a cell carries no data. Whitespace-only cells
// and the common missing-value tokens count as blank.
func IsBlank(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return true
	}
	_, ok := blankTokens[strings.ToLower(trimmed)]
	return ok
}

// NonBlankCount returns the number of populated values in the slice
func NonBlankCount(values []string) int {
	count := 0
	for _, v := range values {
		if !IsBlank(v) {
			count++
		}
	}
	return count
}
