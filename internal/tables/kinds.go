package tables

import (
	"strconv"
	"strings"
	"time"

	"loglens/pkg/contracts/domain"
)

// timeLayouts are the timestamp formats seen in log exports
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// inferKind classifies a column by its non-blank values. A kind wins only
// when every non-blank value parses as it; mixed columns stay text.
func inferKind(values []string) domain.ColumnKind {
	numeric, boolean, timestamp := true, true, true
	seen := 0

	for _, v := range values {
		if IsBlank(v) {
			continue
		}
		seen++
		trimmed := strings.TrimSpace(v)

		if numeric {
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				numeric = false
			}
		}
		if boolean && !isBoolToken(trimmed) {
			boolean = false
		}
		if timestamp && !isTimestamp(trimmed) {
			timestamp = false
		}
		if !numeric && !boolean && !timestamp {
			return domain.ColumnKindText
		}
	}

	switch {
	case seen == 0:
		return domain.ColumnKindEmpty
	case boolean:
		return domain.ColumnKindBool
	case numeric:
		return domain.ColumnKindNumeric
	case timestamp:
		return domain.ColumnKindTime
	default:
		return domain.ColumnKindText
	}
}

func isBoolToken(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	}
	return false
}

func isTimestamp(v string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
