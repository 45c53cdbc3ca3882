package exporter

import "strconv"

// formatFloat formats a float64 with two decimal places
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatScore formats an anomaly score with four decimal places
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// formatRatio formats a 0..1 ratio as a percentage with one decimal place
func formatRatio(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

// formatInt formats an int value
func formatInt(v int) string {
	return strconv.Itoa(v)
}

// formatBool formats a boolean as "true" or "false"
func formatBool(v bool) string {
	return strconv.FormatBool(v)
}
