package exporter

import (
	"strconv"

	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// formatFloat renders a float cell at full round-trip precision. The
// missing sentinel becomes an empty cell, never a literal NaN.
func formatFloat(f float64) string {
	if domain.IsMissing(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatInt renders an integer cell.
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool renders a boolean cell.
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// countCell renders an optional count, with zero meaning not
// applicable (a one-sample test has no second sample).
func countCell(n int) string {
	if n == 0 {
		return ""
	}
	return formatInt(int64(n))
}

// cellValue converts a float for a workbook cell, mapping the missing
// sentinel to an empty cell.
func cellValue(v float64) interface{} {
	if domain.IsMissing(v) {
		return ""
	}
	return v
}
