// Package strings holds text helpers shared by the output layers.
package strings

import (
	"strings"
)

// DefaultCellMaxLen is the widest value shown in a table cell.
const DefaultCellMaxLen = 100

// MinTruncateLen is the smallest maxLen Truncate honours; it leaves room
// for one character plus "...".
const MinTruncateLen = 4

// Truncate flattens s to one line, collapsing runs of whitespace, and cuts
// it to at most maxLen runes ending in "...". Smaller maxLen values are
// raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
