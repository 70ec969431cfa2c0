// Package csvio encodes records into CSV sheets and applies sheet rows back
// onto host records.
//
// The sheet format is line oriented: a header line, then one line per
// record. Every line starts with three metadata cells (type name, instance
// ID, path) followed by one cell per exported field, and every cell is
// terminated by a comma. String cells are wrapped in double quotes with no
// further escaping, so a string holding a quote cannot round-trip.
package csvio

import "strings"

// Metadata columns preceding the field cells.
const (
	ColClass      = 0
	ColInstanceID = 1
	ColPath       = 2
	MetaColumns   = 3
)

// SplitLine splits a line on commas that are not inside a double-quoted
// span. Quotes are kept in the returned pieces. A line ending in a comma
// yields a trailing empty piece.
func SplitLine(line string) []string {
	var pieces []string
	inQuote := false
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				pieces = append(pieces, line[start:i])
				start = i + 1
			}
		}
	}
	return append(pieces, line[start:])
}

// Cells splits a line into its cells, dropping the empty piece left by the
// terminating comma.
func Cells(line string) []string {
	pieces := SplitLine(line)
	if n := len(pieces); n > 1 && pieces[n-1] == "" {
		pieces = pieces[:n-1]
	}
	return pieces
}

// splitLines breaks a document into lines, accepting both \n and \r\n and
// dropping a leading byte-order mark.
func splitLines(data []byte) []string {
	text := strings.TrimPrefix(string(data), "\ufeff")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
