// Package extract holds the per-institution field extractors. Each adapter
// owns the column mapping and skip rules for exactly one statement layout and
// produces loosely-typed RawFields; all type coercion happens later in the
// normalizer. Adapters share no mutable state.
package extract

import (
	"iter"
	"strings"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Rows is a restartable, finite lazy sequence of extracted rows. Ranging over
// it again re-reads the document from the start.
type Rows = iter.Seq2[statement.RawFields, *statement.RowExtractionError]

// Extractor turns a raw document into a lazy sequence of transaction rows.
// Header, footer and blank rows are filtered per adapter-specific rules.
type Extractor interface {
	Extract(doc *statement.RawDocument) Rows
}

// cell returns the trimmed cell at index i, or "" when out of range.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// blankRow reports whether every cell is empty or whitespace.
func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// trimmed returns the row with cells trimmed and empty cells dropped.
func trimmed(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// negate flips the textual sign of an amount string without parsing it.
func negate(amount string) string {
	if rest, ok := strings.CutPrefix(amount, "-"); ok {
		return rest
	}
	return "-" + amount
}

// headerIndex finds the index of the first header cell equal to any of the
// names, case-insensitively. Returns -1 when absent.
func headerIndex(header []string, names ...string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// joinFields concatenates non-empty parts with single spaces.
func joinFields(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
