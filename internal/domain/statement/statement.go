// Package statement defines the canonical data model shared by every stage
// of the import pipeline: the raw document produced by the reader, the
// loosely-typed row fields produced by the extractors, and the final
// Transaction record.
package statement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies where a document came from.
type Source struct {
	Path        string // original file path
	Institution string // issuing institution hint, may be empty
	Sheet       string // sheet name for spreadsheet containers, may be empty
}

// RawDocument is the decoded content of one source file: an ordered list of
// rows, each an ordered list of string cells. It is immutable once produced
// by the reader.
type RawDocument struct {
	Source Source
	Rows   [][]string
}

// Empty reports whether the document contains no non-blank cell.
func (d *RawDocument) Empty() bool {
	for _, row := range d.Rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return false
			}
		}
	}
	return true
}

// RawFields is one row's extracted values before type coercion.
// Row refers back to the originating row index for error reporting.
type RawFields struct {
	Date        string
	Amount      string
	Description string
	Balance     string // optional running balance, may be empty
	Row         int
}

// Transaction is the canonical record produced by the normalizer.
// Transactions are never mutated after creation; corrections produce a new
// record.
type Transaction struct {
	Date        time.Time // UTC midnight, day-granular
	Amount      decimal.Decimal
	Currency    string
	Description string
	SourceFile  string
	SourceRow   int
	IdentityKey string
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s %q", t.Date.Format(time.DateOnly), t.Amount, t.Currency, t.Description)
}

// FoldDescription lowercases and whitespace-collapses a description for use
// in identity hashing. It never truncates.
func FoldDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// IdentityKey derives the deterministic duplicate-detection key for a
// transaction. Occurrence is the 0-based index of this (date, amount,
// description) tuple within its source file, so legitimate repeat purchases
// inside one statement keep distinct keys while re-imports of an overlapping
// export from the same institution collapse.
func IdentityKey(date time.Time, amount decimal.Decimal, currency, description, institution string, occurrence int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d",
		date.Format(time.DateOnly),
		amount.String(),
		currency,
		FoldDescription(description),
		strings.ToLower(institution),
		occurrence,
	)
	return hex.EncodeToString(h.Sum(nil))
}
