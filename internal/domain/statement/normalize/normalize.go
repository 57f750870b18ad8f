// Package normalize converts loosely-typed row fields into canonical
// Transaction records: it parses dates against adapter-declared format
// orders, coerces amounts into exact decimals, cleans descriptions and
// assigns the deterministic identity key used for de-duplication.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Options configures a Normalizer for one document.
type Options struct {
	// DateFormats are tried in order; the first layout that parses and
	// yields a plausible calendar date wins. Order matters for ambiguous
	// strings like 03/04/2024 and is owned by the adapter, never global.
	DateFormats []string

	// Currency applied when a row carries no currency of its own.
	DefaultCurrency string

	// InvertSign flips parsed amounts, for statements that render charges
	// as positive values.
	InvertSign bool

	// Boilerplate patterns are stripped from descriptions before
	// whitespace collapsing.
	Boilerplate []*regexp.Regexp

	// Institution feeds the identity key so overlapping exports from the
	// same issuer collapse while other issuers' rows never do.
	Institution string

	// EarliestDate rejects parses that land implausibly far in the past.
	EarliestDate time.Time

	// FutureTolerance allows statement dates slightly past now, covering
	// pending transactions and timezone skew.
	FutureTolerance time.Duration

	// Now is injectable for tests. Defaults to time.Now. It is used only
	// to bound plausibility checks, never to infer a transaction date.
	Now func() time.Time
}

// Normalizer converts RawFields into Transactions. One Normalizer serves one
// document: it carries the per-file occurrence counter that keeps legitimate
// within-file duplicates distinct.
type Normalizer struct {
	opts Options
	seen map[string]int
}

// New returns a Normalizer for a single document.
func New(opts Options) *Normalizer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.DateFormats) == 0 {
		opts.DateFormats = []string{time.DateOnly}
	}
	return &Normalizer{opts: opts, seen: make(map[string]int)}
}

// Normalize converts one row. On failure it names the offending field and
// the raw value; the caller records the error and moves on.
func (n *Normalizer) Normalize(fields statement.RawFields, src statement.Source) (*statement.Transaction, *statement.NormalizationError) {
	date, err := n.parseDate(fields.Date)
	if err != nil {
		return nil, &statement.NormalizationError{
			Row: fields.Row, Field: "date", Value: fields.Date, Message: err.Error(),
		}
	}

	amount, err := ParseAmount(fields.Amount)
	if err != nil {
		return nil, &statement.NormalizationError{
			Row: fields.Row, Field: "amount", Value: fields.Amount, Message: err.Error(),
		}
	}
	if n.opts.InvertSign {
		amount = amount.Neg()
	}
	if amount.IsZero() {
		return nil, &statement.NormalizationError{
			Row: fields.Row, Field: "amount", Value: fields.Amount, Message: "zero amount",
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(n.opts.DefaultCurrency))
	if money.GetCurrency(currency) == nil {
		return nil, &statement.NormalizationError{
			Row: fields.Row, Field: "currency", Value: currency, Message: "unknown currency code",
		}
	}

	desc := n.cleanDescription(fields.Description)
	if desc == "" {
		return nil, &statement.NormalizationError{
			Row: fields.Row, Field: "description", Value: fields.Description, Message: "empty description",
		}
	}

	occurrence := n.occurrence(date, amount, currency, desc)

	return &statement.Transaction{
		Date:        date,
		Amount:      amount,
		Currency:    currency,
		Description: desc,
		SourceFile:  src.Path,
		SourceRow:   fields.Row,
		IdentityKey: statement.IdentityKey(date, amount, currency, desc, n.opts.Institution, occurrence),
	}, nil
}

// occurrence counts repeats of the same logical transaction within this
// document, in row order, so the identity key stays reproducible across
// re-parses of the same bytes.
func (n *Normalizer) occurrence(date time.Time, amount decimal.Decimal, currency, desc string) int {
	base := date.Format(time.DateOnly) + "|" + amount.String() + "|" + currency + "|" + statement.FoldDescription(desc)
	occ := n.seen[base]
	n.seen[base] = occ + 1
	return occ
}

// cleanDescription strips adapter boilerplate and collapses whitespace. It
// never truncates information needed for de-duplication.
func (n *Normalizer) cleanDescription(s string) string {
	for _, pat := range n.opts.Boilerplate {
		s = pat.ReplaceAllString(s, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}
