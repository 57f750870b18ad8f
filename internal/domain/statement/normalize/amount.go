package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currency markers stripped before numeric parsing; longer symbols first so
// "A$" is not half-consumed by "$"
var currencyMarkers = []string{"A$", "NZ$", "R$", "AUD", "USD", "EUR", "GBP", "$", "€", "£", "¥"}

// ParseAmount converts a statement amount string into an exact decimal.
// It strips currency symbols and thousands separators and honours the three
// negative renderings found in bank exports: leading minus, parenthesised
// value, and suffixed minus. Values that do not reduce to a single numeric
// token are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	negative := false

	// (123.45) accounting style
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	// 123.45- suffixed minus
	if rest, ok := strings.CutSuffix(s, "-"); ok {
		negative = true
		s = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		if negative {
			return decimal.Zero, errors.New("conflicting negative markers")
		}
		negative = true
		s = strings.TrimSpace(rest)
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)

	// leading minus may have been hidden behind a currency symbol ($-12.34)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		if negative {
			return decimal.Zero, errors.New("conflicting negative markers")
		}
		negative = true
		s = strings.TrimSpace(rest)
	}

	if s == "" || strings.ContainsAny(s, " \t") {
		return decimal.Zero, errors.New("amount is not a single numeric token")
	}

	s = normalizeSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators reduces thousands/decimal separator variants to a
// plain dot-decimal string. When both separators appear, the rightmost one
// is the decimal point; a lone comma followed by at most two digits is read
// as a European decimal comma.
func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		idx := strings.LastIndex(s, ",")
		if len(s)-idx-1 <= 2 && strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}
