// Package registry holds the ordered set of known statement layouts and
// selects the right extraction adapter for a document. Descriptors are
// evaluated in registration order and the first match wins, so specific bank
// matchers must be registered before the generic fallback. The registry is
// built once at startup and never mutated afterwards.
package registry

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/extract"
)

// Descriptor identifies one known statement layout: a predicate over the raw
// document plus the extractor implementing it and the normalization hints the
// layout requires.
type Descriptor struct {
	Name        string
	Institution string
	Currency    string   // per-layout currency, falls back to config default when empty
	DateFormats []string // candidate layouts in adapter-declared priority order
	InvertSign  bool     // statement renders charges positive (credit-card convention)
	Boilerplate []*regexp.Regexp
	Match       func(doc *statement.RawDocument) bool
	Extractor   extract.Extractor
}

// Registry is the ordered descriptor set searched by Detect.
type Registry struct {
	descriptors []Descriptor
}

// New builds a registry from descriptors in priority order.
func New(descriptors ...Descriptor) *Registry {
	return &Registry{descriptors: descriptors}
}

// Descriptors returns the registered descriptors in order.
func (r *Registry) Descriptors() []Descriptor { return r.descriptors }

// Detect returns the first descriptor whose predicate matches. It fails only
// for structurally empty documents, since the fallback matches everything.
func (r *Registry) Detect(doc *statement.RawDocument) (*Descriptor, error) {
	if doc.Empty() {
		return nil, &statement.UnrecognizedFormatError{Path: doc.Source.Path}
	}
	for i := range r.descriptors {
		if r.descriptors[i].Match(doc) {
			return &r.descriptors[i], nil
		}
	}
	return nil, &statement.UnrecognizedFormatError{Path: doc.Source.Path}
}

// Default returns the built-in registry: HSBC, NAB, BOM, then the generic
// fallback.
func Default() *Registry {
	return New(
		Descriptor{
			Name:        "hsbc-cc-pdf",
			Institution: "HSBC",
			Currency:    "AUD",
			DateFormats: []string{"02/01/06"},
			InvertSign:  true,
			Match: func(doc *statement.RawDocument) bool {
				if hintMatches(doc.Source.Institution, "hsbc") {
					return true
				}
				return isPDF(doc.Source.Path) && hasBalanceMarker(doc)
			},
			Extractor: extract.HSBC{},
		},
		Descriptor{
			Name:        "nab-cc",
			Institution: "NAB",
			Currency:    "AUD",
			DateFormats: []string{"02 Jan 06"},
			Match: func(doc *statement.RawDocument) bool {
				if hintMatches(doc.Source.Institution, "nab") {
					return true
				}
				return anyHeader(doc, extract.NAB{}.MatchesHeader)
			},
			Extractor: extract.NAB{},
		},
		Descriptor{
			Name:        "bom-account",
			Institution: "BOM",
			Currency:    "AUD",
			DateFormats: []string{"02/01/2006"},
			Match: func(doc *statement.RawDocument) bool {
				if hintMatches(doc.Source.Institution, "bom", "bank of melbourne") {
					return true
				}
				return anyHeader(doc, extract.BOM{}.MatchesHeader)
			},
			Extractor: extract.BOM{},
		},
		Descriptor{
			Name: "generic",
			DateFormats: []string{
				"2006-01-02",
				"02/01/2006",
				"01/02/2006",
				"2006/01/02",
				"02-01-2006",
				"02.01.2006",
				"02 Jan 2006",
				"02 Jan 06",
			},
			Match:     func(*statement.RawDocument) bool { return true },
			Extractor: extract.Generic{},
		},
	)
}

// hintMatches compares the caller-supplied institution hint against the
// descriptor's known names, tolerating spacing and case differences.
func hintMatches(hint string, names ...string) bool {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return false
	}
	for _, name := range names {
		if fuzzy.MatchNormalizedFold(name, hint) || fuzzy.MatchNormalizedFold(hint, name) {
			return true
		}
	}
	return false
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// hasBalanceMarker looks for the opening/closing balance lines HSBC prints
// on every credit-card statement.
func hasBalanceMarker(doc *statement.RawDocument) bool {
	for _, row := range doc.Rows {
		for _, c := range row {
			c = strings.TrimSpace(c)
			if c == "OPENING BALANCE" || c == "CLOSING BALANCE" {
				return true
			}
		}
	}
	return false
}

// anyHeader runs a header predicate over the first rows of the document.
func anyHeader(doc *statement.RawDocument, match func([]string) bool) bool {
	for i, row := range doc.Rows {
		if i > 20 {
			break
		}
		if match(row) {
			return true
		}
	}
	return false
}
