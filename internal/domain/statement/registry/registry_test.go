package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement/extract"
)

func TestDetectFirstMatchWins(t *testing.T) {
	doc := &statement.RawDocument{Rows: [][]string{{"x"}}}

	reg := New(
		Descriptor{Name: "first", Match: func(*statement.RawDocument) bool { return true }, Extractor: extract.Generic{}},
		Descriptor{Name: "second", Match: func(*statement.RawDocument) bool { return true }, Extractor: extract.Generic{}},
	)

	desc, err := reg.Detect(doc)
	require.NoError(t, err)
	assert.Equal(t, "first", desc.Name)
}

func TestDetectEmptyDocument(t *testing.T) {
	reg := Default()
	doc := &statement.RawDocument{
		Source: statement.Source{Path: "empty.csv"},
		Rows:   [][]string{{"", " "}, {}},
	}

	_, err := reg.Detect(doc)
	var formatErr *statement.UnrecognizedFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "empty.csv", formatErr.Path)
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()

	t.Run("hsbc matches balance markers in a pdf", func(t *testing.T) {
		doc := &statement.RawDocument{
			Source: statement.Source{Path: "march.pdf"},
			Rows: [][]string{
				{"01/03/24", "", "OPENING BALANCE", "10.00"},
			},
		}
		desc, err := reg.Detect(doc)
		require.NoError(t, err)
		assert.Equal(t, "hsbc-cc-pdf", desc.Name)
		assert.True(t, desc.InvertSign)
	})

	t.Run("hsbc matches the institution hint", func(t *testing.T) {
		doc := &statement.RawDocument{
			Source: statement.Source{Path: "x.csv", Institution: "HSBC"},
			Rows:   [][]string{{"something"}},
		}
		desc, err := reg.Detect(doc)
		require.NoError(t, err)
		assert.Equal(t, "hsbc-cc-pdf", desc.Name)
	})

	t.Run("nab matches its header", func(t *testing.T) {
		doc := &statement.RawDocument{
			Source: statement.Source{Path: "nab.csv"},
			Rows: [][]string{
				{"Date", "Amount", "Account Number", "", "Transaction Type", "Transaction Details", "Balance", "Category", "Merchant Name"},
			},
		}
		desc, err := reg.Detect(doc)
		require.NoError(t, err)
		assert.Equal(t, "nab-cc", desc.Name)
	})

	t.Run("bom matches its header", func(t *testing.T) {
		doc := &statement.RawDocument{
			Source: statement.Source{Path: "bom.csv"},
			Rows: [][]string{
				{"Date", "Description", "Debit", "Credit", "Balance"},
			},
		}
		desc, err := reg.Detect(doc)
		require.NoError(t, err)
		assert.Equal(t, "bom-account", desc.Name)
	})

	t.Run("generic is the fallback", func(t *testing.T) {
		doc := &statement.RawDocument{
			Source: statement.Source{Path: "mystery.csv"},
			Rows: [][]string{
				{"when", "what", "how much"},
				{"2024-01-01", "thing", "1.00"},
			},
		}
		desc, err := reg.Detect(doc)
		require.NoError(t, err)
		assert.Equal(t, "generic", desc.Name)
	})
}
