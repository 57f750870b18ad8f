package extract

import (
	"strings"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// BOM extracts transactions from Bank of Melbourne account exports. The
// layout has "Date", "Description" and separate "Debit"/"Credit" columns;
// debits are spent money and become negative amounts.
type BOM struct{}

// MatchesHeader reports whether a header row looks like a BOM export.
func (BOM) MatchesHeader(header []string) bool {
	return headerIndex(header, "Date") >= 0 &&
		headerIndex(header, "Description") >= 0 &&
		headerIndex(header, "Debit") >= 0 &&
		headerIndex(header, "Credit") >= 0
}

func (b BOM) Extract(doc *statement.RawDocument) Rows {
	return func(yield func(statement.RawFields, *statement.RowExtractionError) bool) {
		headerAt := -1
		var dateCol, descCol, debitCol, creditCol, balanceCol int

		for i, row := range doc.Rows {
			if b.MatchesHeader(row) {
				headerAt = i
				dateCol = headerIndex(row, "Date")
				descCol = headerIndex(row, "Description")
				debitCol = headerIndex(row, "Debit")
				creditCol = headerIndex(row, "Credit")
				balanceCol = headerIndex(row, "Balance")
				break
			}
		}
		if headerAt < 0 {
			return
		}

		for i := headerAt + 1; i < len(doc.Rows); i++ {
			row := doc.Rows[i]
			if blankRow(row) {
				continue
			}

			debit := cell(row, debitCol)
			credit := cell(row, creditCol)

			var amount string
			switch {
			case debit != "" && credit != "":
				if !yield(statement.RawFields{Row: i}, &statement.RowExtractionError{
					Row:     i,
					Message: "row has both debit and credit set",
					Raw:     strings.Join(row, ","),
				}) {
					return
				}
				continue
			case debit != "":
				amount = negate(debit)
			case credit != "":
				amount = credit
			default:
				if !yield(statement.RawFields{Row: i}, &statement.RowExtractionError{
					Row:     i,
					Message: "row has neither debit nor credit",
					Raw:     strings.Join(row, ","),
				}) {
					return
				}
				continue
			}

			if !yield(statement.RawFields{
				Date:        cell(row, dateCol),
				Amount:      amount,
				Description: cell(row, descCol),
				Balance:     cell(row, balanceCol),
				Row:         i,
			}, nil) {
				return
			}
		}
	}
}
