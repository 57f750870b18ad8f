package extract

import (
	"strings"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// NAB extracts transactions from NAB credit-card exports. The layout carries
// a header row with "Date", "Amount", "Merchant Name" and "Transaction
// Details" columns; merchant name and details together form the description.
type NAB struct{}

// MatchesHeader reports whether a header row looks like a NAB export.
func (NAB) MatchesHeader(header []string) bool {
	return headerIndex(header, "Merchant Name") >= 0 &&
		headerIndex(header, "Transaction Details") >= 0
}

func (n NAB) Extract(doc *statement.RawDocument) Rows {
	return func(yield func(statement.RawFields, *statement.RowExtractionError) bool) {
		headerAt := -1
		var dateCol, amountCol, merchantCol, detailsCol, balanceCol int

		for i, row := range doc.Rows {
			if n.MatchesHeader(row) {
				headerAt = i
				dateCol = headerIndex(row, "Date")
				amountCol = headerIndex(row, "Amount")
				merchantCol = headerIndex(row, "Merchant Name")
				detailsCol = headerIndex(row, "Transaction Details")
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

			date := cell(row, dateCol)
			amount := cell(row, amountCol)
			if date == "" || amount == "" {
				if !yield(statement.RawFields{Row: i}, &statement.RowExtractionError{
					Row:     i,
					Message: "row is missing date or amount",
					Raw:     strings.Join(row, ","),
				}) {
					return
				}
				continue
			}

			if !yield(statement.RawFields{
				Date:        date,
				Amount:      amount,
				Description: joinFields(cell(row, merchantCol), cell(row, detailsCol)),
				Balance:     cell(row, balanceCol),
				Row:         i,
			}, nil) {
				return
			}
		}
	}
}
