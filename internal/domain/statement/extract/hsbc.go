package extract

import (
	"strings"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// hsbcDateLayout matches the dd/mm/yy dates on HSBC credit-card statements.
const hsbcDateLayout = "02/01/06"

// HSBC extracts transactions from HSBC credit-card PDF statements.
//
// Statement rows arrive as 3 or 4 text cells: date, optional card number,
// description, amount. Fee lines are printed as two cells (description,
// amount) below the transaction that incurred them and inherit its date.
// Opening/closing balance lines and page furniture are skipped.
type HSBC struct{}

func (HSBC) Extract(doc *statement.RawDocument) Rows {
	return func(yield func(statement.RawFields, *statement.RowExtractionError) bool) {
		var lastDate string
		for i, raw := range doc.Rows {
			cells := trimmed(raw)

			// fee line appended to the preceding transaction
			if len(cells) == 2 && strings.Contains(strings.ToLower(cells[0]), "fee") && lastDate != "" {
				if !yield(statement.RawFields{
					Date:        lastDate,
					Amount:      cells[1],
					Description: cells[0],
					Row:         i,
				}, nil) {
					return
				}
				continue
			}

			if len(cells) != 3 && len(cells) != 4 {
				// a date-led row with the wrong shape is a broken
				// transaction, anything else is page furniture
				if len(cells) > 0 && isHSBCDate(cells[0]) {
					if !yield(statement.RawFields{Row: i}, &statement.RowExtractionError{
						Row:     i,
						Message: "unexpected cell count for transaction row",
						Raw:     strings.Join(cells, " | "),
					}) {
						return
					}
				}
				continue
			}

			// rows without a card number lack the second cell
			if len(cells) == 3 {
				cells = []string{cells[0], "", cells[1], cells[2]}
			}

			switch cells[2] {
			case "OPENING BALANCE", "CLOSING BALANCE":
				continue
			}

			if !isHSBCDate(cells[0]) {
				continue
			}
			lastDate = cells[0]

			if !yield(statement.RawFields{
				Date:        cells[0],
				Amount:      cells[3],
				Description: cells[2],
				Row:         i,
			}, nil) {
				return
			}
		}
	}
}

func isHSBCDate(s string) bool {
	_, err := time.Parse(hsbcDateLayout, s)
	return err == nil
}
