package extract

import (
	"strings"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Header keywords recognised by the generic adapter, multi-language.
var (
	dateKeywords    = []string{"date", "data", "fecha", "datum"}
	descKeywords    = []string{"description", "descrição", "descricao", "descripción", "descripcion", "merchant", "payee", "details", "memo", "narrative"}
	amountKeywords  = []string{"amount", "valor", "importe", "value", "montant"}
	debitKeywords   = []string{"debit", "débito", "debito", "cargo", "withdrawal"}
	creditKeywords  = []string{"credit", "crédito", "credito", "abono", "deposit"}
	balanceKeywords = []string{"balance", "saldo"}
)

// Generic is the tolerant fallback adapter. It maps columns by header
// keywords and falls back to column positions when no header is found, so it
// matches any non-empty document. It must be registered last.
type Generic struct{}

type genericColumns struct {
	date, desc, amount, debit, credit, balance int
}

func (Generic) Extract(doc *statement.RawDocument) Rows {
	return func(yield func(statement.RawFields, *statement.RowExtractionError) bool) {
		headerAt, cols := mapGenericColumns(doc.Rows)

		for i := headerAt + 1; i < len(doc.Rows); i++ {
			row := doc.Rows[i]
			if blankRow(row) {
				continue
			}

			date := cell(row, cols.date)
			if date == "" {
				// summary and footer rows have no date
				continue
			}

			var amount string
			switch {
			case cols.amount >= 0 && cell(row, cols.amount) != "":
				amount = cell(row, cols.amount)
			case cols.debit >= 0 && cell(row, cols.debit) != "":
				amount = negate(cell(row, cols.debit))
			case cols.credit >= 0 && cell(row, cols.credit) != "":
				amount = cell(row, cols.credit)
			default:
				if !yield(statement.RawFields{Row: i}, &statement.RowExtractionError{
					Row:     i,
					Message: "no amount value in row",
					Raw:     strings.Join(row, ","),
				}) {
					return
				}
				continue
			}

			if !yield(statement.RawFields{
				Date:        date,
				Amount:      amount,
				Description: cell(row, cols.desc),
				Balance:     cell(row, cols.balance),
				Row:         i,
			}, nil) {
				return
			}
		}
	}
}

// mapGenericColumns scans the first rows for a header with recognisable
// keywords. Without one it assumes date, description, amount positions.
func mapGenericColumns(rows [][]string) (headerAt int, cols genericColumns) {
	for i, row := range rows {
		if i > 20 {
			break
		}
		c := genericColumns{date: -1, desc: -1, amount: -1, debit: -1, credit: -1, balance: -1}
		matches := 0
		for j, h := range row {
			h = strings.ToLower(strings.TrimSpace(h))
			if h == "" {
				continue
			}
			switch {
			case c.date < 0 && containsAny(h, dateKeywords):
				c.date = j
				matches++
			case c.desc < 0 && containsAny(h, descKeywords):
				c.desc = j
				matches++
			case c.debit < 0 && containsAny(h, debitKeywords):
				c.debit = j
				matches++
			case c.credit < 0 && containsAny(h, creditKeywords):
				c.credit = j
				matches++
			case c.amount < 0 && containsAny(h, amountKeywords):
				c.amount = j
				matches++
			case c.balance < 0 && containsAny(h, balanceKeywords):
				c.balance = j
				matches++
			}
		}
		if c.date >= 0 && matches >= 2 {
			return i, c
		}
	}

	// positional fallback: date, description, amount
	return -1, genericColumns{date: 0, desc: 1, amount: 2, debit: -1, credit: -1, balance: -1}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
