package export

import (
	"context"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// csvRow is the flat record shape written by the CSV exporter.
type csvRow struct {
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Description string `csv:"description"`
	SourceFile  string `csv:"source_file"`
	SourceRow   int    `csv:"source_row"`
	IdentityKey string `csv:"identity_key"`
}

// CSV writes a batch as a plain CSV file.
type CSV struct{}

// Export writes the CSV to target, overwriting any existing file.
func (CSV) Export(ctx context.Context, target string, txs []statement.Transaction) error {
	if err := ctx.Err(); err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}

	rows := make([]csvRow, len(txs))
	for i, tx := range txs {
		rows[i] = csvRow{
			Date:        tx.Date.Format(time.DateOnly),
			Amount:      tx.Amount.String(),
			Currency:    tx.Currency,
			Description: tx.Description,
			SourceFile:  tx.SourceFile,
			SourceRow:   tx.SourceRow,
			IdentityKey: tx.IdentityKey,
		}
	}

	f, err := os.Create(target)
	if err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}
	return nil
}
