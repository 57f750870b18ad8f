package export

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Workbook writes a batch into a local XLSX workbook, one transaction per
// row with a header row. Statement amounts are two-decimal values, so the
// float conversion is exact for the magnitudes involved.
type Workbook struct {
	Sheet string // sheet name, defaults to "transactions"
}

func (w Workbook) sheetName() string {
	if w.Sheet != "" {
		return w.Sheet
	}
	return "transactions"
}

// Export writes the workbook to target, overwriting any existing file.
func (w Workbook) Export(ctx context.Context, target string, txs []statement.Transaction) error {
	if err := ctx.Err(); err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := w.sheetName()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}

	for i, tx := range txs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return &statement.ExportError{Target: target, Err: err}
		}
		row := []interface{}{
			tx.Date.Format(time.DateOnly),
			tx.Amount.InexactFloat64(),
			tx.Currency,
			tx.Description,
			tx.SourceFile,
			tx.SourceRow,
			tx.IdentityKey,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return &statement.ExportError{Target: target, Err: err}
		}
	}

	if err := f.SaveAs(target); err != nil {
		return &statement.ExportError{Target: target, Err: err}
	}
	return nil
}
