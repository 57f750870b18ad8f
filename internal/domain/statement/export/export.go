// Package export writes finished batches out. The pipeline only ever sees
// the Exporter interface: it produces ordered records and has no knowledge
// of spreadsheet formatting, authentication or rate limits.
package export

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Exporter accepts an ordered list of transactions and a target identifier
// (workbook path, sheet name and so on, as the implementation defines it).
type Exporter interface {
	Export(ctx context.Context, target string, txs []statement.Transaction) error
}

// column headers shared by the workbook and CSV writers
var headers = []string{"Date", "Amount", "Currency", "Description", "Source File", "Source Row", "Identity Key"}
