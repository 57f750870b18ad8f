package reader

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Text fragments closer than yTolerance points vertically belong to the same
// visual row; a horizontal gap wider than cellGap points starts a new cell.
const (
	yTolerance = 2.0
	cellGap    = 6.0
)

func readPDF(path string, opts Options) (*statement.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &statement.DocumentUnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &statement.DocumentUnreadableError{Path: path, Err: err}
	}

	r, err := openPDF(f, info.Size(), opts.Password)
	if err != nil {
		return nil, openError(path, opts.Password, err)
	}

	var rows [][]string
	for p := 1; p <= r.NumPage(); p++ {
		page := r.Page(p)
		if page.V.IsNull() {
			continue
		}
		rows = append(rows, assembleRows(page.Content().Text)...)
	}

	return &statement.RawDocument{
		Source: statement.Source{Path: path, Institution: opts.Institution},
		Rows:   rows,
	}, nil
}

// openError keeps the password-required case distinct from unreadable files,
// matching the workbook path, so callers can prompt for a secret.
func openError(path, password string, err error) error {
	if errors.Is(err, pdf.ErrInvalidPassword) && password == "" {
		return fmt.Errorf("%s: %w", path, statement.ErrDocumentEncrypted)
	}
	return &statement.DocumentUnreadableError{Path: path, Err: err}
}

// openPDF attempts decryption exactly once with the supplied secret.
func openPDF(f *os.File, size int64, password string) (*pdf.Reader, error) {
	if password == "" {
		return pdf.NewReader(f, size)
	}
	attempted := false
	return pdf.NewReaderEncrypted(f, size, func() string {
		if attempted {
			return ""
		}
		attempted = true
		return password
	})
}

// assembleRows rebuilds tabular rows from positioned text fragments in
// top-to-bottom, left-to-right reading order. PDF coordinates grow upward,
// so higher Y means earlier on the page.
func assembleRows(texts []pdf.Text) [][]string {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > yTolerance || diff < -yTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		rows [][]string
		row  []string
		cell strings.Builder
		rowY = sorted[0].Y
		endX float64
	)

	flushCell := func() {
		if s := strings.TrimSpace(cell.String()); s != "" {
			row = append(row, s)
		}
		cell.Reset()
	}
	flushRow := func() {
		flushCell()
		if len(row) > 0 {
			rows = append(rows, row)
		}
		row = nil
	}

	for i, t := range sorted {
		if t.S == "" {
			continue
		}
		switch {
		case rowY-t.Y > yTolerance:
			flushRow()
			rowY = t.Y
		case i > 0 && t.X-endX > cellGap:
			flushCell()
		case i > 0 && cell.Len() > 0 && t.X-endX > 1.0:
			cell.WriteString(" ")
		}
		cell.WriteString(t.S)
		endX = t.X + t.W
	}
	flushRow()

	return rows
}
