package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// sheet names tried when the caller does not pick one
var preferredSheets = []string{"transactions", "statement", "data", "sheet1"}

// Encrypted workbooks are OLE compound files rather than zip archives, so a
// protected file opened without a password fails as an invalid zip. The
// compound-file magic identifies that case.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func readExcel(path string, opts Options) (*statement.RawDocument, error) {
	f, err := excelize.OpenFile(path, excelize.Options{Password: opts.Password})
	if err != nil {
		if opts.Password == "" && encryptedWorkbook(path) {
			return nil, fmt.Errorf("%s: %w", path, statement.ErrDocumentEncrypted)
		}
		return nil, &statement.DocumentUnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	sheet := pickSheet(f, opts.Sheet)
	if sheet == "" {
		return nil, &statement.DocumentUnreadableError{Path: path, Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &statement.DocumentUnreadableError{Path: path, Err: err}
	}

	return &statement.RawDocument{
		Source: statement.Source{Path: path, Institution: opts.Institution, Sheet: sheet},
		Rows:   rows,
	}, nil
}

// encryptedWorkbook reports whether the file carries the OLE compound-file
// signature used by password-protected workbooks.
func encryptedWorkbook(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, len(oleMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return bytes.Equal(magic, oleMagic)
}

// pickSheet returns the caller's sheet when present, then a conventionally
// named sheet, then the first sheet.
func pickSheet(f *excelize.File, want string) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	if want != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, want) {
				return s
			}
		}
	}
	for _, preferred := range preferredSheets {
		for _, s := range sheets {
			if strings.EqualFold(s, preferred) {
				return s
			}
		}
	}
	return sheets[0]
}
