// Package reader opens statement files and decodes them into raw row data.
// It supports CSV/TSV exports, XLSX workbooks (optionally password protected)
// and text-based PDF statements. The reader never mutates the source file and
// attempts decryption at most once per supplied secret.
package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// Options carries per-file read settings supplied by the caller.
type Options struct {
	Password    string // decryption secret, never logged
	Sheet       string // preferred sheet name for spreadsheet containers
	Institution string // issuing institution hint for format detection
}

// Read opens the file at path and decodes it into a RawDocument.
// It returns statement.ErrDocumentEncrypted (wrapped) when a password is
// required but missing, and *statement.DocumentUnreadableError for corrupt
// files, wrong passwords and unsupported containers.
func Read(path string, opts Options) (*statement.RawDocument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return readCSV(path, opts)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readExcel(path, opts)
	case ".pdf":
		return readPDF(path, opts)
	default:
		return nil, &statement.DocumentUnreadableError{
			Path: path,
			Err:  fmt.Errorf("unsupported container %q", filepath.Ext(path)),
		}
	}
}
