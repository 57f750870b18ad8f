package statement

import (
	"errors"
	"fmt"
)

// ErrDocumentEncrypted signals that a document requires a password and none
// was supplied. It is distinct from a wrong password (DocumentUnreadableError)
// so callers can prompt instead of aborting.
var ErrDocumentEncrypted = errors.New("document is encrypted and no password was supplied")

// DocumentUnreadableError covers corrupt files, wrong passwords and
// unsupported containers. It aborts processing of the affected file only.
type DocumentUnreadableError struct {
	Path string
	Err  error
}

func (e *DocumentUnreadableError) Error() string {
	return fmt.Sprintf("document unreadable: %s: %v", e.Path, e.Err)
}

func (e *DocumentUnreadableError) Unwrap() error { return e.Err }

// UnrecognizedFormatError is returned by the detector when a document is
// structurally empty. The generic fallback adapter matches everything else.
type UnrecognizedFormatError struct {
	Path string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unrecognized statement format: %s", e.Path)
}

// RowExtractionError reports a row that could not be split into the expected
// fields. It aborts that row only.
type RowExtractionError struct {
	Row     int
	Message string
	Raw     string
}

func (e *RowExtractionError) Error() string {
	return fmt.Sprintf("row %d: %s (%q)", e.Row, e.Message, e.Raw)
}

// NormalizationError names the field that failed coercion and the raw value.
type NormalizationError struct {
	Row     int
	Field   string // "date", "amount", "currency" or "description"
	Value   string
	Message string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %s", e.Row, e.Field, e.Value, e.Message)
}

// ExportError wraps a failure from the export boundary. The pipeline never
// masks a successfully-normalized batch behind it.
type ExportError struct {
	Target string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Target, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
