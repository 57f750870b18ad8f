package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/ledgerpipe/ledgerpipe/internal/domain/statement"
)

// candidate delimiters, checked against the first non-blank lines
var delimiters = []rune{';', '\t', ',', '|'}

func readCSV(path string, opts Options) (*statement.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &statement.DocumentUnreadableError{Path: path, Err: err}
	}
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")) // UTF-8 BOM

	delim := detectDelimiter(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &statement.DocumentUnreadableError{Path: path, Err: err}
		}
		rows = append(rows, record)
	}

	return &statement.RawDocument{
		Source: statement.Source{Path: path, Institution: opts.Institution},
		Rows:   rows,
	}, nil
}

// detectDelimiter picks the delimiter with the highest count over the first
// lines of the file. Defaults to comma.
func detectDelimiter(data []byte) rune {
	best := ','
	bestCount := 0
	lines := strings.SplitN(string(data), "\n", 10)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, d := range delimiters {
			if n := strings.Count(line, string(d)); n > bestCount {
				bestCount = n
				best = d
			}
		}
	}
	return best
}
