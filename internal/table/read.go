package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetectDelimiter returns the most likely field delimiter of a CSV-like
// document, falling back to a tab.
func DetectDelimiter(data []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(data), '"')
	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}
	return '\t'
}

// Read parses a delimited table with a header line, such as the output of
// `sradb metadata` piped into `sradb download`.
func Read(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return New(), nil
	}
	return parse(data, DetectDelimiter(data))
}

// ReadTSV parses a tab-separated table with a header line.
func ReadTSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return New(), nil
	}
	return parse(data, '\t')
}

func parse(data []byte, comma rune) (*Table, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}

	t := New(records[0]...)
	for _, rec := range records[1:] {
		t.Append(rec)
	}
	return t, nil
}
