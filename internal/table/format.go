package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for a Table.
type Format string

const (
	FormatTSV   Format = "tsv"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists every supported output format.
var Formats = []Format{FormatTSV, FormatCSV, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatTSV, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q (use tsv, csv, table, json or yaml)", s)
}

// FormatForPath picks the format used by --saveto: comma separated for a
// .csv path, tab separated for anything else.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatTSV
}

// Write encodes t to w in the given format. An empty table writes nothing.
func Write(w io.Writer, t *Table, f Format) error {
	if t.Len() == 0 {
		return nil
	}
	switch f {
	case FormatTSV, "":
		return writeTSV(w, t)
	case FormatCSV:
		return writeCSV(w, t)
	case FormatTable:
		_, err := io.WriteString(w, Render(t)+"\n")
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(orderedRows(t))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlRows(t)); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported format %q", f)
}

// Save writes t to path, choosing the delimiter from the file extension.
func Save(path string, t *Table) error {
	var buf bytes.Buffer
	f := FormatForPath(path)
	// A saved file always carries the header, even when there are no rows.
	if t.Len() == 0 {
		if f == FormatCSV {
			if err := writeCSV(&buf, t); err != nil {
				return err
			}
		} else if err := writeTSV(&buf, t); err != nil {
			return err
		}
	} else if err := Write(&buf, t, f); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

var cellReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ")

func writeTSV(w io.Writer, t *Table) error {
	if _, err := io.WriteString(w, strings.Join(t.Columns, "\t")+"\n"); err != nil {
		return err
	}
	cells := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, v := range r {
			cells[i] = cellReplacer.Replace(v)
		}
		if _, err := io.WriteString(w, strings.Join(cells, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Render draws t as a rounded terminal table.
func Render(t *Table) string {
	columns := len(t.Columns)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, columns)
		for i := range row {
			row[i] = r[i]
		}
		tw.AppendRow(row)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i, c := range t.Columns {
		align := text.AlignLeft
		if strings.HasPrefix(c, "total_") {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// orderedRow marshals to a JSON object that keeps column order.
type orderedRow struct {
	columns []string
	values  []string
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func orderedRows(t *Table) []orderedRow {
	rows := make([]orderedRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, orderedRow{columns: t.Columns, values: r})
	}
	return rows
}

func yamlRows(t *Table) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, c := range t.Columns {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: c},
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r[i]},
			)
		}
		seq.Content = append(seq.Content, m)
	}
	return seq
}
