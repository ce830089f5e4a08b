// Package table holds the row-oriented results every sradb command produces,
// together with the readers and writers for them.
package table

import (
	"strings"
)

// Table is an ordered list of columns and string rows.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row, padding or truncating it to the column count.
func (t *Table) Append(row []string) {
	r := make([]string, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) []string {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	values := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		values = append(values, r[idx])
	}
	return values
}

// Dedup removes exact duplicate rows, keeping the first occurrence.
func (t *Table) Dedup() {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		key := strings.Join(r, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	t.Rows = kept
}

// Select returns a new table restricted to the named columns, in that order.
// Unknown columns are returned empty.
func (t *Table) Select(columns ...string) *Table {
	out := New(columns...)
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	for _, r := range t.Rows {
		row := make([]string, len(columns))
		for i, j := range idx {
			if j >= 0 {
				row[i] = r[j]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Maps converts the rows to column-keyed maps, for JSON and YAML output.
func (t *Table) Maps() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			m[c] = r[i]
		}
		out = append(out, m)
	}
	return out
}
