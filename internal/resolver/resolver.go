// Package resolver converts identifiers of one kind into linked identifiers
// of another kind, using any metadata source that can list the archive
// records an identifier belongs to.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/models"
	"github.com/nishad/sradb/internal/table"
)

// Source lists archive records. Lookup returns every record whose kind column
// matches id, in natural order, or an error of kind NotFound when there are
// none. Any other error is treated as fatal for the whole call.
type Source interface {
	Lookup(ctx context.Context, kind accession.Kind, id string) ([]models.Record, error)
	Close() error
}

// Request describes one resolution.
type Request struct {
	IDs      []string
	From     accession.Kind
	To       accession.Kind
	Detailed bool
	// SampleAttributes appends one column per sample attribute key.
	SampleAttributes bool
	// ExpandSampleAttributes splits repeated attribute values into rows.
	// It implies SampleAttributes.
	ExpandSampleAttributes bool
}

// IdentifierError reports an input identifier that produced no rows.
type IdentifierError struct {
	ID     string `json:"id" yaml:"id"`
	Reason string `json:"reason" yaml:"reason"`
}

func (e IdentifierError) Error() string {
	return e.ID + ": " + e.Reason
}

// Result is the table produced by a call plus the identifiers that failed.
type Result struct {
	*table.Table
	Errors []IdentifierError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Resolver runs resolutions against a single Source.
type Resolver struct {
	source Source
}

// New creates a resolver over source.
func New(source Source) *Resolver {
	return &Resolver{source: source}
}

// entry is a projected row together with the sample attributes of the record
// it came from.
type entry struct {
	row   []string
	attrs []models.Attribute
}

// Resolve converts req.IDs from req.From to req.To.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	const op errors.Op = "resolver.Resolve"

	if req.From == accession.Unknown || req.To == accession.Unknown {
		return nil, errors.E(op, errors.KindValidation, "unknown identifier kind")
	}
	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 {
		return nil, errors.MissingQuery(op, fmt.Sprintf("no %s identifiers given", req.From))
	}

	pair := Pair{req.From, req.To}
	columns := Columns(pair, req.Detailed)
	result := &Result{}
	var entries []entry

	for _, id := range ids {
		if !req.From.Valid(id) {
			result.Errors = append(result.Errors, IdentifierError{
				ID:     id,
				Reason: fmt.Sprintf("not a valid %s identifier (expected a %s prefix)",
					req.From.Name(), strings.Join(req.From.Prefixes(), "/")),
			})
			continue
		}

		records, err := r.source.Lookup(ctx, req.From, id)
		if err != nil {
			if errors.IsKind(err, errors.KindNotFound) {
				result.Errors = append(result.Errors, IdentifierError{ID: id, Reason: "not found"})
				continue
			}
			return nil, errors.WrapMsg(op, "lookup "+id, err)
		}

		before := len(entries)
		for i := range records {
			row := project(&records[i], id, pair, columns)
			if pair.From != pair.To && row[1] == "" {
				continue
			}
			entries = append(entries, entry{row: row, attrs: models.ParseSampleAttributes(records[i].SampleAttribute)})
		}
		if len(entries) == before {
			result.Errors = append(result.Errors, IdentifierError{
				ID:     id,
				Reason: fmt.Sprintf("no linked %s identifiers", req.To),
			})
		}
	}

	result.Table = buildTable(columns, entries, req.SampleAttributes || req.ExpandSampleAttributes, req.ExpandSampleAttributes)
	return result, nil
}

// project maps a record onto the output columns. The from column always
// carries the queried identifier; GEO target columns only carry real GEO
// accessions.
func project(rec *models.Record, id string, pair Pair, columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = rec.Field(c)
	}
	row[0] = id
	if pair.From != pair.To {
		row[1] = targetValue(rec, pair.To)
	}
	return row
}

func targetValue(rec *models.Record, to accession.Kind) string {
	if !to.IsGEO() {
		return rec.Field(to.Column())
	}
	switch to {
	case accession.GSE:
		if accession.IsGEOAlias(accession.GSE, rec.StudyAlias) {
			return rec.StudyAlias
		}
		return ""
	case accession.GSM:
		for _, alias := range []string{rec.ExperimentAlias, rec.SampleAlias} {
			if accession.IsGEOAlias(accession.GSM, alias) {
				return alias
			}
		}
		return ""
	}
	return rec.Field(to.Column())
}

// buildTable turns entries into the final table. Exact duplicate entries are
// dropped first, so expanding attribute values never yields fewer rows than
// joining them.
func buildTable(columns []string, entries []entry, withAttrs, expand bool) *table.Table {
	if !withAttrs {
		t := table.New(columns...)
		for _, e := range entries {
			t.Append(e.row)
		}
		t.Dedup()
		return t
	}

	keys := attributeKeys(entries)
	t := table.New(append(append([]string(nil), columns...), attributeColumns(columns, keys)...)...)

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		grouped := groupAttributes(e.attrs)
		joined := make([]string, len(keys))
		for i, k := range keys {
			joined[i] = strings.Join(grouped[k], ", ")
		}
		key := strings.Join(e.row, "\x00") + "\x01" + strings.Join(joined, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if !expand {
			t.Append(append(append([]string(nil), e.row...), joined...))
			continue
		}
		for _, combo := range expandValues(keys, grouped) {
			t.Append(append(append([]string(nil), e.row...), combo...))
		}
	}
	return t
}

func attributeKeys(entries []entry) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, e := range entries {
		for _, a := range e.attrs {
			if !seen[a.Key] {
				seen[a.Key] = true
				keys = append(keys, a.Key)
			}
		}
	}
	return keys
}

// attributeColumns names the attribute columns. A key that clashes with a
// fixed column, such as a "platform" attribute next to the platform column,
// gets an _attr suffix.
func attributeColumns(fixed, keys []string) []string {
	taken := make(map[string]bool, len(fixed)+len(keys))
	for _, c := range fixed {
		taken[c] = true
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	names := make([]string, len(keys))
	for i, k := range keys {
		name := k
		for taken[name] || (name != k && isKey[name]) {
			name += "_attr"
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

func groupAttributes(attrs []models.Attribute) map[string][]string {
	grouped := make(map[string][]string, len(attrs))
	for _, a := range attrs {
		grouped[a.Key] = append(grouped[a.Key], a.Value)
	}
	return grouped
}

// expandValues returns the cartesian product of the values of each key, one
// slice per output row. Keys without values contribute an empty cell.
func expandValues(keys []string, grouped map[string][]string) [][]string {
	combos := [][]string{make([]string, 0, len(keys))}
	for _, k := range keys {
		values := grouped[k]
		if len(values) == 0 {
			values = []string{""}
		}
		next := make([][]string, 0, len(combos)*len(values))
		for _, c := range combos {
			for _, v := range values {
				row := make([]string, len(c), len(keys))
				copy(row, c)
				next = append(next, append(row, v))
			}
		}
		combos = next
	}
	return combos
}

// uniqueIDs normalizes ids and removes blanks and repeats, keeping order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = accession.Normalize(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
