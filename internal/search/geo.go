package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/nishad/sradb/internal/sraweb"
	"github.com/nishad/sradb/internal/table"
)

var geoColumns = [4][]string{
	{"accession"},
	{"accession", "title"},
	{"accession", "title", "taxon", "entry_type", "gds_type", "n_samples"},
	{"accession", "title", "taxon", "entry_type", "gds_type", "n_samples", "gpl", "pdat", "summary", "sra_targets", "uid"},
}

// GEOBackend searches GEO DataSets (db=gds) through esearch and esummary.
type GEOBackend struct {
	source *sraweb.Source
}

// NewGEOBackend creates a GEO backend over a live source.
func NewGEOBackend(source *sraweb.Source) *GEOBackend {
	return &GEOBackend{source: source}
}

func (b *GEOBackend) Name() string { return GEO }

// Supports rejects library-level fields, which GEO DataSets do not index.
func (b *GEOBackend) Supports(field string) bool {
	switch field {
	case FieldLayout, FieldMBases, FieldPlatform, FieldSelection, FieldSource, FieldStrategy:
		return false
	}
	return true
}

// Search implements Backend.
func (b *GEOBackend) Search(ctx context.Context, f Filters) (*table.Table, error) {
	res, err := b.source.Client().ESearchAll(ctx, "gds", GEOTerm(f), f.Max)
	if err != nil {
		return nil, err
	}

	out := table.New(geoColumns[f.Verbosity]...)
	if len(res.IDs) == 0 {
		return out, nil
	}

	docs, err := b.source.GEOSummaries(ctx, res.IDs)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		out.Append(geoRow(&docs[i], out.Columns))
	}
	truncate(out, f.Max)
	return out, nil
}

func geoRow(d *sraweb.GEODocument, columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case "accession":
			row[i] = d.Accession
		case "title":
			row[i] = d.Title
		case "taxon":
			row[i] = d.Taxon
		case "entry_type":
			row[i] = d.EntryType
		case "gds_type":
			row[i] = d.GDSType
		case "n_samples":
			row[i] = strconv.Itoa(d.NSamples)
		case "gpl":
			row[i] = d.GPL
		case "pdat":
			row[i] = d.PDAT
		case "summary":
			row[i] = d.Summary
		case "sra_targets":
			row[i] = strings.Join(d.SRATargets(), ",")
		case "uid":
			row[i] = d.UID
		}
	}
	return row
}

// GEOTerm builds an Entrez gds query from f.
func GEOTerm(f Filters) string {
	var terms []string
	add := func(value, tag string) {
		if value != "" {
			terms = append(terms, quoteTerm(value)+"["+tag+"]")
		}
	}

	if f.Query != "" {
		terms = append(terms, f.Query)
	}
	if f.GEOQuery != "" {
		terms = append(terms, f.GEOQuery)
	}
	add(f.Accession, "ACCN")
	add(f.Organism, "ORGN")
	if f.PublicationDate != "" {
		if r, err := ParseDateRange(f.PublicationDate); err == nil {
			terms = append(terms, r.Format("2006/01/02", ":")+"[PDAT]")
		}
	}
	add(f.Title, "TITL")
	add(f.GEODatasetType, "GTYP")
	add(f.GEOEntryType, "ETYP")
	return strings.Join(terms, " AND ")
}
