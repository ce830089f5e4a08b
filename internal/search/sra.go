package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/nishad/sradb/internal/models"
	"github.com/nishad/sradb/internal/sraweb"
	"github.com/nishad/sradb/internal/table"
)

// sraColumns are the output columns of the SRA backend by verbosity.
var sraColumns = [4][]string{
	{"run_accession"},
	{"run_accession", "experiment_title"},
	{
		"study_accession", "experiment_accession", "experiment_title", "sample_accession",
		"run_accession", "organism_name", "library_strategy", "library_layout",
		"instrument_model", "total_spots", "total_bases",
	},
	{
		"study_accession", "study_alias", "study_title", "experiment_accession",
		"experiment_alias", "experiment_title", "sample_accession", "sample_alias",
		"sample_title", "run_accession", "run_alias", "organism_taxid", "organism_name",
		"library_name", "library_strategy", "library_source", "library_selection",
		"library_layout", "platform", "instrument_model", "total_spots", "total_bases",
		"run_published", "sample_attribute", "sra_url", "fastq_ftp", "fastq_md5",
	},
}

// SRABackend searches NCBI SRA through esearch and efetch.
type SRABackend struct {
	source *sraweb.Source
}

// NewSRABackend creates an SRA backend over a live source.
func NewSRABackend(source *sraweb.Source) *SRABackend {
	return &SRABackend{source: source}
}

func (b *SRABackend) Name() string { return SRA }

func (b *SRABackend) Supports(field string) bool {
	switch field {
	case FieldGEOQuery, FieldGEODatasetType, FieldGEOEntryType:
		return false
	}
	return true
}

// Search implements Backend.
func (b *SRABackend) Search(ctx context.Context, f Filters) (*table.Table, error) {
	res, err := b.source.Client().ESearchAll(ctx, "sra", SRATerm(f), f.Max)
	if err != nil {
		return nil, err
	}

	if len(res.IDs) == 0 {
		return table.New(sraColumns[f.Verbosity]...), nil
	}

	records, err := b.source.Fetch(ctx, res.IDs)
	if err != nil {
		return nil, err
	}
	full := table.New(sraColumns[3]...)
	for i := range records {
		full.Append(project(&records[i], full.Columns))
	}

	// Lower verbosity keeps a subset of the full columns.
	out := full.Select(sraColumns[f.Verbosity]...)
	out.Dedup()
	truncate(out, f.Max)
	return out, nil
}

// SRATerm builds an Entrez query from f. Fields are ANDed in a fixed order.
func SRATerm(f Filters) string {
	var terms []string
	add := func(value, tag string) {
		if value != "" {
			terms = append(terms, quoteTerm(value)+"["+tag+"]")
		}
	}

	if f.Query != "" {
		terms = append(terms, f.Query)
	}
	add(f.Accession, "ACCN")
	add(f.Organism, "ORGN")
	add(f.Layout, "LAY")
	if f.MBases > 0 {
		terms = append(terms, strconv.Itoa(f.MBases)+"[MBS]")
	}
	if f.PublicationDate != "" {
		if r, err := ParseDateRange(f.PublicationDate); err == nil {
			terms = append(terms, r.Format("2006/01/02", ":")+"[PDAT]")
		}
	}
	add(f.Platform, "PLAT")
	add(f.Selection, "SEL")
	add(f.Source, "SRC")
	add(f.Strategy, "STRA")
	add(f.Title, "TITL")
	return strings.Join(terms, " AND ")
}

// quoteTerm wraps multi-word values so Entrez treats them as a phrase.
func quoteTerm(v string) string {
	if strings.ContainsAny(v, " \t") && !strings.HasPrefix(v, `"`) {
		return `"` + v + `"`
	}
	return v
}

func project(rec *models.Record, columns []string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = rec.Field(c)
	}
	return row
}

func truncate(t *table.Table, max int) {
	if max > 0 && len(t.Rows) > max {
		t.Rows = t.Rows[:max]
	}
}
