package resolver

import (
	"context"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/models"
)

// MetadataColumns are always present in metadata output.
var MetadataColumns = []string{
	accession.ColStudy, accession.ColExperiment, "experiment_title",
	accession.ColSample, accession.ColRun,
	"organism_taxid", "organism_name", "library_layout",
	"instrument_model", "total_spots", "total_bases",
}

// AssayColumns are added by --assay.
var AssayColumns = []string{"library_strategy", "library_source", "library_selection"}

// DetailColumns are added by --detailed.
var DetailColumns = []string{
	"study_title", accession.ColStudyAlias, accession.ColExperimentAlias,
	accession.ColSampleAlias, accession.ColRunAlias, "sample_title",
	"library_name", "platform", "run_published",
	"sra_url", "fastq_ftp", "fastq_md5",
}

// MetadataRequest describes a metadata listing. IDs may mix studies,
// experiments, samples, runs and GEO accessions.
type MetadataRequest struct {
	IDs                    []string
	Assay                  bool
	Detailed               bool
	SampleAttributes       bool
	ExpandSampleAttributes bool
}

// MetadataColumnsFor returns the columns a request produces before sample
// attributes are appended.
func MetadataColumnsFor(req MetadataRequest) []string {
	cols := append([]string(nil), MetadataColumns...)
	if req.Assay {
		cols = append(cols, AssayColumns...)
	}
	if req.Detailed {
		cols = append(cols, DetailColumns...)
	}
	return cols
}

// Metadata lists one row per run for every identifier in req.
func (r *Resolver) Metadata(ctx context.Context, req MetadataRequest) (*Result, error) {
	const op errors.Op = "resolver.Metadata"

	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 {
		return nil, errors.MissingQuery(op, "no identifiers given")
	}

	columns := MetadataColumnsFor(req)
	result := &Result{}
	var entries []entry

	for _, id := range ids {
		kind := accession.Detect(id)
		if kind == accession.Unknown {
			result.Errors = append(result.Errors, IdentifierError{ID: id, Reason: "unrecognized identifier"})
			continue
		}

		records, err := r.source.Lookup(ctx, kind, id)
		if err != nil {
			if errors.IsKind(err, errors.KindNotFound) {
				result.Errors = append(result.Errors, IdentifierError{ID: id, Reason: "not found"})
				continue
			}
			return nil, errors.WrapMsg(op, "lookup "+id, err)
		}

		for i := range records {
			row := make([]string, len(columns))
			for j, c := range columns {
				row[j] = records[i].Field(c)
			}
			entries = append(entries, entry{row: row, attrs: models.ParseSampleAttributes(records[i].SampleAttribute)})
		}
	}

	result.Table = buildTable(columns, entries, req.SampleAttributes || req.ExpandSampleAttributes, req.ExpandSampleAttributes)
	return result, nil
}
