package sraweb

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/models"
	"github.com/nishad/sradb/internal/parser"
)

// fetchBatch is the number of UIDs sent in a single efetch request.
const fetchBatch = 200

// Source answers lookups from the live SRA and GEO databases.
type Source struct {
	client *Client
}

// New creates a live source.
func New(cfg Config) *Source {
	return &Source{client: NewClient(cfg)}
}

// NewWithClient creates a live source over an existing client.
func NewWithClient(c *Client) *Source {
	return &Source{client: c}
}

// Client returns the underlying E-utilities client.
func (s *Source) Client() *Client {
	return s.client
}

// Close implements resolver.Source. The live source holds no resources.
func (s *Source) Close() error {
	return nil
}

// Lookup returns every record whose kind column equals id.
func (s *Source) Lookup(ctx context.Context, kind accession.Kind, id string) ([]models.Record, error) {
	const op errors.Op = "sraweb.Lookup"

	switch kind {
	case accession.Study, accession.Experiment, accession.Sample, accession.Run:
		return s.lookupSRA(ctx, kind, id)
	case accession.GSE, accession.GSM:
		return s.lookupGEO(ctx, kind, id)
	}
	return nil, errors.E(op, errors.KindValidation, "unsupported identifier kind "+kind.String())
}

func (s *Source) lookupSRA(ctx context.Context, kind accession.Kind, id string) ([]models.Record, error) {
	const op errors.Op = "sraweb.lookupSRA"

	res, err := s.client.ESearchAll(ctx, "sra", id+"[Accession]", 0)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}
	if len(res.IDs) == 0 {
		return nil, errors.NotFound(op, id)
	}

	records, err := s.Fetch(ctx, res.IDs)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}

	// Accession searches also match related records; keep exact hits only.
	column := kind.Column()
	out := records[:0]
	for _, r := range records {
		if r.Field(column) == id {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFound(op, id)
	}
	models.SortRecords(out)
	return out, nil
}

// Fetch downloads experiment packages for SRA UIDs and flattens them into
// records.
func (s *Source) Fetch(ctx context.Context, uids []string) ([]models.Record, error) {
	const op errors.Op = "sraweb.Fetch"

	var records []models.Record
	for _, batch := range chunk(uids, fetchBatch) {
		body, err := s.client.EFetch(ctx, "sra", batch, "xml")
		if err != nil {
			return nil, err
		}
		err = parser.ParsePackages(bytes.NewReader(body), func(pkg *parser.ExperimentPackage) error {
			records = append(records, pkg.Records()...)
			return nil
		})
		if err != nil {
			return nil, errors.E(op, errors.KindParse, err)
		}
	}
	return records, nil
}

// GEODocument is the subset of a gds esummary document sradb reads.
type GEODocument struct {
	UID          string        `json:"uid"`
	Accession    string        `json:"accession"`
	EntryType    string        `json:"entrytype"`
	Title        string        `json:"title"`
	Summary      string        `json:"summary"`
	Taxon        string        `json:"taxon"`
	GDSType      string        `json:"gdstype"`
	GPL          string        `json:"gpl"`
	PDAT         string        `json:"pdat"`
	NSamples     int           `json:"n_samples"`
	ExtRelations []ExtRelation `json:"extrelations"`
}

// ExtRelation links a GEO record to an external database entry.
type ExtRelation struct {
	RelationType string `json:"relationtype"`
	TargetObject string `json:"targetobject"`
	TargetFTP    string `json:"targetftplink"`
}

// SRATargets returns the SRA accessions the document links to.
func (d *GEODocument) SRATargets() []string {
	var out []string
	for _, rel := range d.ExtRelations {
		if strings.EqualFold(rel.RelationType, "SRA") && rel.TargetObject != "" {
			out = append(out, rel.TargetObject)
		}
	}
	return out
}

// GEOSummaries runs esummary on gds UIDs.
func (s *Source) GEOSummaries(ctx context.Context, uids []string) ([]GEODocument, error) {
	const op errors.Op = "sraweb.GEOSummaries"

	var docs []GEODocument
	for _, batch := range chunk(uids, fetchBatch) {
		raw, err := s.client.ESummary(ctx, "gds", batch)
		if err != nil {
			return nil, err
		}
		for _, r := range raw {
			var d GEODocument
			if err := json.Unmarshal(r, &d); err != nil {
				return nil, errors.E(op, errors.KindParse, err, "invalid gds summary")
			}
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// lookupGEO finds the SRA records a GEO series or sample points at and
// stamps the GEO accession onto them when the archive alias is missing.
func (s *Source) lookupGEO(ctx context.Context, kind accession.Kind, id string) ([]models.Record, error) {
	const op errors.Op = "sraweb.lookupGEO"

	res, err := s.client.ESearchAll(ctx, "gds", id+"[ACCN]", 0)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}
	if len(res.IDs) == 0 {
		return nil, errors.NotFound(op, id)
	}
	docs, err := s.GEOSummaries(ctx, res.IDs)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}

	targetKind := accession.Study
	if kind == accession.GSM {
		targetKind = accession.Experiment
	}

	var out []models.Record
	seen := make(map[string]bool)
	for i := range docs {
		if !strings.EqualFold(docs[i].Accession, id) {
			continue
		}
		for _, target := range docs[i].SRATargets() {
			if seen[target] || !targetKind.Valid(target) {
				continue
			}
			seen[target] = true

			records, err := s.lookupSRA(ctx, targetKind, target)
			if errors.IsKind(err, errors.KindNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, stampGEO(kind, id, records)...)
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFound(op, id)
	}
	return out, nil
}

func stampGEO(kind accession.Kind, id string, records []models.Record) []models.Record {
	if kind == accession.GSE {
		for i := range records {
			if !accession.IsGEOAlias(accession.GSE, records[i].StudyAlias) {
				records[i].StudyAlias = id
			}
		}
		return records
	}

	var matched []models.Record
	for _, r := range records {
		if r.ExperimentAlias == id || r.SampleAlias == id {
			matched = append(matched, r)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	for i := range records {
		records[i].ExperimentAlias = id
	}
	return records
}
