package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/table"
)

// DefaultENAPortalURL is the ENA portal API base.
const DefaultENAPortalURL = "https://www.ebi.ac.uk/ena/portal/api/"

// enaFields are the read_run fields requested by verbosity.
var enaFields = [4][]string{
	{"run_accession"},
	{"run_accession", "experiment_title"},
	{
		"study_accession", "experiment_accession", "experiment_title", "sample_accession",
		"run_accession", "scientific_name", "library_strategy", "library_layout",
		"instrument_model", "read_count", "base_count",
	},
	{
		"study_accession", "secondary_study_accession", "study_title",
		"experiment_accession", "experiment_alias", "experiment_title",
		"sample_accession", "secondary_sample_accession", "sample_alias", "sample_title",
		"run_accession", "run_alias", "tax_id", "scientific_name", "library_name",
		"library_strategy", "library_source", "library_selection", "library_layout",
		"instrument_platform", "instrument_model", "read_count", "base_count",
		"first_public", "fastq_ftp", "fastq_md5", "sra_ftp", "submitted_ftp",
	},
}

// ENABackend searches the ENA portal API for read runs.
type ENABackend struct {
	baseURL string
	http    *http.Client
}

// NewENABackend creates an ENA backend. Empty arguments use defaults.
func NewENABackend(baseURL string, client *http.Client) *ENABackend {
	if baseURL == "" {
		baseURL = DefaultENAPortalURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &ENABackend{baseURL: baseURL, http: client}
}

func (b *ENABackend) Name() string { return ENA }

func (b *ENABackend) Supports(field string) bool {
	switch field {
	case FieldGEOQuery, FieldGEODatasetType, FieldGEOEntryType:
		return false
	}
	return true
}

// Search implements Backend.
func (b *ENABackend) Search(ctx context.Context, f Filters) (*table.Table, error) {
	const op errors.Op = "search.ENA"

	params := url.Values{}
	params.Set("result", "read_run")
	params.Set("query", ENAQuery(f))
	params.Set("fields", strings.Join(enaFields[f.Verbosity], ","))
	params.Set("limit", strconv.Itoa(f.Max))
	params.Set("format", "tsv")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"search?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "failed to read response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return table.New(enaFields[f.Verbosity]...), nil
	case http.StatusBadRequest:
		// The portal rejects unknown values with a 400 and a message.
		return nil, errors.E(op, errors.KindSearch, fmt.Sprintf("ENA rejected the query: %s", strings.TrimSpace(string(body))))
	default:
		return nil, errors.E(op, errors.KindNetwork, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	t, err := table.ReadTSV(bytes.NewReader(body))
	if err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}
	if len(t.Columns) == 0 {
		t = table.New(enaFields[f.Verbosity]...)
	}
	truncate(t, f.Max)
	return t, nil
}

// ENAQuery builds a portal API query expression from f.
func ENAQuery(f Filters) string {
	var terms []string
	eq := func(field, value string) string {
		return field + `="` + value + `"`
	}

	if f.Query != "" {
		q := "*" + f.Query + "*"
		terms = append(terms, "("+eq("study_title", q)+" OR "+eq("experiment_title", q)+")")
	}
	if f.Accession != "" {
		var ors []string
		for _, field := range []string{"study_accession", "secondary_study_accession", "experiment_accession", "sample_accession", "secondary_sample_accession", "run_accession"} {
			ors = append(ors, eq(field, f.Accession))
		}
		terms = append(terms, "("+strings.Join(ors, " OR ")+")")
	}
	if f.Organism != "" {
		terms = append(terms, eq("scientific_name", f.Organism))
	}
	if f.Layout != "" {
		terms = append(terms, eq("library_layout", f.Layout))
	}
	if f.MBases > 0 {
		// Sizes are rounded to the nearest megabase.
		lo := int64(f.MBases)*1_000_000 - 500_000
		hi := int64(f.MBases)*1_000_000 + 500_000
		terms = append(terms, fmt.Sprintf("base_count>=%d AND base_count<%d", lo, hi))
	}
	if f.PublicationDate != "" {
		if r, err := ParseDateRange(f.PublicationDate); err == nil {
			terms = append(terms, fmt.Sprintf("first_public>=%s AND first_public<=%s",
				r.From.Format("2006-01-02"), r.To.Format("2006-01-02")))
		}
	}
	if f.Platform != "" {
		terms = append(terms, eq("instrument_platform", f.Platform))
	}
	if f.Selection != "" {
		terms = append(terms, eq("library_selection", f.Selection))
	}
	if f.Source != "" {
		terms = append(terms, eq("library_source", f.Source))
	}
	if f.Strategy != "" {
		terms = append(terms, eq("library_strategy", f.Strategy))
	}
	if f.Title != "" {
		terms = append(terms, eq("experiment_title", "*"+f.Title+"*"))
	}
	return strings.Join(terms, " AND ")
}
