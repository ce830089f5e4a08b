package models

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nishad/sradb/internal/accession"
)

// Record is one denormalized archive row: a run together with its experiment,
// sample and study, plus any GEO aliases.
type Record struct {
	StudyAccession      string `json:"study_accession" db:"study_accession"`
	StudyAlias          string `json:"study_alias" db:"study_alias"`
	StudyTitle          string `json:"study_title" db:"study_title"`
	ExperimentAccession string `json:"experiment_accession" db:"experiment_accession"`
	ExperimentAlias     string `json:"experiment_alias" db:"experiment_alias"`
	ExperimentTitle     string `json:"experiment_title" db:"experiment_title"`
	SampleAccession     string `json:"sample_accession" db:"sample_accession"`
	SampleAlias         string `json:"sample_alias" db:"sample_alias"`
	SampleTitle         string `json:"sample_title" db:"sample_title"`
	RunAccession        string `json:"run_accession" db:"run_accession"`
	RunAlias            string `json:"run_alias" db:"run_alias"`

	TaxonID          int    `json:"organism_taxid" db:"taxon_id"`
	ScientificName   string `json:"organism_name" db:"scientific_name"`
	LibraryName      string `json:"library_name" db:"library_name"`
	LibraryStrategy  string `json:"library_strategy" db:"library_strategy"`
	LibrarySource    string `json:"library_source" db:"library_source"`
	LibrarySelection string `json:"library_selection" db:"library_selection"`
	LibraryLayout    string `json:"library_layout" db:"library_layout"`
	Platform         string `json:"platform" db:"platform"`
	InstrumentModel  string `json:"instrument_model" db:"instrument_model"`
	Spots            int64  `json:"total_spots" db:"spots"`
	Bases            int64  `json:"total_bases" db:"bases"`
	Published        string `json:"run_published" db:"published"`

	// SampleAttribute is the raw "key: value || key: value" text.
	SampleAttribute string `json:"sample_attribute" db:"sample_attribute"`

	SRAURL   string `json:"sra_url" db:"sra_url"`
	FastqFTP string `json:"fastq_ftp" db:"fastq_ftp"`
	FastqMD5 string `json:"fastq_md5" db:"fastq_md5"`
}

// Field returns the value of a named column, or "" for unknown names.
func (r *Record) Field(column string) string {
	switch column {
	case accession.ColStudy:
		return r.StudyAccession
	case accession.ColStudyAlias:
		return r.StudyAlias
	case "study_title":
		return r.StudyTitle
	case accession.ColExperiment:
		return r.ExperimentAccession
	case accession.ColExperimentAlias:
		return r.ExperimentAlias
	case "experiment_title":
		return r.ExperimentTitle
	case accession.ColSample:
		return r.SampleAccession
	case accession.ColSampleAlias:
		return r.SampleAlias
	case "sample_title":
		return r.SampleTitle
	case accession.ColRun:
		return r.RunAccession
	case accession.ColRunAlias:
		return r.RunAlias
	case "organism_taxid":
		if r.TaxonID == 0 {
			return ""
		}
		return strconv.Itoa(r.TaxonID)
	case "organism_name":
		return r.ScientificName
	case "library_name":
		return r.LibraryName
	case "library_strategy":
		return r.LibraryStrategy
	case "library_source":
		return r.LibrarySource
	case "library_selection":
		return r.LibrarySelection
	case "library_layout":
		return r.LibraryLayout
	case "platform":
		return r.Platform
	case "instrument_model":
		return r.InstrumentModel
	case "total_spots":
		return formatCount(r.Spots)
	case "total_bases":
		return formatCount(r.Bases)
	case "run_published":
		return r.Published
	case accession.ColSampleAttribute:
		return r.SampleAttribute
	case "sra_url":
		return r.SRAURL
	case "fastq_ftp":
		return r.FastqFTP
	case "fastq_md5":
		return r.FastqMD5
	}
	return ""
}

func formatCount(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// Attribute is one key/value pair from a sample's attribute list.
type Attribute struct {
	Key   string
	Value string
}

// ParseSampleAttributes splits the SRAmetadb attribute text
// ("source_name: liver || strain: C57BL/6") into pairs. Keys are normalized to
// lower_snake_case; order and repeated keys are kept.
func ParseSampleAttributes(raw string) []Attribute {
	var attrs []Attribute
	for _, part := range strings.Split(raw, "||") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = NormalizeAttributeKey(key)
		if key == "" {
			continue
		}
		attrs = append(attrs, Attribute{Key: key, Value: strings.TrimSpace(value)})
	}
	return attrs
}

// FormatSampleAttributes is the inverse of ParseSampleAttributes.
func FormatSampleAttributes(attrs []Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.Key+": "+a.Value)
	}
	return strings.Join(parts, " || ")
}

// NormalizeAttributeKey lower-cases a key and replaces runs of spaces and
// punctuation with a single underscore.
func NormalizeAttributeKey(key string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(key)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// SortRecords orders records by experiment then run accession, the natural
// order of a snapshot query.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].ExperimentAccession != records[j].ExperimentAccession {
			return records[i].ExperimentAccession < records[j].ExperimentAccession
		}
		return records[i].RunAccession < records[j].RunAccession
	})
}
