package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/models"
)

// ParsePackages streams an EXPERIMENT_PACKAGE_SET document and calls fn for
// each package in document order. Parsing stops at the first error fn
// returns.
func ParsePackages(r io.Reader, fn func(*ExperimentPackage) error) error {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // efetch occasionally emits stray entities
	decoder.AutoClose = xml.HTMLAutoClose

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read package set: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "EXPERIMENT_PACKAGE":
			var pkg ExperimentPackage
			if err := decoder.DecodeElement(&pkg, &start); err != nil {
				return fmt.Errorf("failed to decode experiment package: %w", err)
			}
			if err := fn(&pkg); err != nil {
				return err
			}
		case "ERROR", "Error":
			var msg string
			if err := decoder.DecodeElement(&msg, &start); err == nil && msg != "" {
				return fmt.Errorf("efetch error: %s", strings.TrimSpace(msg))
			}
		}
	}
}

// Records flattens a package into one record per run. An experiment without
// runs still yields a single record with an empty run.
func (p *ExperimentPackage) Records() []models.Record {
	exp := &p.Experiment
	lib := &exp.Design.LibraryDescriptor

	base := models.Record{
		StudyAccession:      firstNonEmpty(exp.StudyRef.Accession, p.Study.Accession),
		StudyAlias:          p.studyAlias(),
		StudyTitle:          strings.TrimSpace(p.Study.Descriptor.StudyTitle),
		ExperimentAccession: exp.Accession,
		ExperimentAlias:     exp.Alias,
		ExperimentTitle:     strings.TrimSpace(exp.Title),
		LibraryName:         lib.LibraryName,
		LibraryStrategy:     lib.LibraryStrategy,
		LibrarySource:       lib.LibrarySource,
		LibrarySelection:    lib.LibrarySelection,
		LibraryLayout:       lib.LibraryLayout.Name(),
		Platform:            exp.Platform.GetPlatformName(),
		InstrumentModel:     exp.Platform.GetInstrumentModel(),
	}

	if s := p.sample(); s != nil {
		base.SampleAccession = s.Accession
		base.SampleAlias = s.Alias
		base.SampleTitle = strings.TrimSpace(s.Title)
		base.TaxonID = s.SampleName.TaxonID
		base.ScientificName = firstNonEmpty(s.SampleName.ScientificName, s.SampleName.CommonName)
		if s.SampleAttributes != nil {
			base.SampleAttribute = formatAttributes(s.SampleAttributes.Attributes)
		}
	}
	if base.SampleAccession == "" {
		base.SampleAccession = exp.Design.SampleDescriptor.Accession
	}

	if len(p.Runs) == 0 {
		return []models.Record{base}
	}

	records := make([]models.Record, 0, len(p.Runs))
	for i := range p.Runs {
		run := &p.Runs[i]
		rec := base
		rec.RunAccession = run.Accession
		rec.RunAlias = run.Alias
		rec.Spots = run.TotalSpots
		rec.Bases = run.TotalBases
		rec.Published = publishedDate(run.Published)
		rec.SRAURL = run.sraURL()
		rec.FastqFTP, rec.FastqMD5 = run.fastq()
		records = append(records, rec)
	}
	return records
}

// publishedDate reduces a run's publication timestamp to its date. Values that
// do not parse are kept as given.
func publishedDate(v string) string {
	if t := ParseTime(v); !t.IsZero() {
		return t.Format("2006-01-02")
	}
	return v
}

// studyAlias prefers the submitter alias, falling back to the GEO external
// identifier when the alias is not a GEO series.
func (p *ExperimentPackage) studyAlias() string {
	if accession.IsGEOAlias(accession.GSE, p.Study.Alias) {
		return p.Study.Alias
	}
	if gse := p.Study.Identifiers.ExternalID("GEO"); gse != "" {
		return gse
	}
	return p.Study.Alias
}

func (p *ExperimentPackage) sample() *Sample {
	want := p.Experiment.Design.SampleDescriptor.Accession
	for i := range p.Samples {
		if p.Samples[i].Accession == want {
			return &p.Samples[i]
		}
	}
	if len(p.Samples) > 0 {
		return &p.Samples[0]
	}
	return nil
}

func (r *Run) sraURL() string {
	var fallback string
	for _, f := range r.SRAFiles {
		url := f.URL
		if url == "" && len(f.Alternatives) > 0 {
			url = f.Alternatives[0].URL
		}
		if url == "" {
			continue
		}
		switch f.SemanticName {
		case "run", "SRA Normalized", "SRA Lite":
			return url
		}
		if fallback == "" && f.Supertype != "Original" {
			fallback = url
		}
	}
	return fallback
}

func (r *Run) fastq() (urls, md5s string) {
	var u, m []string
	for _, f := range r.SRAFiles {
		if !strings.EqualFold(f.SemanticName, "fastq") || f.URL == "" {
			continue
		}
		u = append(u, f.URL)
		m = append(m, f.MD5)
	}
	return strings.Join(u, ";"), strings.Join(m, ";")
}

// formatAttributes writes sample attributes in the SRAmetadb text form, so
// both sources hand the resolver the same sample_attribute cell.
func formatAttributes(attrs []Attribute) string {
	pairs := make([]models.Attribute, 0, len(attrs))
	for _, a := range attrs {
		tag := strings.TrimSpace(a.Tag)
		if tag == "" {
			continue
		}
		pairs = append(pairs, models.Attribute{Key: tag, Value: strings.TrimSpace(a.Value)})
	}
	return models.FormatSampleAttributes(pairs)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
