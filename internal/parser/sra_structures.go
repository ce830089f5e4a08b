package parser

import (
	"encoding/xml"
	"time"
)

// =============== PACKAGE STRUCTURES ===============

// ExperimentPackage is one EXPERIMENT_PACKAGE element of an efetch db=sra
// response: an experiment with its study, sample and runs.
type ExperimentPackage struct {
	XMLName    xml.Name   `xml:"EXPERIMENT_PACKAGE"`
	Experiment Experiment `xml:"EXPERIMENT"`
	Study      Study      `xml:"STUDY"`
	Samples    []Sample   `xml:"SAMPLE"`
	Runs       []Run      `xml:"RUN_SET>RUN"`
}

// =============== STUDY STRUCTURES ===============

// Study represents an SRA study record
type Study struct {
	Alias       string          `xml:"alias,attr,omitempty"`
	CenterName  string          `xml:"center_name,attr,omitempty"`
	Accession   string          `xml:"accession,attr,omitempty"`
	Identifiers *Identifiers    `xml:"IDENTIFIERS"`
	Descriptor  StudyDescriptor `xml:"DESCRIPTOR"`
}

// StudyDescriptor contains study metadata
type StudyDescriptor struct {
	StudyTitle    string `xml:"STUDY_TITLE"`
	StudyAbstract string `xml:"STUDY_ABSTRACT"`
}

// =============== EXPERIMENT STRUCTURES ===============

// Experiment represents an SRA experiment record
type Experiment struct {
	Alias       string       `xml:"alias,attr,omitempty"`
	CenterName  string       `xml:"center_name,attr,omitempty"`
	Accession   string       `xml:"accession,attr,omitempty"`
	Identifiers *Identifiers `xml:"IDENTIFIERS"`
	Title       string       `xml:"TITLE"`
	StudyRef    Ref          `xml:"STUDY_REF"`
	Design      Design       `xml:"DESIGN"`
	Platform    Platform     `xml:"PLATFORM"`
}

// Ref points at a parent record
type Ref struct {
	RefName   string `xml:"refname,attr,omitempty"`
	Accession string `xml:"accession,attr,omitempty"`
}

// Design contains experiment design information
type Design struct {
	DesignDescription string            `xml:"DESIGN_DESCRIPTION"`
	SampleDescriptor  Ref               `xml:"SAMPLE_DESCRIPTOR"`
	LibraryDescriptor LibraryDescriptor `xml:"LIBRARY_DESCRIPTOR"`
}

// LibraryDescriptor contains library preparation details
type LibraryDescriptor struct {
	LibraryName      string        `xml:"LIBRARY_NAME"`
	LibraryStrategy  string        `xml:"LIBRARY_STRATEGY"`
	LibrarySource    string        `xml:"LIBRARY_SOURCE"`
	LibrarySelection string        `xml:"LIBRARY_SELECTION"`
	LibraryLayout    LibraryLayout `xml:"LIBRARY_LAYOUT"`
}

// LibraryLayout specifies single or paired reads
type LibraryLayout struct {
	Single *struct{}   `xml:"SINGLE"`
	Paired *PairedInfo `xml:"PAIRED"`
}

// PairedInfo contains paired-end library information
type PairedInfo struct {
	NominalLength int `xml:"NOMINAL_LENGTH,attr,omitempty"`
}

// Platform contains sequencing platform information
type Platform struct {
	Illumina         *PlatformDetails `xml:"ILLUMINA"`
	IonTorrent       *PlatformDetails `xml:"ION_TORRENT"`
	PacBio           *PlatformDetails `xml:"PACBIO_SMRT"`
	OxfordNanopore   *PlatformDetails `xml:"OXFORD_NANOPORE"`
	LS454            *PlatformDetails `xml:"LS454"`
	Solid            *PlatformDetails `xml:"ABI_SOLID"`
	BGISEQ           *PlatformDetails `xml:"BGISEQ"`
	CompleteGenomics *PlatformDetails `xml:"COMPLETE_GENOMICS"`
	Capillary        *PlatformDetails `xml:"CAPILLARY"`
}

// PlatformDetails contains platform-specific information
type PlatformDetails struct {
	InstrumentModel string `xml:"INSTRUMENT_MODEL"`
}

// =============== SAMPLE STRUCTURES ===============

// Sample represents an SRA sample record
type Sample struct {
	Alias            string            `xml:"alias,attr,omitempty"`
	Accession        string            `xml:"accession,attr,omitempty"`
	Identifiers      *Identifiers      `xml:"IDENTIFIERS"`
	Title            string            `xml:"TITLE"`
	SampleName       SampleName        `xml:"SAMPLE_NAME"`
	Description      string            `xml:"DESCRIPTION"`
	SampleAttributes *SampleAttributes `xml:"SAMPLE_ATTRIBUTES"`
}

// SampleName contains taxonomic information
type SampleName struct {
	TaxonID        int    `xml:"TAXON_ID"`
	ScientificName string `xml:"SCIENTIFIC_NAME"`
	CommonName     string `xml:"COMMON_NAME"`
}

// SampleAttributes contains custom attributes
type SampleAttributes struct {
	Attributes []Attribute `xml:"SAMPLE_ATTRIBUTE"`
}

// =============== RUN STRUCTURES ===============

// Run represents an SRA run record as returned by efetch. Statistics are
// attributes of RUN there rather than a nested element.
type Run struct {
	Alias         string       `xml:"alias,attr,omitempty"`
	Accession     string       `xml:"accession,attr,omitempty"`
	TotalSpots    int64        `xml:"total_spots,attr,omitempty"`
	TotalBases    int64        `xml:"total_bases,attr,omitempty"`
	Size          int64        `xml:"size,attr,omitempty"`
	Published     string       `xml:"published,attr,omitempty"`
	Identifiers   *Identifiers `xml:"IDENTIFIERS"`
	ExperimentRef Ref          `xml:"EXPERIMENT_REF"`
	SRAFiles      []SRAFile    `xml:"SRAFiles>SRAFile"`
}

// SRAFile is one downloadable file of a run.
type SRAFile struct {
	Filename     string        `xml:"filename,attr"`
	URL          string        `xml:"url,attr"`
	Size         int64         `xml:"size,attr,omitempty"`
	MD5          string        `xml:"md5,attr,omitempty"`
	SemanticName string        `xml:"semantic_name,attr,omitempty"`
	Supertype    string        `xml:"supertype,attr,omitempty"`
	Alternatives []Alternative `xml:"Alternatives"`
}

// Alternative is a mirror location of an SRAFile.
type Alternative struct {
	URL        string `xml:"url,attr"`
	Org        string `xml:"org,attr,omitempty"`
	FreeEgress string `xml:"free_egress,attr,omitempty"`
}

// =============== COMMON STRUCTURES ===============

// Identifiers contains record identifiers
type Identifiers struct {
	PrimaryID    *Identifier   `xml:"PRIMARY_ID"`
	SecondaryIDs []Identifier  `xml:"SECONDARY_ID"`
	ExternalIDs  []QualifiedID `xml:"EXTERNAL_ID"`
	SubmitterIDs []QualifiedID `xml:"SUBMITTER_ID"`
}

// Identifier represents a simple identifier
type Identifier struct {
	Label string `xml:"label,attr,omitempty"`
	Value string `xml:",chardata"`
}

// QualifiedID represents an identifier with namespace
type QualifiedID struct {
	Namespace string `xml:"namespace,attr"`
	Label     string `xml:"label,attr,omitempty"`
	Value     string `xml:",chardata"`
}

// Attribute represents a tag-value pair with optional units
type Attribute struct {
	Tag   string `xml:"TAG"`
	Value string `xml:"VALUE"`
	Units string `xml:"UNITS,omitempty"`
}

// =============== HELPER FUNCTIONS ===============

// ParseTime converts SRA date strings to time.Time
func ParseTime(dateStr string) time.Time {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t
		}
	}

	return time.Time{}
}

func (p *Platform) details() (string, *PlatformDetails) {
	switch {
	case p.Illumina != nil:
		return "ILLUMINA", p.Illumina
	case p.IonTorrent != nil:
		return "ION_TORRENT", p.IonTorrent
	case p.PacBio != nil:
		return "PACBIO_SMRT", p.PacBio
	case p.OxfordNanopore != nil:
		return "OXFORD_NANOPORE", p.OxfordNanopore
	case p.LS454 != nil:
		return "LS454", p.LS454
	case p.Solid != nil:
		return "ABI_SOLID", p.Solid
	case p.BGISEQ != nil:
		return "BGISEQ", p.BGISEQ
	case p.CompleteGenomics != nil:
		return "COMPLETE_GENOMICS", p.CompleteGenomics
	case p.Capillary != nil:
		return "CAPILLARY", p.Capillary
	}
	return "", nil
}

// GetPlatformName returns the platform element name, e.g. ILLUMINA.
func (p *Platform) GetPlatformName() string {
	name, _ := p.details()
	return name
}

// GetInstrumentModel returns the instrument model of whichever platform is set.
func (p *Platform) GetInstrumentModel() string {
	if _, d := p.details(); d != nil {
		return d.InstrumentModel
	}
	return ""
}

// Name returns SINGLE or PAIRED.
func (l *LibraryLayout) Name() string {
	switch {
	case l.Paired != nil:
		return "PAIRED"
	case l.Single != nil:
		return "SINGLE"
	}
	return ""
}

// ExternalID returns the first external identifier in namespace, or "".
func (ids *Identifiers) ExternalID(namespace string) string {
	if ids == nil {
		return ""
	}
	for _, id := range ids.ExternalIDs {
		if id.Namespace == namespace {
			return id.Value
		}
	}
	return ""
}
