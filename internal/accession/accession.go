// Package accession describes the six identifier kinds used by the sequence
// archives and how they relate to each other.
package accession

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is one of the identifier kinds sradb can resolve between.
type Kind int

const (
	Unknown Kind = iota
	Study
	Experiment
	Sample
	Run
	GSE
	GSM
)

// Column names shared by every metadata source.
const (
	ColStudy           = "study_accession"
	ColStudyAlias      = "study_alias"
	ColExperiment      = "experiment_accession"
	ColExperimentAlias = "experiment_alias"
	ColSample          = "sample_accession"
	ColSampleAlias     = "sample_alias"
	ColRun             = "run_accession"
	ColRunAlias        = "run_alias"
	ColSampleAttribute = "sample_attribute"
)

// ChainColumns is the canonical order of the hierarchy columns.
var ChainColumns = []string{
	ColStudy, ColExperiment, ColSample, ColRun,
	ColStudyAlias, ColExperimentAlias, ColSampleAlias, ColRunAlias,
}

// Kinds lists every resolvable kind in command-line order.
var Kinds = []Kind{Study, Experiment, Sample, Run, GSE, GSM}

type kindInfo struct {
	short    string
	name     string
	column   string
	prefixes []string
	pattern  *regexp.Regexp
}

var kinds = map[Kind]kindInfo{
	Study:      {"srp", "study", ColStudy, []string{"SRP", "ERP", "DRP"}, regexp.MustCompile(`^[SED]RP\d+$`)},
	Experiment: {"srx", "experiment", ColExperiment, []string{"SRX", "ERX", "DRX"}, regexp.MustCompile(`^[SED]RX\d+$`)},
	Sample:     {"srs", "sample", ColSample, []string{"SRS", "ERS", "DRS"}, regexp.MustCompile(`^[SED]RS\d+$`)},
	Run:        {"srr", "run", ColRun, []string{"SRR", "ERR", "DRR"}, regexp.MustCompile(`^[SED]RR\d+$`)},
	GSE:        {"gse", "GEO series", ColStudyAlias, []string{"GSE"}, regexp.MustCompile(`^GSE\d+$`)},
	GSM:        {"gsm", "GEO sample", ColExperimentAlias, []string{"GSM"}, regexp.MustCompile(`^GSM\d+$`)},
}

// String returns the short command-line name (srp, srx, ...).
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.short
	}
	return "unknown"
}

// Name returns a human readable name.
func (k Kind) Name() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "unknown"
}

// Column returns the record column that holds identifiers of this kind.
func (k Kind) Column() string {
	return kinds[k].column
}

// Prefixes returns the accepted accession prefixes.
func (k Kind) Prefixes() []string {
	return kinds[k].prefixes
}

// IsGEO reports whether the kind is a GEO overlay rather than an archive record.
func (k Kind) IsGEO() bool {
	return k == GSE || k == GSM
}

// Parent returns the kind one level up the hierarchy. GEO kinds map onto the
// archive record they alias.
func (k Kind) Parent() Kind {
	switch k {
	case Experiment, GSE:
		return Study
	case Sample, Run:
		return Experiment
	case GSM:
		return Sample
	}
	return Unknown
}

// Valid reports whether id is syntactically an identifier of kind k.
func (k Kind) Valid(id string) bool {
	info, ok := kinds[k]
	if !ok {
		return false
	}
	return info.pattern.MatchString(id)
}

// ParseKind accepts a short name (srp), a prefix (SRP) or a long name (study).
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		info := kinds[k]
		if s == info.short || s == info.name {
			return k, nil
		}
		for _, p := range info.prefixes {
			if s == strings.ToLower(p) {
				return k, nil
			}
		}
	}
	return Unknown, fmt.Errorf("unknown identifier kind %q", s)
}

// Normalize trims and upper-cases an identifier.
func Normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Detect returns the kind of id based on its prefix, or Unknown.
func Detect(id string) Kind {
	id = Normalize(id)
	for _, k := range Kinds {
		if kinds[k].pattern.MatchString(id) {
			return k
		}
	}
	return Unknown
}

// IsGEOAlias reports whether an alias value is a GEO accession of kind k.
// Submitter aliases that happen to sit in the same column are rejected.
func IsGEOAlias(k Kind, alias string) bool {
	return k.IsGEO() && kinds[k].pattern.MatchString(alias)
}
