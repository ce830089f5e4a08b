package resolver

import (
	"github.com/nishad/sradb/internal/accession"
)

// Pair is an ordered (from, to) combination of identifier kinds.
type Pair struct {
	From accession.Kind
	To   accession.Kind
}

// String returns the command name of the pair, e.g. "srp-to-srr".
func (p Pair) String() string {
	return p.From.String() + "-to-" + p.To.String()
}

const (
	srp  = accession.ColStudy
	srx  = accession.ColExperiment
	srs  = accession.ColSample
	srr  = accession.ColRun
	gse  = accession.ColStudyAlias
	gsmX = accession.ColExperimentAlias
	gsmS = accession.ColSampleAlias
	gsmR = accession.ColRunAlias
)

// detailColumns lists, per pair, the columns that follow the from/to pair in
// detailed output.
var detailColumns = map[Pair][]string{
	{accession.Study, accession.Experiment}: {srs, srr, gsmX, gsmS, gsmR, gse},
	{accession.Study, accession.Sample}:     {srx, srr, gsmX, gsmS, gsmR, gse},
	{accession.Study, accession.Run}:        {srx, srs, gse, gsmX, gsmS, gsmR},
	{accession.Study, accession.GSE}:        {srs, srr},
	{accession.Study, accession.GSM}:        {srx, srs, srr, gse, gsmS, gsmR},

	{accession.Experiment, accession.Study}:  {srr, srs, gsmX, gsmR, gsmS, gse},
	{accession.Experiment, accession.Sample}: {srr, srp},
	{accession.Experiment, accession.Run}:    {srs, srp},
	{accession.Experiment, accession.GSE}:    {srp, srs, srr, gsmX, gsmS, gsmR},
	{accession.Experiment, accession.GSM}:    {srs, srr, srp, gsmS, gsmR, gse},

	{accession.Sample, accession.Study}:      {srx, srr, gsmX, gsmS, gsmR, gse},
	{accession.Sample, accession.Experiment}: {srr, srp},
	{accession.Sample, accession.Run}:        {srx, srp},
	{accession.Sample, accession.GSE}:        {srx, srp, srr, gsmX, gsmS},
	{accession.Sample, accession.GSM}:        {srx, srr, srp},

	{accession.Run, accession.Study}:      {srx, srs, gsmR, gsmX, gsmS, gse},
	{accession.Run, accession.Experiment}: {srs, srp, gsmR, gsmX, gsmS, gse},
	{accession.Run, accession.Sample}:     {srx, srp, gsmR, gsmS, gsmX, gse},
	{accession.Run, accession.GSE}:        {srx, srs, srp, gsmX, gsmS, gsmR},
	{accession.Run, accession.GSM}:        {srx, srp, gsmR, gsmS, gse},

	{accession.GSE, accession.Study}:      {srx, srr, srs, gsmX, gsmR, gsmS},
	{accession.GSE, accession.Experiment}: {srp, srs, srr, gsmX, gsmS, gsmR},
	{accession.GSE, accession.Sample}:     {srp, srx, srr, gsmX, gsmS, gsmR},
	{accession.GSE, accession.Run}:        {srp, srx, srs, gsmX, gsmS, gsmR},
	{accession.GSE, accession.GSM}:        {srs, srr, gsmS, gsmR},

	{accession.GSM, accession.Study}:      {srx, srs, srr, gsmS, gsmR, gse},
	{accession.GSM, accession.Experiment}: {srs, srr, gsmS, gsmR, gse},
	{accession.GSM, accession.Sample}:     {srx, srr, srp, gsmR, gse},
	{accession.GSM, accession.Run}:        {srx, srs, srp, gsmR, gsmS, gse},
	{accession.GSM, accession.GSE}:        {srs, srr, gsmS, gsmR},
}

// Pairs returns every ordered pair of distinct kinds, in command-line order.
func Pairs() []Pair {
	var pairs []Pair
	for _, from := range accession.Kinds {
		for _, to := range accession.Kinds {
			if from != to {
				pairs = append(pairs, Pair{from, to})
			}
		}
	}
	return pairs
}

// Columns returns the output columns for a pair: the from and to columns,
// followed by the pair's detail columns when detailed is set. A column never
// appears twice.
func Columns(p Pair, detailed bool) []string {
	cols := []string{p.From.Column()}
	if p.To != p.From {
		cols = append(cols, p.To.Column())
	}
	if !detailed {
		return cols
	}

	details, ok := detailColumns[p]
	if !ok {
		// Identity pairs list the rest of the chain.
		details = accession.ChainColumns
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, c := range details {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	return cols
}
