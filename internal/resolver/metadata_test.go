package resolver

import (
	"context"
	"testing"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/models"
	"github.com/nishad/sradb/internal/testutil"
)

func TestMetadataColumnsFor(t *testing.T) {
	base := len(MetadataColumns)
	if got := len(MetadataColumnsFor(MetadataRequest{})); got != base {
		t.Errorf("base columns = %d, want %d", got, base)
	}
	if got := len(MetadataColumnsFor(MetadataRequest{Assay: true})); got != base+len(AssayColumns) {
		t.Errorf("assay columns = %d", got)
	}
	if got := len(MetadataColumnsFor(MetadataRequest{Assay: true, Detailed: true})); got != base+len(AssayColumns)+len(DetailColumns) {
		t.Errorf("detailed columns = %d", got)
	}
}

func TestMetadata(t *testing.T) {
	r := New(testutil.NewMockSource(nil))

	res, err := r.Metadata(context.Background(), MetadataRequest{
		IDs:   []string{"SRP000002", "SRX000001", "XYZ1", "SRR999999"},
		Assay: true,
	})
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}

	testutil.AssertStrings(t, res.Column("run_accession"), []string{"SRR000004", "SRR000001", "SRR000002"}, "runs")
	testutil.AssertStrings(t, res.Column("organism_taxid"), []string{"10090", "9606", "9606"}, "taxids")
	testutil.AssertStrings(t, res.Column("library_strategy"), []string{"WGS", "RNA-Seq", "RNA-Seq"}, "strategy")

	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 identifier errors, got %v", res.Errors)
	}
	testutil.AssertEqual(t, res.Errors[0].Reason, "unrecognized identifier", "unknown prefix")
	testutil.AssertEqual(t, res.Errors[1].Reason, "not found", "unknown run")
}

func TestMetadataDetailedAndAttributes(t *testing.T) {
	r := New(testutil.NewMockSource(nil))

	res, err := r.Metadata(context.Background(), MetadataRequest{
		IDs:                    []string{"GSM100002"},
		Detailed:               true,
		ExpandSampleAttributes: true,
	})
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	testutil.AssertStrings(t, res.Column("experiment_alias"), []string{"GSM100002", "GSM100002"}, "aliases")
	testutil.AssertStrings(t, res.Column("treatment"), []string{"drug A", "drug B"}, "expanded")
	if res.Index("sra_url") < 0 {
		t.Error("detailed output should carry sra_url")
	}
}

func TestMetadataMissingQuery(t *testing.T) {
	_, err := New(testutil.NewMockSource(nil)).Metadata(context.Background(), MetadataRequest{})
	if !errors.IsKind(err, errors.KindMissingQuery) {
		t.Errorf("expected missing query, got %v", err)
	}
}

func TestMetadataAttributeColumnClash(t *testing.T) {
	rec := models.Record{
		StudyAccession:      "SRP000009",
		ExperimentAccession: "SRX000009",
		SampleAccession:     "SRS000009",
		RunAccession:        "SRR000009",
		Platform:            "ILLUMINA",
		SampleAttribute:     "platform: NovaSeq || tissue: liver",
	}
	r := New(testutil.NewMockSource([]models.Record{rec}))

	res, err := r.Metadata(context.Background(), MetadataRequest{
		IDs:              []string{"SRR000009"},
		Detailed:         true,
		SampleAttributes: true,
	})
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, c := range res.Columns {
		if seen[c] {
			t.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	testutil.AssertStrings(t, res.Column("platform"), []string{"ILLUMINA"}, "fixed column")
	testutil.AssertStrings(t, res.Column("platform_attr"), []string{"NovaSeq"}, "attribute column")
	testutil.AssertStrings(t, res.Column("tissue"), []string{"liver"}, "other attribute")
}

func TestAttributeColumns(t *testing.T) {
	got := attributeColumns(
		[]string{"run_accession", "platform"},
		[]string{"platform", "platform_attr", "tissue"},
	)
	testutil.AssertStrings(t, got, []string{"platform_attr_attr", "platform_attr", "tissue"}, "names")
}
