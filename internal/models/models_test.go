package models

import (
	"reflect"
	"testing"
)

func TestParseSampleAttributes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Attribute
	}{
		{"empty", "", nil},
		{
			name: "two keys",
			raw:  "source_name: liver || Cell Type: hepatocyte",
			want: []Attribute{{"source_name", "liver"}, {"cell_type", "hepatocyte"}},
		},
		{
			name: "repeated key kept",
			raw:  "treatment: A || treatment: B",
			want: []Attribute{{"treatment", "A"}, {"treatment", "B"}},
		},
		{
			name: "value with colon",
			raw:  "time: 12:30",
			want: []Attribute{{"time", "12:30"}},
		},
		{
			name: "junk part skipped",
			raw:  "no separator || strain: C57BL/6",
			want: []Attribute{{"strain", "C57BL/6"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSampleAttributes(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSampleAttributes(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeAttributeKey(t *testing.T) {
	tests := map[string]string{
		"Source Name":      "source_name",
		"  cell-type ":     "cell_type",
		"age (weeks)":      "age_weeks",
		"already_snake":    "already_snake",
		"--":               "",
		"Tissue/Organ  ID": "tissue_organ_id",
	}
	for in, want := range tests {
		if got := NormalizeAttributeKey(in); got != want {
			t.Errorf("NormalizeAttributeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecordField(t *testing.T) {
	r := Record{
		StudyAccession: "SRP000001",
		StudyAlias:     "GSE1",
		RunAccession:   "SRR000001",
		TaxonID:        9606,
		Spots:          0,
	}
	if r.Field("study_accession") != "SRP000001" {
		t.Error("study_accession")
	}
	if r.Field("study_alias") != "GSE1" {
		t.Error("study_alias")
	}
	if r.Field("organism_taxid") != "9606" {
		t.Error("organism_taxid")
	}
	if r.Field("total_spots") != "" {
		t.Error("zero spots should be empty")
	}
	if r.Field("no_such_column") != "" {
		t.Error("unknown column should be empty")
	}
}

func TestSortRecords(t *testing.T) {
	records := []Record{
		{ExperimentAccession: "SRX2", RunAccession: "SRR3"},
		{ExperimentAccession: "SRX1", RunAccession: "SRR2"},
		{ExperimentAccession: "SRX1", RunAccession: "SRR1"},
	}
	SortRecords(records)
	got := []string{records[0].RunAccession, records[1].RunAccession, records[2].RunAccession}
	want := []string{"SRR1", "SRR2", "SRR3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}
