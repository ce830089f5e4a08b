package search

import (
	"testing"
	"time"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/testutil"
)

func TestValidate(t *testing.T) {
	sra := &SRABackend{}
	geo := &GEOBackend{}

	tests := []struct {
		name    string
		backend Backend
		filters func(f *Filters)
		kind    errors.Kind
		field   string
	}{
		{"empty filters", sra, func(f *Filters) {}, errors.KindMissingQuery, ""},
		{"blank query", sra, func(f *Filters) { f.Query = "   " }, errors.KindMissingQuery, ""},
		{"query only", sra, func(f *Filters) { f.Query = "ribosome profiling" }, errors.KindUnknown, ""},
		{"organism only", sra, func(f *Filters) { f.Organism = "Homo sapiens" }, errors.KindUnknown, ""},
		{"geo field on sra", sra, func(f *Filters) { f.GEOEntryType = "gse" }, errors.KindIncorrectField, FieldGEOEntryType},
		{"strategy on geo", geo, func(f *Filters) { f.Query = "x"; f.Strategy = "RNA-Seq" }, errors.KindIncorrectField, FieldStrategy},
		{"geo field on geo", geo, func(f *Filters) { f.GEODatasetType = "expression profiling by high throughput sequencing" }, errors.KindUnknown, ""},
		{"bad layout", sra, func(f *Filters) { f.Layout = "triple" }, errors.KindIncorrectField, FieldLayout},
		{"lowercase layout", sra, func(f *Filters) { f.Layout = "paired" }, errors.KindUnknown, ""},
		{"negative mbases", sra, func(f *Filters) { f.MBases = -5 }, errors.KindIncorrectField, FieldMBases},
		{"verbosity too high", sra, func(f *Filters) { f.Query = "x"; f.Verbosity = 4 }, errors.KindIncorrectField, FieldVerbosity},
		{"zero max", sra, func(f *Filters) { f.Query = "x"; f.Max = 0 }, errors.KindIncorrectField, FieldMax},
		{"bad date", sra, func(f *Filters) { f.PublicationDate = "yesterday-ish" }, errors.KindIncorrectField, FieldPublicationDate},
		{"date range", sra, func(f *Filters) { f.PublicationDate = "01-01-2010:31-12-2010" }, errors.KindUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilters()
			tt.filters(&f)
			err := f.Validate(tt.backend)
			if tt.kind == errors.KindUnknown {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsKind(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if tt.field != "" {
				testutil.AssertContains(t, err.Error(), tt.field, "error names the field")
			}
			if !errors.IsUserError(err) {
				t.Error("validation errors should be user errors")
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		in       string
		from, to time.Time
		wantErr  bool
	}{
		{"15-03-2012", day(2012, 3, 15), day(2012, 3, 15), false},
		{"01-01-2010:31-12-2010", day(2010, 1, 1), day(2010, 12, 31), false},
		{"2019-07-04", day(2019, 7, 4), day(2019, 7, 4), false},
		{"31-12-2010:01-01-2010", time.Time{}, time.Time{}, true},
		{"not-a-date", time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		r, err := ParseDateRange(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if !r.From.Equal(tt.from) || !r.To.Equal(tt.to) {
			t.Errorf("%q: got %v..%v", tt.in, r.From, r.To)
		}
	}
}

func TestSRATerm(t *testing.T) {
	f := NewFilters()
	f.Query = "covid"
	f.Organism = "Homo sapiens"
	f.Layout = "PAIRED"
	f.MBases = 12
	f.PublicationDate = "01-01-2020:31-01-2020"
	f.Strategy = "RNA-Seq"

	want := `covid AND "Homo sapiens"[ORGN] AND PAIRED[LAY] AND 12[MBS] AND 2020/01/01:2020/01/31[PDAT] AND RNA-Seq[STRA]`
	testutil.AssertEqual(t, SRATerm(f), want, "term")
}

func TestENAQuery(t *testing.T) {
	f := NewFilters()
	f.Organism = "Mus musculus"
	f.MBases = 2
	f.Platform = "ILLUMINA"

	want := `scientific_name="Mus musculus" AND base_count>=1500000 AND base_count<2500000 AND instrument_platform="ILLUMINA"`
	testutil.AssertEqual(t, ENAQuery(f), want, "query")
}

func TestGEOTerm(t *testing.T) {
	f := NewFilters()
	f.GEOQuery = "liver"
	f.Organism = "Homo sapiens"
	f.GEOEntryType = "gse"

	testutil.AssertEqual(t, GEOTerm(f), `liver AND "Homo sapiens"[ORGN] AND gse[ETYP]`, "term")
}

func TestNewBackend(t *testing.T) {
	for _, name := range Names {
		b, err := New(name, Options{})
		testutil.RequireNoError(t, err, name)
		testutil.AssertEqual(t, b.Name(), name, "name")
	}
	if _, err := New("pubmed", Options{}); !errors.IsKind(err, errors.KindIncorrectField) {
		t.Errorf("expected incorrect field for unknown db, got %v", err)
	}
}
