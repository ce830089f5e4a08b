package sraweb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/testutil"
)

// fakeEutils serves canned esearch, efetch and esummary responses.
type fakeEutils struct {
	fixture []byte

	mu     sync.Mutex
	params []map[string]string
}

var searchHits = map[string][]string{
	"SRP000001[Accession]": {"1"},
	"SRX000001[Accession]": {"1"},
	"SRR000002[Accession]": {"1"},
	"SRX000003[Accession]": {"2"},
	"GSE1000[ACCN]":        {"200001000"},
	"GSM100001[ACCN]":      {"300100001"},
}

var summaries = map[string]GEODocument{
	"200001000": {UID: "200001000", Accession: "GSE1000", EntryType: "GSE",
		ExtRelations: []ExtRelation{{RelationType: "SRA", TargetObject: "SRP000001"}}},
	"300100001": {UID: "300100001", Accession: "GSM100001", EntryType: "GSM",
		ExtRelations: []ExtRelation{{RelationType: "SRA", TargetObject: "SRX000001"}}},
}

func newFakeEutils(t *testing.T) (*fakeEutils, *httptest.Server) {
	t.Helper()
	fixture, err := os.ReadFile("../parser/testdata/experiment_package.xml")
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	f := &fakeEutils{fixture: fixture}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeEutils) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seen := make(map[string]string)
	for k := range q {
		seen[k] = q.Get(k)
	}
	f.mu.Lock()
	f.params = append(f.params, seen)
	f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "esearch.fcgi"):
		ids := searchHits[q.Get("term")]
		if ids == nil {
			ids = []string{}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"esearchresult": map[string]interface{}{
				"count":  strconv.Itoa(len(ids)),
				"idlist": ids,
			},
		})
	case strings.HasSuffix(r.URL.Path, "efetch.fcgi"):
		w.Header().Set("Content-Type", "text/xml")
		w.Write(f.fixture)
	case strings.HasSuffix(r.URL.Path, "esummary.fcgi"):
		result := map[string]interface{}{}
		var uids []string
		for _, uid := range strings.Split(q.Get("id"), ",") {
			if doc, ok := summaries[uid]; ok {
				result[uid] = doc
				uids = append(uids, uid)
			}
		}
		result["uids"] = uids
		json.NewEncoder(w).Encode(map[string]interface{}{"result": result})
	default:
		http.NotFound(w, r)
	}
}

func newTestSource(srv *httptest.Server) *Source {
	return New(Config{BaseURL: srv.URL, APIKey: "secret", Email: "dev@example.org", RequestInterval: time.Millisecond})
}

func TestLookupSRA(t *testing.T) {
	_, srv := newFakeEutils(t)
	src := newTestSource(srv)
	ctx := context.Background()

	tests := []struct {
		kind accession.Kind
		id   string
		runs []string
	}{
		{accession.Study, "SRP000001", []string{"SRR000001", "SRR000002"}},
		{accession.Experiment, "SRX000001", []string{"SRR000001", "SRR000002"}},
		{accession.Run, "SRR000002", []string{"SRR000002"}},
		{accession.Experiment, "SRX000003", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			records, err := src.Lookup(ctx, tt.kind, tt.id)
			testutil.RequireNoError(t, err, "Lookup")
			var runs []string
			for _, r := range records {
				runs = append(runs, r.RunAccession)
			}
			testutil.AssertStrings(t, runs, tt.runs, "runs")
		})
	}
}

func TestLookupNotFound(t *testing.T) {
	_, srv := newFakeEutils(t)
	src := newTestSource(srv)

	for _, tc := range []struct {
		kind accession.Kind
		id   string
	}{
		{accession.Run, "SRR999999"},
		{accession.GSE, "GSE9"},
	} {
		_, err := src.Lookup(context.Background(), tc.kind, tc.id)
		if !errors.IsKind(err, errors.KindNotFound) {
			t.Errorf("%s: expected not found, got %v", tc.id, err)
		}
	}
}

func TestLookupGEO(t *testing.T) {
	_, srv := newFakeEutils(t)
	src := newTestSource(srv)
	ctx := context.Background()

	records, err := src.Lookup(ctx, accession.GSE, "GSE1000")
	testutil.RequireNoError(t, err, "GSE lookup")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		testutil.AssertEqual(t, r.StudyAlias, "GSE1000", "study alias")
	}

	records, err = src.Lookup(ctx, accession.GSM, "GSM100001")
	testutil.RequireNoError(t, err, "GSM lookup")
	if len(records) != 2 || records[0].ExperimentAccession != "SRX000001" {
		t.Errorf("unexpected GSM records: %+v", records)
	}
}

func TestRequestParameters(t *testing.T) {
	f, srv := newFakeEutils(t)
	src := newTestSource(srv)

	if _, err := src.Lookup(context.Background(), accession.Run, "SRR000002"); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.params) != 2 {
		t.Fatalf("expected esearch and efetch, got %d requests", len(f.params))
	}
	for _, p := range f.params {
		testutil.AssertEqual(t, p["api_key"], "secret", "api_key")
		testutil.AssertEqual(t, p["tool"], "sradb", "tool")
		testutil.AssertEqual(t, p["email"], "dev@example.org", "email")
	}
	testutil.AssertEqual(t, f.params[1]["id"], "1", "efetch ids")
}

func TestHTTPErrorIsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestSource(srv).Lookup(context.Background(), accession.Study, "SRP000001")
	if !errors.IsKind(err, errors.KindNetwork) {
		t.Errorf("expected network error, got %v", err)
	}
	testutil.AssertContains(t, err.Error(), "HTTP 429", "message")
	testutil.AssertContains(t, err.Error(), "sraweb.lookupSRA", "operation")
}

func TestRequestPacing(t *testing.T) {
	_, srv := newFakeEutils(t)
	c := NewClient(Config{BaseURL: srv.URL, RequestInterval: 40 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.ESearch(context.Background(), "sra", "SRP000001[Accession]", 0, 10); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("three requests finished in %v, expected pacing", elapsed)
	}
}

func TestDefaultInterval(t *testing.T) {
	testutil.AssertEqual(t, NewClient(Config{}).cfg.RequestInterval, 340*time.Millisecond, "anonymous")
	testutil.AssertEqual(t, NewClient(Config{APIKey: "k"}).cfg.RequestInterval, 100*time.Millisecond, "with key")
}

func TestChunk(t *testing.T) {
	got := chunk([]string{"a", "b", "c", "d", "e"}, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Errorf("chunk() = %v", got)
	}
	if chunk(nil, 2) != nil {
		t.Error("expected nil for empty input")
	}
}
