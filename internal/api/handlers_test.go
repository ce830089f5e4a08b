package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nishad/sradb/internal/search"
	"github.com/nishad/sradb/internal/testutil"
)

// setupTestServer creates a server over the fixture records. ENA searches
// go to a local portal stub.
func setupTestServer(t *testing.T) (*Server, *testutil.MockSource) {
	t.Helper()

	portal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "run_accession\texperiment_title\nERR000001\tliver\n")
	}))
	t.Cleanup(portal.Close)

	src := testutil.NewMockSource(nil)
	s := NewServer(&Config{EnableCORS: true, SourceName: "mock", Quiet: true}, src, search.Options{
		ENAPortalURL: portal.URL,
		HTTPClient:   portal.Client(),
	})
	return s, src
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

type tableResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Errors  []struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestConvertEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	rr := get(t, s, "/api/v1/convert/srp/srx?id=SRP000001,SRP999999")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var resp tableResponse
	decode(t, rr, &resp)
	testutil.AssertStrings(t, resp.Columns, []string{"study_accession", "experiment_accession"}, "columns")
	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", resp.Rows)
	}
	testutil.AssertEqual(t, resp.Rows[1][1], "SRX000002", "second experiment")
	if len(resp.Errors) != 1 || resp.Errors[0].ID != "SRP999999" {
		t.Errorf("expected SRP999999 reported, got %+v", resp.Errors)
	}
}

func TestConvertEndpointPost(t *testing.T) {
	s, _ := setupTestServer(t)

	body := strings.NewReader(`{"ids": ["GSE1000"], "detailed": true}`)
	req := httptest.NewRequest("POST", "/api/v1/convert/gse/srp", body)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp tableResponse
	decode(t, rr, &resp)
	testutil.AssertEqual(t, resp.Columns[0], "study_alias", "from column")
	testutil.AssertEqual(t, resp.Rows[0][1], "SRP000001", "study")
}

func TestConvertEndpointErrors(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"unknown kind", "/api/v1/convert/srp/xyz?id=SRP000001", http.StatusBadRequest},
		{"no ids", "/api/v1/convert/srp/srr", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, s, tt.target)
			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestConvertEndpointTSV(t *testing.T) {
	s, _ := setupTestServer(t)

	rr := get(t, s, "/api/v1/convert/srr/srs?id=SRR000001&id=SRR999999&format=tsv")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	testutil.AssertContains(t, rr.Header().Get("Content-Type"), "tab-separated", "content type")
	testutil.AssertEqual(t, rr.Header().Get("X-Sradb-Errors"), "1", "error count header")
	testutil.AssertEqual(t, rr.Body.String(), "run_accession\tsample_accession\nSRR000001\tSRS000001\n", "body")
}

func TestConvertEndpointDesc(t *testing.T) {
	s, _ := setupTestServer(t)
	want := []string{"study_accession", "experiment_accession", "source_name", "treatment"}

	rr := get(t, s, "/api/v1/convert/srp/srx?id=SRP000001&desc=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp tableResponse
	decode(t, rr, &resp)
	testutil.AssertStrings(t, resp.Columns, want, "GET columns")

	body := strings.NewReader(`{"ids": ["SRP000001"], "desc": true}`)
	req := httptest.NewRequest("POST", "/api/v1/convert/srp/srx", body)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp = tableResponse{}
	decode(t, rr, &resp)
	testutil.AssertStrings(t, resp.Columns, want, "POST columns")
}

func TestMetadataEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	rr := get(t, s, "/api/v1/metadata?id=SRX000002&sample_attributes=true&expand=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp tableResponse
	decode(t, rr, &resp)
	// treatment carries two values, so the run expands into two rows
	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 expanded rows, got %d", len(resp.Rows))
	}
	last := len(resp.Columns) - 1
	testutil.AssertEqual(t, resp.Columns[last], "treatment", "last attribute column")
	testutil.AssertEqual(t, resp.Rows[0][last], "drug A", "first value")
	testutil.AssertEqual(t, resp.Rows[1][last], "drug B", "second value")
}

func TestSearchEndpoint(t *testing.T) {
	s, _ := setupTestServer(t)

	rr := get(t, s, "/api/v1/search?db=ena&title=liver&verbosity=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		DB      string              `json:"db"`
		Count   int                 `json:"count"`
		Results []map[string]string `json:"results"`
	}
	decode(t, rr, &resp)
	testutil.AssertEqual(t, resp.DB, "ena", "db")
	testutil.AssertEqual(t, resp.Count, 1, "count")
	testutil.AssertEqual(t, resp.Results[0]["run_accession"], "ERR000001", "accession")
}

func TestSearchEndpointUserErrors(t *testing.T) {
	s, _ := setupTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing query", "/api/v1/search?db=ena"},
		{"unknown db", "/api/v1/search?db=dbgap&query=liver"},
		{"bad max", "/api/v1/search?db=ena&query=liver&max=lots"},
		{"bad layout", "/api/v1/search?db=ena&layout=TRIPLE"},
		{"unsupported field", "/api/v1/search?db=ena&geo_query=liver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, s, tt.target)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			var resp map[string]interface{}
			decode(t, rr, &resp)
			if resp["error"] != true {
				t.Errorf("expected error body, got %v", resp)
			}
		})
	}
}

func TestHealthAndPairs(t *testing.T) {
	s, _ := setupTestServer(t)

	rr := get(t, s, "/api/v1/health")
	var health map[string]interface{}
	decode(t, rr, &health)
	testutil.AssertEqual(t, health["source"], interface{}("mock"), "source")

	rr = get(t, s, "/api/v1/pairs")
	var pairs struct {
		Pairs []string `json:"pairs"`
	}
	decode(t, rr, &pairs)
	testutil.AssertEqual(t, len(pairs.Pairs), 30, "pair count")
	testutil.AssertEqual(t, pairs.Pairs[0], "srp-to-srx", "first pair")
}

func TestCORSHeaders(t *testing.T) {
	s, _ := setupTestServer(t)

	rr := get(t, s, "/api/v1/health")
	testutil.AssertEqual(t, rr.Header().Get("Access-Control-Allow-Origin"), "*", "cors header")
}
