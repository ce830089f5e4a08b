package api

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/resolver"
	"github.com/nishad/sradb/internal/search"
	"github.com/nishad/sradb/internal/table"
)

// lookupRequest is the POST body of /convert and /metadata. GET requests
// carry the same fields as query parameters.
type lookupRequest struct {
	IDs              []string `json:"ids"`
	Detailed         bool     `json:"detailed"`
	Assay            bool     `json:"assay"`
	SampleAttributes bool     `json:"desc"`
	Expand           bool     `json:"expand"`
	Format           string   `json:"format"`

	// Older clients send sample_attributes instead of desc.
	SampleAttributesAlias bool `json:"sample_attributes"`
}

func parseLookup(r *http.Request) (*lookupRequest, error) {
	const op errors.Op = "api.parseLookup"

	var req lookupRequest
	if r.Method == "POST" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.E(op, errors.KindValidation, "invalid request body")
		}
		req.SampleAttributes = req.SampleAttributes || req.SampleAttributesAlias
		return &req, nil
	}

	q := r.URL.Query()
	req.IDs = splitIDs(q["id"])
	req.Detailed = boolParam(q, "detailed")
	req.Assay = boolParam(q, "assay")
	req.SampleAttributes = boolParam(q, "desc") || boolParam(q, "sample_attributes")
	req.Expand = boolParam(q, "expand")
	req.Format = q.Get("format")
	return &req, nil
}

// splitIDs accepts repeated and comma separated id parameters.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func boolParam(q url.Values, name string) bool {
	b, _ := strconv.ParseBool(q.Get(name))
	return b
}

// Conversion handlers

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs := resolver.Pairs()
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.String()
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"pairs": names})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	const op errors.Op = "api.convert"

	vars := mux.Vars(r)
	from, err := accession.ParseKind(vars["from"])
	if err != nil {
		s.writeErr(w, errors.IncorrectField(op, "from", "%v", err))
		return
	}
	to, err := accession.ParseKind(vars["to"])
	if err != nil {
		s.writeErr(w, errors.IncorrectField(op, "to", "%v", err))
		return
	}

	req, err := parseLookup(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	result, err := s.resolver.Resolve(r.Context(), resolver.Request{
		IDs:                    req.IDs,
		From:                   from,
		To:                     to,
		Detailed:               req.Detailed,
		SampleAttributes:       req.SampleAttributes,
		ExpandSampleAttributes: req.Expand,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeResult(w, result, req.Format)
}

// Metadata handlers

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	req, err := parseLookup(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	result, err := s.resolver.Metadata(r.Context(), resolver.MetadataRequest{
		IDs:                    req.IDs,
		Assay:                  req.Assay,
		Detailed:               req.Detailed,
		SampleAttributes:       req.SampleAttributes,
		ExpandSampleAttributes: req.Expand,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeResult(w, result, req.Format)
}

// writeResult writes a result as JSON, or as a delimited table when format
// asks for one. Per-identifier errors travel in the X-Sradb-Errors header
// for delimited output.
func (s *Server) writeResult(w http.ResponseWriter, result *resolver.Result, format string) {
	f, err := table.ParseFormat(format)
	if err != nil || format == "" {
		f = table.FormatJSON
	}
	switch f {
	case table.FormatTSV, table.FormatCSV:
		s.writeDelimited(w, result.Table, f, len(result.Errors))
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) writeDelimited(w http.ResponseWriter, t *table.Table, f table.Format, failed int) {
	if f == table.FormatCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	}
	if failed > 0 {
		w.Header().Set("X-Sradb-Errors", strconv.Itoa(failed))
	}
	w.WriteHeader(http.StatusOK)
	if err := table.Write(w, t, f); err != nil {
		log.Printf("Error writing table response: %v", err)
	}
}

// Search handlers

// searchRequest mirrors search.Filters with JSON names.
type searchRequest struct {
	DB              string `json:"db"`
	Query           string `json:"query"`
	Accession       string `json:"accession"`
	Organism        string `json:"organism"`
	Layout          string `json:"layout"`
	MBases          int    `json:"mbases"`
	PublicationDate string `json:"publication_date"`
	Platform        string `json:"platform"`
	Selection       string `json:"selection"`
	Source          string `json:"source"`
	Strategy        string `json:"strategy"`
	Title           string `json:"title"`
	GEOQuery        string `json:"geo_query"`
	GEODatasetType  string `json:"geo_dataset_type"`
	GEOEntryType    string `json:"geo_entry_type"`
	Verbosity       *int   `json:"verbosity"`
	Max             *int   `json:"max"`
	Format          string `json:"format"`
}

func parseSearch(r *http.Request) (*searchRequest, error) {
	const op errors.Op = "api.parseSearch"

	var req searchRequest
	if r.Method == "POST" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.E(op, errors.KindValidation, "invalid request body")
		}
		return &req, nil
	}

	q := r.URL.Query()
	req.DB = q.Get("db")
	req.Query = q.Get("query")
	if req.Query == "" {
		req.Query = q.Get("q")
	}
	req.Accession = q.Get(search.FieldAccession)
	req.Organism = q.Get(search.FieldOrganism)
	req.Layout = q.Get(search.FieldLayout)
	req.PublicationDate = q.Get(search.FieldPublicationDate)
	req.Platform = q.Get(search.FieldPlatform)
	req.Selection = q.Get(search.FieldSelection)
	req.Source = q.Get(search.FieldSource)
	req.Strategy = q.Get(search.FieldStrategy)
	req.Title = q.Get(search.FieldTitle)
	req.GEOQuery = q.Get(search.FieldGEOQuery)
	req.GEODatasetType = q.Get(search.FieldGEODatasetType)
	req.GEOEntryType = q.Get(search.FieldGEOEntryType)
	req.Format = q.Get("format")

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{search.FieldVerbosity, &req.Verbosity},
		{search.FieldMax, &req.Max},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.IncorrectField(op, p.name, "not a number: %q", v)
		}
		*p.dst = &n
	}
	if v := q.Get(search.FieldMBases); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.IncorrectField(op, search.FieldMBases, "not a number: %q", v)
		}
		req.MBases = n
	}
	return &req, nil
}

func (req *searchRequest) filters() search.Filters {
	f := search.NewFilters()
	f.Query = req.Query
	f.Accession = req.Accession
	f.Organism = req.Organism
	f.Layout = req.Layout
	f.MBases = req.MBases
	f.PublicationDate = req.PublicationDate
	f.Platform = req.Platform
	f.Selection = req.Selection
	f.Source = req.Source
	f.Strategy = req.Strategy
	f.Title = req.Title
	f.GEOQuery = req.GEOQuery
	f.GEODatasetType = req.GEODatasetType
	f.GEOEntryType = req.GEOEntryType
	if req.Verbosity != nil {
		f.Verbosity = *req.Verbosity
	}
	if req.Max != nil {
		f.Max = *req.Max
	}
	return f
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearch(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	backend, err := search.New(req.DB, s.search)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	t, err := search.Run(r.Context(), backend, req.filters())
	if err != nil {
		s.writeErr(w, err)
		return
	}

	f, perr := table.ParseFormat(req.Format)
	if perr == nil && req.Format != "" && (f == table.FormatTSV || f == table.FormatCSV) {
		s.writeDelimited(w, t, f, 0)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"db":      backend.Name(),
		"count":   t.Len(),
		"columns": t.Columns,
		"results": t.Maps(),
	})
}
