// Package sraweb queries the live NCBI E-utilities service and exposes it as
// a metadata source.
package sraweb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nishad/sradb/internal/errors"
)

// DefaultBaseURL is the public E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// Config holds E-utilities client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Email   string
	Tool    string
	Timeout time.Duration
	// RequestInterval is the minimum gap between two requests. Zero picks
	// the NCBI limit for the presence or absence of an API key.
	RequestInterval time.Duration
	// Debug logs every request URL.
	Debug bool
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client issues E-utilities requests one at a time, pacing them to stay
// under the NCBI rate limit.
type Client struct {
	cfg  Config
	http *http.Client

	mu   sync.Mutex
	last time.Time
}

// NewClient creates a client, filling in defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Tool == "" {
		cfg.Tool = "sradb"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestInterval == 0 {
		cfg.RequestInterval = 340 * time.Millisecond
		if cfg.APIKey != "" {
			cfg.RequestInterval = 100 * time.Millisecond
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// wait blocks until the request interval since the previous request has
// passed.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d := time.Until(c.last.Add(c.cfg.RequestInterval)); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	c.last = time.Now()
	return nil
}

// Get performs a paced GET against an E-utilities endpoint and returns the
// response body.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	op := errors.Op("eutils." + strings.TrimSuffix(endpoint, ".fcgi"))

	if params == nil {
		params = url.Values{}
	}
	params.Set("tool", c.cfg.Tool)
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	if err := c.wait(ctx); err != nil {
		return nil, errors.E(op, errors.KindNetwork, err)
	}

	reqURL := c.cfg.BaseURL + endpoint + "?" + params.Encode()
	if c.cfg.Debug {
		log.Printf("Debug: GET %s", reqURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.E(op, errors.KindNetwork, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}
	return body, nil
}

// SearchResult is the part of an esearch response sradb uses.
type SearchResult struct {
	Count int
	IDs   []string
}

type esearchResponse struct {
	Result struct {
		Count     string   `json:"count"`
		IDList    []string `json:"idlist"`
		ErrorList *struct {
			PhraseNotFound []string `json:"phrasesnotfound"`
			FieldNotFound  []string `json:"fieldsnotfound"`
		} `json:"errorlist"`
		Error string `json:"ERROR"`
	} `json:"esearchresult"`
}

// ESearch runs esearch and returns up to retmax UIDs starting at retstart.
func (c *Client) ESearch(ctx context.Context, db, term string, retstart, retmax int) (*SearchResult, error) {
	const op errors.Op = "eutils.esearch"

	params := url.Values{}
	params.Set("db", db)
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retstart", strconv.Itoa(retstart))
	params.Set("retmax", strconv.Itoa(retmax))

	body, err := c.Get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.E(op, errors.KindParse, err, "invalid esearch response")
	}
	if resp.Result.Error != "" {
		return nil, errors.E(op, errors.KindSearch, resp.Result.Error)
	}
	if el := resp.Result.ErrorList; el != nil && len(el.FieldNotFound) > 0 {
		return nil, errors.IncorrectField(op, strings.Join(el.FieldNotFound, ","), "not a searchable field of %s", db)
	}

	count, _ := strconv.Atoi(resp.Result.Count)
	return &SearchResult{Count: count, IDs: resp.Result.IDList}, nil
}

// ESearchAll pages through esearch until limit UIDs (or all, when limit is
// zero or negative) are collected.
func (c *Client) ESearchAll(ctx context.Context, db, term string, limit int) (*SearchResult, error) {
	const page = 500

	all := &SearchResult{}
	for start := 0; ; start += page {
		size := page
		if limit > 0 && limit-len(all.IDs) < size {
			size = limit - len(all.IDs)
		}
		res, err := c.ESearch(ctx, db, term, start, size)
		if err != nil {
			return nil, err
		}
		all.Count = res.Count
		all.IDs = append(all.IDs, res.IDs...)

		if len(res.IDs) == 0 || len(all.IDs) >= res.Count || (limit > 0 && len(all.IDs) >= limit) {
			return all, nil
		}
	}
}

// EFetch fetches records for uids and returns the raw body.
func (c *Client) EFetch(ctx context.Context, db string, uids []string, retmode string) ([]byte, error) {
	params := url.Values{}
	params.Set("db", db)
	params.Set("id", strings.Join(uids, ","))
	if retmode != "" {
		params.Set("retmode", retmode)
	}
	return c.Get(ctx, "efetch.fcgi", params)
}

// ESummary fetches JSON document summaries and returns them in uid order.
func (c *Client) ESummary(ctx context.Context, db string, uids []string) ([]json.RawMessage, error) {
	const op errors.Op = "eutils.esummary"

	params := url.Values{}
	params.Set("db", db)
	params.Set("id", strings.Join(uids, ","))
	params.Set("retmode", "json")

	body, err := c.Get(ctx, "esummary.fcgi", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
		Error  string                     `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.E(op, errors.KindParse, err, "invalid esummary response")
	}
	if resp.Error != "" {
		return nil, errors.E(op, errors.KindSearch, resp.Error)
	}

	var order []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, errors.E(op, errors.KindParse, err, "invalid uid list")
		}
	}
	docs := make([]json.RawMessage, 0, len(order))
	for _, uid := range order {
		if doc, ok := resp.Result[uid]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// chunk splits ids into slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
