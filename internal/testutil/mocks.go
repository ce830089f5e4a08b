package testutil

import (
	"context"
	"sync"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/models"
)

// MockSource is an in-memory metadata source over a fixed set of records.
type MockSource struct {
	mu      sync.Mutex
	records []models.Record
	lookups []string
	closed  bool

	// LookupErr, when set, is returned by every Lookup.
	LookupErr error
}

// NewMockSource creates a source over records. A nil slice uses Records().
func NewMockSource(records []models.Record) *MockSource {
	if records == nil {
		records = Records()
	}
	return &MockSource{records: records}
}

// Lookup returns records whose kind column equals id. GSM identifiers match
// either the experiment or the sample alias.
func (m *MockSource) Lookup(ctx context.Context, kind accession.Kind, id string) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, id)

	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []models.Record
	for _, r := range m.records {
		match := r.Field(kind.Column()) == id
		if kind == accession.GSM {
			match = r.ExperimentAlias == id || r.SampleAlias == id
		}
		if match {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, errors.NotFound("mock.Lookup", id)
	}
	return out, nil
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Lookups returns every identifier passed to Lookup, in call order.
func (m *MockSource) Lookups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lookups...)
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
