// Package search queries the SRA, ENA and GEO search services with a common
// set of filters.
package search

import (
	"context"
	"net/http"
	"strings"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/sraweb"
	"github.com/nishad/sradb/internal/table"
)

// Backend translates Filters into one remote service's query syntax.
type Backend interface {
	// Name returns the backend name used on the command line.
	Name() string
	// Supports reports whether the backend understands a filter field.
	Supports(field string) bool
	// Search runs validated filters and returns at most f.Max rows.
	Search(ctx context.Context, f Filters) (*table.Table, error)
}

// Backend names.
const (
	SRA = "sra"
	ENA = "ena"
	GEO = "geo"
)

// Names lists the available backends.
var Names = []string{SRA, ENA, GEO}

// Options configures backend construction.
type Options struct {
	// EUtils serves the SRA and GEO backends.
	EUtils *sraweb.Source
	// ENAPortalURL overrides the ENA portal API base.
	ENAPortalURL string
	HTTPClient   *http.Client
}

// New returns the backend called name.
func New(name string, opts Options) (Backend, error) {
	const op errors.Op = "search.New"

	if opts.EUtils == nil {
		opts.EUtils = sraweb.New(sraweb.Config{})
	}
	switch strings.ToLower(name) {
	case SRA, "":
		return &SRABackend{source: opts.EUtils}, nil
	case ENA:
		return NewENABackend(opts.ENAPortalURL, opts.HTTPClient), nil
	case GEO:
		return &GEOBackend{source: opts.EUtils}, nil
	}
	return nil, errors.IncorrectField(op, "db", "unknown search database %q (want sra, ena or geo)", name)
}

// Run validates f against b and runs the search.
func Run(ctx context.Context, b Backend, f Filters) (*table.Table, error) {
	if err := f.Validate(b); err != nil {
		return nil, err
	}
	return b.Search(ctx, f)
}
