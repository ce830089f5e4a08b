package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/nishad/sradb/internal/errors"
)

// Filter field names, as used on the command line and in error messages.
const (
	FieldQuery           = "query"
	FieldAccession       = "accession"
	FieldOrganism        = "organism"
	FieldLayout          = "layout"
	FieldMBases          = "mbases"
	FieldPublicationDate = "publication_date"
	FieldPlatform        = "platform"
	FieldSelection       = "selection"
	FieldSource          = "source"
	FieldStrategy        = "strategy"
	FieldTitle           = "title"
	FieldGEOQuery        = "geo_query"
	FieldGEODatasetType  = "geo_dataset_type"
	FieldGEOEntryType    = "geo_entry_type"
	FieldVerbosity       = "verbosity"
	FieldMax             = "max"
)

// Defaults applied by NewFilters.
const (
	DefaultVerbosity = 2
	DefaultMax       = 20
)

// Filters is the backend-independent search request.
type Filters struct {
	Query           string
	Accession       string
	Organism        string
	Layout          string
	MBases          int
	PublicationDate string
	Platform        string
	Selection       string
	Source          string
	Strategy        string
	Title           string

	GEOQuery       string
	GEODatasetType string
	GEOEntryType   string

	// Verbosity selects output columns, 0 (accessions only) to 3 (all).
	Verbosity int
	Max       int
}

// NewFilters returns filters with the default verbosity and maximum.
func NewFilters() Filters {
	return Filters{Verbosity: DefaultVerbosity, Max: DefaultMax}
}

// Fields returns the names of the query fields that are set, in a fixed
// order.
func (f *Filters) Fields() []string {
	var set []string
	add := func(name string, ok bool) {
		if ok {
			set = append(set, name)
		}
	}
	add(FieldQuery, f.Query != "")
	add(FieldAccession, f.Accession != "")
	add(FieldOrganism, f.Organism != "")
	add(FieldLayout, f.Layout != "")
	add(FieldMBases, f.MBases != 0)
	add(FieldPublicationDate, f.PublicationDate != "")
	add(FieldPlatform, f.Platform != "")
	add(FieldSelection, f.Selection != "")
	add(FieldSource, f.Source != "")
	add(FieldStrategy, f.Strategy != "")
	add(FieldTitle, f.Title != "")
	add(FieldGEOQuery, f.GEOQuery != "")
	add(FieldGEODatasetType, f.GEODatasetType != "")
	add(FieldGEOEntryType, f.GEOEntryType != "")
	return set
}

// Validate checks f against what b supports. It returns a MissingQuery error
// when no field is set and an IncorrectField error naming the first bad
// field otherwise.
func (f *Filters) Validate(b Backend) error {
	const op errors.Op = "search.Validate"

	f.normalize()

	if f.Verbosity < 0 || f.Verbosity > 3 {
		return errors.IncorrectField(op, FieldVerbosity, "must be 0, 1, 2 or 3, got %d", f.Verbosity)
	}
	if f.Max <= 0 {
		return errors.IncorrectField(op, FieldMax, "must be a positive number, got %d", f.Max)
	}

	fields := f.Fields()
	for _, name := range fields {
		if !b.Supports(name) {
			return errors.IncorrectField(op, name, "not supported by the %s search", b.Name())
		}
	}
	if len(fields) == 0 {
		return errors.MissingQuery(op, "no valid query or search fields were supplied; "+
			"provide a query or at least one filter such as --organism or --strategy")
	}

	if f.Layout != "" && f.Layout != "SINGLE" && f.Layout != "PAIRED" {
		return errors.IncorrectField(op, FieldLayout, "must be SINGLE or PAIRED, got %q", f.Layout)
	}
	if f.MBases < 0 {
		return errors.IncorrectField(op, FieldMBases, "must be a positive number, got %d", f.MBases)
	}
	if f.PublicationDate != "" {
		if _, err := ParseDateRange(f.PublicationDate); err != nil {
			return errors.IncorrectField(op, FieldPublicationDate, "%v", err)
		}
	}
	return nil
}

func (f *Filters) normalize() {
	for _, s := range []*string{
		&f.Query, &f.Accession, &f.Organism, &f.Layout, &f.PublicationDate,
		&f.Platform, &f.Selection, &f.Source, &f.Strategy, &f.Title,
		&f.GEOQuery, &f.GEODatasetType, &f.GEOEntryType,
	} {
		*s = strings.TrimSpace(*s)
	}
	f.Layout = strings.ToUpper(f.Layout)
	f.Accession = strings.ToUpper(f.Accession)
}

// DateRange is an inclusive range of publication dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Format renders both ends with layout, joined by sep.
func (r DateRange) Format(layout, sep string) string {
	return r.From.Format(layout) + sep + r.To.Format(layout)
}

// ParseDateRange parses "dd-mm-yyyy" or "dd-mm-yyyy:dd-mm-yyyy". A single
// date gives a one-day range. Other layouts fall back to dateparse, which
// reads slashed dates as mm/dd/yyyy.
func ParseDateRange(s string) (DateRange, error) {
	s = strings.TrimSpace(s)
	if from, to, ok := strings.Cut(s, ":"); ok && strings.Count(s, ":") == 1 {
		start, err := parseDate(from)
		if err != nil {
			return DateRange{}, err
		}
		end, err := parseDate(to)
		if err != nil {
			return DateRange{}, err
		}
		if end.Before(start) {
			return DateRange{}, fmt.Errorf("date range %q ends before it starts", s)
		}
		return DateRange{From: start, To: end}, nil
	}

	d, err := parseDate(s)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{From: d, To: d}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("02-01-2006", s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected dd-mm-yyyy", s)
	}
	return t, nil
}
