package database

import (
	"fmt"
	"regexp"
)

// AllowedTables is the whitelist of table names that may be interpolated
// into SQL text.
var AllowedTables = map[string]bool{
	"sra":      true,
	"metaInfo": true,
}

// AllowedColumns is the whitelist of sra columns that may be interpolated
// into SQL text. It covers the canonical schema and the SRAmetadb spellings
// of the same fields.
var AllowedColumns = map[string]bool{
	// Hierarchy
	"study_accession":      true,
	"study_alias":          true,
	"experiment_accession": true,
	"experiment_alias":     true,
	"sample_accession":     true,
	"sample_alias":         true,
	"run_accession":        true,
	"run_alias":            true,

	// Descriptive
	"study_title":       true,
	"experiment_title":  true,
	"sample_title":      true,
	"description":       true,
	"taxon_id":          true,
	"scientific_name":   true,
	"common_name":       true,
	"library_name":      true,
	"library_strategy":  true,
	"library_source":    true,
	"library_selection": true,
	"library_layout":    true,
	"platform":          true,
	"instrument_model":  true,
	"sample_attribute":  true,

	// Run statistics and files
	"spots":        true,
	"bases":        true,
	"run_date":     true,
	"published":    true,
	"sra_url":      true,
	"run_url_link": true,
	"fastq_ftp":    true,
	"SRX_fastqFTP": true,
	"fastq_md5":    true,
}

// ErrInvalidTableName is returned when a table name is not in the whitelist.
var ErrInvalidTableName = fmt.Errorf("invalid table name")

// ErrInvalidColumnName is returned when a column name is not in the whitelist.
var ErrInvalidColumnName = fmt.Errorf("invalid column name")

var validIdentifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateTableName checks if a table name is in the allowed list.
func ValidateTableName(table string) error {
	if !AllowedTables[table] {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return nil
}

// ValidateColumnName checks that a column is whitelisted and well formed.
func ValidateColumnName(column string) error {
	if !AllowedColumns[column] || !validIdentifierPattern.MatchString(column) {
		return fmt.Errorf("%w: %q", ErrInvalidColumnName, column)
	}
	return nil
}

// SafeTableName returns the table name if valid, otherwise returns an error.
func SafeTableName(table string) (string, error) {
	if err := ValidateTableName(table); err != nil {
		return "", err
	}
	return table, nil
}

// MustTableName returns the table name if valid, panics otherwise.
// Use this only for hardcoded table names that are known to be valid.
func MustTableName(table string) string {
	if err := ValidateTableName(table); err != nil {
		panic(fmt.Sprintf("invalid table name in code: %s", table))
	}
	return table
}

// MustColumnName returns the column name if valid, panics otherwise.
// Use this only for hardcoded column names that are known to be valid.
func MustColumnName(column string) string {
	if err := ValidateColumnName(column); err != nil {
		panic(fmt.Sprintf("invalid column name in code: %s", column))
	}
	return column
}
