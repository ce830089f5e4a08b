// Package database reads SRAmetadb snapshots: SQLite files whose denormalized
// sra table carries one row per run together with its experiment, sample and
// study.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/models"
)

// DB wraps a snapshot connection.
type DB struct {
	*sql.DB
	path string
	// columns holds, per record field, the snapshot column that backs it.
	// Fields the snapshot lacks are absent.
	columns map[string]string
}

// field maps a record field onto candidate snapshot columns. The first
// candidate is the name used when creating a snapshot.
type field struct {
	name       string
	candidates []string
	set        func(r *models.Record, v string)
}

var fields = []field{
	{"study_accession", []string{"study_accession"}, func(r *models.Record, v string) { r.StudyAccession = v }},
	{"study_alias", []string{"study_alias"}, func(r *models.Record, v string) { r.StudyAlias = v }},
	{"study_title", []string{"study_title"}, func(r *models.Record, v string) { r.StudyTitle = v }},
	{"experiment_accession", []string{"experiment_accession"}, func(r *models.Record, v string) { r.ExperimentAccession = v }},
	{"experiment_alias", []string{"experiment_alias"}, func(r *models.Record, v string) { r.ExperimentAlias = v }},
	{"experiment_title", []string{"experiment_title"}, func(r *models.Record, v string) { r.ExperimentTitle = v }},
	{"sample_accession", []string{"sample_accession"}, func(r *models.Record, v string) { r.SampleAccession = v }},
	{"sample_alias", []string{"sample_alias"}, func(r *models.Record, v string) { r.SampleAlias = v }},
	{"sample_title", []string{"sample_title", "description"}, func(r *models.Record, v string) { r.SampleTitle = v }},
	{"run_accession", []string{"run_accession"}, func(r *models.Record, v string) { r.RunAccession = v }},
	{"run_alias", []string{"run_alias"}, func(r *models.Record, v string) { r.RunAlias = v }},
	{"taxon_id", []string{"taxon_id"}, func(r *models.Record, v string) { r.TaxonID = int(parseCount(v)) }},
	{"scientific_name", []string{"scientific_name", "common_name"}, func(r *models.Record, v string) { r.ScientificName = v }},
	{"library_name", []string{"library_name"}, func(r *models.Record, v string) { r.LibraryName = v }},
	{"library_strategy", []string{"library_strategy"}, func(r *models.Record, v string) { r.LibraryStrategy = v }},
	{"library_source", []string{"library_source"}, func(r *models.Record, v string) { r.LibrarySource = v }},
	{"library_selection", []string{"library_selection"}, func(r *models.Record, v string) { r.LibrarySelection = v }},
	{"library_layout", []string{"library_layout"}, func(r *models.Record, v string) { r.LibraryLayout = layoutName(v) }},
	{"platform", []string{"platform"}, func(r *models.Record, v string) { r.Platform = v }},
	{"instrument_model", []string{"instrument_model"}, func(r *models.Record, v string) { r.InstrumentModel = v }},
	{"spots", []string{"spots"}, func(r *models.Record, v string) { r.Spots = parseCount(v) }},
	{"bases", []string{"bases"}, func(r *models.Record, v string) { r.Bases = parseCount(v) }},
	{"published", []string{"run_date", "published"}, func(r *models.Record, v string) { r.Published = v }},
	{"sample_attribute", []string{"sample_attribute"}, func(r *models.Record, v string) { r.SampleAttribute = v }},
	{"sra_url", []string{"sra_url", "run_url_link"}, func(r *models.Record, v string) { r.SRAURL = v }},
	{"fastq_ftp", []string{"fastq_ftp", "SRX_fastqFTP"}, func(r *models.Record, v string) { r.FastqFTP = v }},
	{"fastq_md5", []string{"fastq_md5"}, func(r *models.Record, v string) { r.FastqMD5 = v }},
}

// parseCount reads an integer cell. SRAmetadb declares spots and bases REAL,
// and large REAL values reach us in exponent notation such as "1.2345678e+07".
func parseCount(v string) int64 {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}

// layoutName reduces SRAmetadb layout text such as "PAIRED - NOMINAL_LENGTH: 300"
// to SINGLE or PAIRED.
func layoutName(v string) string {
	upper := strings.ToUpper(v)
	switch {
	case strings.HasPrefix(upper, "PAIRED"):
		return "PAIRED"
	case strings.HasPrefix(upper, "SINGLE"):
		return "SINGLE"
	}
	return v
}

// Open opens an existing snapshot read-only. A missing file, or a file
// without an sra table, is reported as a snapshot error naming the path.
func Open(path string) (*DB, error) {
	const op errors.Op = "database.Open"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.E(op, errors.KindSnapshot, fmt.Sprintf("%s does not exist", path))
		}
		return nil, errors.E(op, errors.KindSnapshot, err, path)
	}
	if info.IsDir() {
		return nil, errors.E(op, errors.KindSnapshot, fmt.Sprintf("%s is a directory", path))
	}

	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, errors.E(op, errors.KindSnapshot, err, "failed to open "+path)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{DB: conn, path: path}
	if err := db.loadColumns(); err != nil {
		conn.Close()
		return nil, errors.E(op, errors.KindSnapshot, err, path+" is not an SRAmetadb snapshot")
	}
	return db, nil
}

// Create builds an empty snapshot at path with the canonical schema.
func Create(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := createTables(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	db := &DB{DB: conn, path: path}
	if err := db.loadColumns(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	defs := make([]string, 0, len(fields)+1)
	defs = append(defs, "sra_ID INTEGER PRIMARY KEY")
	for _, f := range fields {
		typ := "TEXT"
		switch f.name {
		case "taxon_id", "spots", "bases":
			typ = "INTEGER"
		}
		defs = append(defs, MustColumnName(f.candidates[0])+" "+typ)
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS sra (
		%s
	);

	CREATE TABLE IF NOT EXISTS metaInfo (
		name TEXT PRIMARY KEY,
		value TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sra_study ON sra(study_accession);
	CREATE INDEX IF NOT EXISTS idx_sra_experiment ON sra(experiment_accession);
	CREATE INDEX IF NOT EXISTS idx_sra_sample ON sra(sample_accession);
	CREATE INDEX IF NOT EXISTS idx_sra_run ON sra(run_accession);
	CREATE INDEX IF NOT EXISTS idx_sra_study_alias ON sra(study_alias);
	CREATE INDEX IF NOT EXISTS idx_sra_experiment_alias ON sra(experiment_alias);
	CREATE INDEX IF NOT EXISTS idx_sra_sample_alias ON sra(sample_alias);
	`, strings.Join(defs, ",\n\t\t"))

	_, err := db.Exec(schema)
	return err
}

// loadColumns inspects the sra table and records which fields it can serve.
func (db *DB) loadColumns() error {
	rows, err := db.Query("PRAGMA table_info(" + MustTableName("sra") + ")")
	if err != nil {
		return err
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(present) == 0 {
		return fmt.Errorf("missing sra table")
	}

	db.columns = make(map[string]string, len(fields))
	for _, f := range fields {
		for _, c := range f.candidates {
			if present[c] && ValidateColumnName(c) == nil {
				db.columns[f.name] = c
				break
			}
		}
	}
	for _, required := range []string{"study_accession", "experiment_accession", "sample_accession", "run_accession"} {
		if _, ok := db.columns[required]; !ok {
			return fmt.Errorf("sra table has no %s column", required)
		}
	}
	return nil
}

// Path returns the snapshot file path.
func (db *DB) Path() string {
	return db.path
}

// Lookup returns every run row whose kind column equals id, ordered by
// experiment and run accession. GSM identifiers match either the experiment
// or the sample alias.
func (db *DB) Lookup(ctx context.Context, kind accession.Kind, id string) ([]models.Record, error) {
	const op errors.Op = "database.Lookup"

	var where string
	var args []interface{}
	switch kind {
	case accession.GSM:
		if db.columns["experiment_alias"] == "" || db.columns["sample_alias"] == "" {
			return nil, errors.E(op, errors.KindSnapshot, "snapshot has no alias columns")
		}
		where = fmt.Sprintf("%s = ? OR %s = ?", db.columns["experiment_alias"], db.columns["sample_alias"])
		args = []interface{}{id, id}
	case accession.Unknown:
		return nil, errors.E(op, errors.KindValidation, "unknown identifier kind")
	default:
		col, ok := db.columns[kind.Column()]
		if !ok {
			return nil, errors.E(op, errors.KindSnapshot, fmt.Sprintf("snapshot has no %s column", kind.Column()))
		}
		where = col + " = ?"
		args = []interface{}{id}
	}

	selected := make([]field, 0, len(fields))
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if c, ok := db.columns[f.name]; ok {
			selected = append(selected, f)
			cols = append(cols, c)
		}
	}

	// #nosec G201 - column names come from the AllowedColumns whitelist
	query := fmt.Sprintf("SELECT %s FROM sra WHERE %s ORDER BY %s, %s",
		strings.Join(cols, ", "), where, db.columns["experiment_accession"], db.columns["run_accession"])

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.E(op, errors.KindDatabase, err, "query "+id)
	}
	defer rows.Close()

	scanner := errors.NewRowScanner("scan sra rows")
	values := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	var records []models.Record
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			scanner.RecordSkip(err, id)
			continue
		}
		var rec models.Record
		for i, f := range selected {
			if values[i].Valid {
				f.set(&rec, strings.TrimSpace(values[i].String))
			}
		}
		records = append(records, rec)
		scanner.RecordScan()
	}
	scanner.Report()
	if err := rows.Err(); err != nil {
		return nil, errors.E(op, errors.KindDatabase, err, "query "+id)
	}

	if len(records) == 0 {
		return nil, errors.NotFound(op, id)
	}
	return records, nil
}

// Insert adds records to the sra table in one transaction.
func (db *DB) Insert(records ...models.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	cols := make([]string, 0, len(fields))
	marks := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, db.columns[f.name])
		marks = append(marks, "?")
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO sra (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		args := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			args = append(args, insertValue(&records[i], f.name))
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", records[i].RunAccession, err)
		}
	}
	return tx.Commit()
}

func insertValue(r *models.Record, name string) interface{} {
	switch name {
	case "taxon_id":
		return r.TaxonID
	case "spots":
		return r.Spots
	case "bases":
		return r.Bases
	case "scientific_name":
		return r.ScientificName
	case "published":
		return r.Published
	}
	return r.Field(name)
}

// SetMetaInfo records a name/value pair in the metaInfo table.
func (db *DB) SetMetaInfo(name, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO metaInfo (name, value) VALUES (?, ?)`, name, value)
	return err
}

// Info summarizes a snapshot.
type Info struct {
	Path     string            `json:"path"`
	Size     int64             `json:"size"`
	Runs     int64             `json:"runs"`
	Modified time.Time         `json:"modified"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// GetInfo returns the snapshot size, run count and metaInfo entries.
func (db *DB) GetInfo(ctx context.Context) (*Info, error) {
	info := &Info{Path: db.path, Meta: make(map[string]string)}
	if stat, err := os.Stat(db.path); err == nil {
		info.Size = stat.Size()
		info.Modified = stat.ModTime()
	}

	runs, err := db.CountTable(ctx, "sra")
	if err != nil {
		return nil, err
	}
	info.Runs = runs

	rows, err := db.QueryContext(ctx, `SELECT name, value FROM metaInfo`)
	if err != nil {
		// Older snapshots have no metaInfo table.
		return info, nil
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			continue
		}
		info.Meta[name] = value.String
	}
	return info, rows.Err()
}

// CountTable counts rows in a whitelisted table.
func (db *DB) CountTable(ctx context.Context, table string) (int64, error) {
	safeTable, err := SafeTableName(table)
	if err != nil {
		return 0, fmt.Errorf("CountTable: %w", err)
	}

	var count int64
	err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", safeTable)).Scan(&count)
	return count, err
}
