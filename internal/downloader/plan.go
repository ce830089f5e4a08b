// Package downloader fetches run files listed in a metadata table and the
// SRAmetadb snapshot.
package downloader

import (
	"log"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/table"
)

// DefaultColumn is the metadata column holding download URLs.
const DefaultColumn = "sra_url"

// Task is one file to download.
type Task struct {
	Study      string
	Experiment string
	Run        string
	URL        string
	// MD5 is the expected checksum, when the table provides one.
	MD5  string
	Path string
	// Size is filled in by Downloader.Sizes; -1 when unknown.
	Size int64
}

// PlanOptions controls how a metadata table turns into tasks.
type PlanOptions struct {
	// Column names the column holding URLs. Cells may list several URLs
	// separated by ';'.
	Column string
	OutDir string
	// Experiments restricts the plan to these experiment accessions.
	Experiments []string
}

// Plan builds the download list for t. Files are laid out as
// <out>/<study>/<experiment>/<file>. Rows without a URL are skipped.
func Plan(t *table.Table, opts PlanOptions) ([]Task, error) {
	const op errors.Op = "downloader.Plan"

	if opts.Column == "" {
		opts.Column = DefaultColumn
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}

	urlIdx := t.Index(opts.Column)
	if urlIdx < 0 {
		return nil, errors.E(op, errors.KindValidation, "table has no "+opts.Column+" column")
	}
	studyIdx := t.Index(accession.ColStudy)
	expIdx := t.Index(accession.ColExperiment)
	if studyIdx < 0 || expIdx < 0 {
		return nil, errors.E(op, errors.KindValidation, "table needs study_accession and experiment_accession columns")
	}
	runIdx := t.Index(accession.ColRun)
	md5Idx := t.Index(md5Column(opts.Column))

	keep := make(map[string]bool, len(opts.Experiments))
	for _, e := range opts.Experiments {
		keep[accession.Normalize(e)] = true
	}

	var tasks []Task
	seen := make(map[string]bool)
	skipped := errors.NewSkipCounter("download plan")
	for _, row := range t.Rows {
		exp := row[expIdx]
		if len(keep) > 0 && !keep[exp] {
			continue
		}
		cell := strings.TrimSpace(row[urlIdx])
		if cell == "" {
			skipped.Skip(errors.E(op, errors.KindValidation, "empty "+opts.Column), exp)
			continue
		}

		var md5s []string
		if md5Idx >= 0 {
			md5s = strings.Split(row[md5Idx], ";")
		}
		for i, raw := range strings.Split(cell, ";") {
			u := normalizeURL(raw)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true

			task := Task{Study: row[studyIdx], Experiment: exp, URL: u, Size: -1}
			if runIdx >= 0 {
				task.Run = row[runIdx]
			}
			if i < len(md5s) {
				task.MD5 = strings.TrimSpace(md5s[i])
			}
			task.Path = filepath.Join(opts.OutDir, task.Study, task.Experiment, fileName(task, opts.Column))
			tasks = append(tasks, task)
		}
	}
	skipped.Report()
	if len(tasks) == 0 {
		log.Printf("Warning: no downloadable files in column %s", opts.Column)
	}
	return tasks, nil
}

func md5Column(column string) string {
	if strings.HasSuffix(column, "_ftp") {
		return strings.TrimSuffix(column, "_ftp") + "_md5"
	}
	return column + "_md5"
}

// normalizeURL adds a scheme to bare host paths such as ENA fastq_ftp cells.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

// fileName picks the local file name. SRA object URLs usually end in the
// bare run accession, so those get a .sra suffix.
func fileName(t Task, column string) string {
	base := ""
	if u, err := url.Parse(t.URL); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "/" || base == "." {
		base = t.Run
	}
	if column == DefaultColumn && path.Ext(base) != ".sra" {
		name := t.Run
		if name == "" {
			name = strings.SplitN(base, ".", 2)[0]
		}
		return name + ".sra"
	}
	return base
}
