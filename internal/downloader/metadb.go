package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/klauspost/pgzip"

	"github.com/nishad/sradb/internal/database"
	"github.com/nishad/sradb/internal/errors"
)

const (
	// DefaultMetaDBURL is the published SRAmetadb snapshot.
	DefaultMetaDBURL = "https://s3.amazonaws.com/starbuck1/sradb/SRAmetadb.sqlite.gz"
	// MetaDBFile is the local snapshot file name.
	MetaDBFile = "SRAmetadb.sqlite"
)

// MetaDBOptions controls FetchMetaDB.
type MetaDBOptions struct {
	URL    string
	OutDir string
	// Overwrite replaces an existing snapshot.
	Overwrite bool
	// KeepGz keeps the compressed download next to the snapshot.
	KeepGz     bool
	Progress   io.Writer
	HTTPClient *http.Client
}

// MetaDBResult describes the snapshot on disk after FetchMetaDB.
type MetaDBResult struct {
	Path string
	// Existed is true when an existing snapshot was kept.
	Existed bool
	Info    *database.Info
}

// FetchMetaDB downloads and decompresses the SRAmetadb snapshot into
// opts.OutDir. A lock file keeps two processes from writing the same
// snapshot.
func FetchMetaDB(ctx context.Context, opts MetaDBOptions) (*MetaDBResult, error) {
	const op errors.Op = "downloader.FetchMetaDB"

	if opts.URL == "" {
		opts.URL = DefaultMetaDBURL
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}

	dbPath := filepath.Join(opts.OutDir, MetaDBFile)
	gzPath := dbPath + ".gz"

	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err, "acquire lock")
	}
	if !ok {
		return nil, errors.E(op, errors.KindIO, "another sradb process is writing "+dbPath)
	}
	defer func() {
		errors.IgnoreError(lock.Unlock(), "releasing metadb lock")
		errors.IgnoreError(os.Remove(lock.Path()), "removing metadb lock file")
	}()

	if _, err := os.Stat(dbPath); err == nil && !opts.Overwrite {
		info, err := inspect(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		return &MetaDBResult{Path: dbPath, Existed: true, Info: info}, nil
	}

	if opts.Overwrite {
		errors.IgnoreError(removeIfExists(gzPath), "removing stale download")
	}

	d := New(Config{Progress: opts.Progress, HTTPClient: opts.HTTPClient})
	if _, err := d.Download(ctx, Task{URL: opts.URL, Path: gzPath, Size: -1}); err != nil {
		return nil, err
	}

	if err := decompress(gzPath, dbPath); err != nil {
		return nil, errors.E(op, errors.KindIO, err, "failed to decompress "+gzPath)
	}
	if !opts.KeepGz {
		errors.IgnoreError(os.Remove(gzPath), "removing compressed snapshot")
	}

	info, err := inspect(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &MetaDBResult{Path: dbPath, Info: info}, nil
}

// decompress gunzips src into dst through a temporary file.
func decompress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := pgzip.NewReader(in)
	if err != nil {
		return err
	}
	defer zr.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func inspect(ctx context.Context, path string) (*database.Info, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	info, err := db.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return info, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
