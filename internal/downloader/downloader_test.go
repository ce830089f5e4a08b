package downloader

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/table"
	"github.com/nishad/sradb/internal/testutil"
)

func metadataTable() *table.Table {
	t := table.New("study_accession", "experiment_accession", "run_accession", "sra_url", "fastq_ftp", "fastq_md5")
	t.Append([]string{"SRP000001", "SRX000001", "SRR000001", "https://host/sos5/SRR000001/SRR000001.lite.1",
		"ftp.sra.ebi.ac.uk/vol1/fastq/SRR000001_1.fastq.gz;ftp.sra.ebi.ac.uk/vol1/fastq/SRR000001_2.fastq.gz", "aaa;bbb"})
	t.Append([]string{"SRP000001", "SRX000001", "SRR000002", "https://host/sos5/SRR000002/SRR000002", "", ""})
	t.Append([]string{"SRP000001", "SRX000002", "SRR000003", "", "", ""})
	return t
}

func TestPlan(t *testing.T) {
	tasks, err := Plan(metadataTable(), PlanOptions{OutDir: "out"})
	testutil.RequireNoError(t, err, "Plan")

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks (empty url skipped), got %d", len(tasks))
	}
	testutil.AssertEqual(t, tasks[0].Path, filepath.Join("out", "SRP000001", "SRX000001", "SRR000001.sra"), "first path")
	testutil.AssertEqual(t, tasks[1].Path, filepath.Join("out", "SRP000001", "SRX000001", "SRR000002.sra"), "second path")
	testutil.AssertEqual(t, tasks[0].Size, int64(-1), "size unknown")
}

func TestPlanFastqColumn(t *testing.T) {
	tasks, err := Plan(metadataTable(), PlanOptions{Column: "fastq_ftp", OutDir: "out"})
	testutil.RequireNoError(t, err, "Plan")

	if len(tasks) != 2 {
		t.Fatalf("expected one task per fastq file, got %d", len(tasks))
	}
	testutil.AssertEqual(t, tasks[0].URL, "http://ftp.sra.ebi.ac.uk/vol1/fastq/SRR000001_1.fastq.gz", "scheme added")
	testutil.AssertEqual(t, filepath.Base(tasks[1].Path), "SRR000001_2.fastq.gz", "file name")
	testutil.AssertEqual(t, tasks[1].MD5, "bbb", "md5 paired with url")
}

func TestPlanExperimentFilter(t *testing.T) {
	tasks, err := Plan(metadataTable(), PlanOptions{Experiments: []string{"srx000002"}})
	testutil.RequireNoError(t, err, "Plan")
	testutil.AssertEqual(t, len(tasks), 0, "SRX000002 has no url")
}

func TestPlanMissingColumn(t *testing.T) {
	_, err := Plan(metadataTable(), PlanOptions{Column: "aspera_url"})
	if !errors.IsKind(err, errors.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDownloadHTTP(t *testing.T) {
	payload := []byte("@SRR000001.1\nACGT\n+\nIIII\n")
	sum := md5.Sum(payload)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	var progress bytes.Buffer
	d := New(Config{HTTPClient: srv.Client(), Progress: &progress})

	task := Task{URL: srv.URL + "/SRR000001.fastq", MD5: hex.EncodeToString(sum[:]), Path: filepath.Join(dir, "a", "SRR000001.fastq")}
	res, err := d.Download(context.Background(), task)
	testutil.RequireNoError(t, err, "Download")
	testutil.AssertEqual(t, res.Size, int64(len(payload)), "size")
	testutil.AssertEqual(t, res.MD5, task.MD5, "checksum")

	got, _ := os.ReadFile(task.Path)
	if !bytes.Equal(got, payload) {
		t.Errorf("content mismatch")
	}
	if _, err := os.Stat(task.Path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	res, err = d.Download(context.Background(), task)
	testutil.RequireNoError(t, err, "second download")
	if !res.Skipped {
		t.Error("existing file should be skipped")
	}

	_, err = d.Download(context.Background(), Task{URL: srv.URL + "/missing", Path: filepath.Join(dir, "missing")})
	if !errors.IsKind(err, errors.KindNetwork) {
		t.Errorf("expected network error for 404, got %v", err)
	}
}

func TestDownloadChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("corrupt"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "f")
	_, err := New(Config{}).Download(context.Background(), Task{URL: srv.URL, MD5: "00000000000000000000000000000000", Path: path})
	if !errors.IsKind(err, errors.KindValidation) {
		t.Fatalf("expected checksum error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt file should be removed")
	}
}

func TestSizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
		w.Write(bytes.Repeat([]byte("x"), 2048))
	}))
	defer srv.Close()

	tasks := []Task{{URL: srv.URL + "/a", Size: -1}, {URL: "ftp://example.org/b", Size: -1}}
	total := New(Config{}).Sizes(context.Background(), tasks)
	testutil.AssertEqual(t, total, int64(2048), "total")
	testutil.AssertEqual(t, tasks[1].Size, int64(-1), "ftp size unknown")
}

func TestAsperaURL(t *testing.T) {
	tests := map[string]string{
		"ftp://ftp.sra.ebi.ac.uk/vol1/fastq/SRR1/SRR1.fastq.gz":  "era-fasp@fasp.sra.ebi.ac.uk:/vol1/fastq/SRR1/SRR1.fastq.gz",
		"http://ftp.sra.ebi.ac.uk/vol1/fastq/SRR1/SRR1.fastq.gz": "era-fasp@fasp.sra.ebi.ac.uk:/vol1/fastq/SRR1/SRR1.fastq.gz",
		"ftp://ftp-trace.ncbi.nlm.nih.gov/sra/SRR1.sra":          "anonftp@ftp.ncbi.nlm.nih.gov:/sra/SRR1.sra",
		"https://sra-downloadb.be-md.ncbi.nlm.nih.gov/SRR1":      "",
	}
	for in, want := range tests {
		testutil.AssertEqual(t, AsperaURL(in), want, in)
	}
}

func TestParseProtocol(t *testing.T) {
	for in, want := range map[string]Protocol{"": ProtocolHTTP, "wget": ProtocolHTTP, "ASPERA": ProtocolAspera} {
		got, err := ParseProtocol(in)
		testutil.RequireNoError(t, err, in)
		testutil.AssertEqual(t, got, want, in)
	}
	if _, err := ParseProtocol("rsync"); err == nil {
		t.Error("expected error for unknown protocol")
	}
}

func gzipFile(t *testing.T, path string) []byte {
	t.Helper()
	raw, err := os.ReadFile(path)
	testutil.RequireNoError(t, err, "read snapshot")

	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	testutil.RequireNoError(t, zw.Close(), "gzip")
	return buf.Bytes()
}

func TestFetchMetaDB(t *testing.T) {
	compressed := gzipFile(t, testutil.Snapshot(t))
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(compressed)
	}))
	defer srv.Close()

	dir := t.TempDir()
	opts := MetaDBOptions{URL: srv.URL + "/SRAmetadb.sqlite.gz", OutDir: dir, HTTPClient: srv.Client()}

	res, err := FetchMetaDB(context.Background(), opts)
	testutil.RequireNoError(t, err, "FetchMetaDB")
	testutil.AssertEqual(t, res.Path, filepath.Join(dir, MetaDBFile), "path")
	testutil.AssertEqual(t, res.Info.Runs, int64(len(testutil.Records())), "runs")
	if res.Existed {
		t.Error("first fetch should not report an existing snapshot")
	}
	if _, err := os.Stat(res.Path + ".gz"); !os.IsNotExist(err) {
		t.Error("compressed file should be removed without KeepGz")
	}
	if _, err := os.Stat(res.Path + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file should be removed")
	}

	res, err = FetchMetaDB(context.Background(), opts)
	testutil.RequireNoError(t, err, "second fetch")
	if !res.Existed || requests != 1 {
		t.Errorf("existing snapshot should be kept, existed=%v requests=%d", res.Existed, requests)
	}

	opts.Overwrite = true
	opts.KeepGz = true
	res, err = FetchMetaDB(context.Background(), opts)
	testutil.RequireNoError(t, err, "overwrite")
	testutil.AssertEqual(t, requests, 2, "requests after overwrite")
	if _, err := os.Stat(res.Path + ".gz"); err != nil {
		t.Errorf("KeepGz should leave the download: %v", err)
	}
}

func TestFetchMetaDBRejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("not gzip", 10)))
	}))
	defer srv.Close()

	_, err := FetchMetaDB(context.Background(), MetaDBOptions{URL: srv.URL, OutDir: t.TempDir()})
	if !errors.IsKind(err, errors.KindIO) {
		t.Errorf("expected decompression error, got %v", err)
	}
}
