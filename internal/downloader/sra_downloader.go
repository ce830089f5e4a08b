package downloader

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/nishad/sradb/internal/errors"
)

// Protocol selects how files are transferred.
type Protocol int

const (
	// ProtocolHTTP downloads over plain HTTP(S), like wget.
	ProtocolHTTP Protocol = iota
	// ProtocolAspera shells out to ascp.
	ProtocolAspera
)

// ParseProtocol parses "http", "wget" or "aspera".
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(s) {
	case "", "http", "https", "wget":
		return ProtocolHTTP, nil
	case "aspera", "ascp":
		return ProtocolAspera, nil
	}
	return ProtocolHTTP, fmt.Errorf("unknown protocol %q (want http or aspera)", s)
}

func (p Protocol) String() string {
	if p == ProtocolAspera {
		return "aspera"
	}
	return "http"
}

// Config holds downloader settings.
type Config struct {
	Protocol Protocol
	// AsperaKey is the ascp private key; empty searches the usual places.
	AsperaKey string
	// Progress receives progress bars; nil disables them.
	Progress   io.Writer
	Verbose    bool
	HTTPClient *http.Client
}

// Result describes a finished download.
type Result struct {
	Task     Task
	Size     int64
	MD5      string
	Skipped  bool
	Duration time.Duration
}

// Downloader fetches files one at a time.
type Downloader struct {
	config     Config
	httpClient *http.Client
}

// New creates a downloader.
func New(config Config) *Downloader {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 0, // No timeout for large downloads
		}
	}
	return &Downloader{config: config, httpClient: client}
}

// Sizes looks up the remote size of each task with HEAD requests. Unknown
// sizes stay at -1. It returns the sum of the known sizes.
func (d *Downloader) Sizes(ctx context.Context, tasks []Task) int64 {
	var total int64
	for i := range tasks {
		size, err := d.remoteSize(ctx, tasks[i].URL)
		if err != nil {
			if d.config.Verbose {
				log.Printf("Debug: size of %s unknown: %v", tasks[i].URL, err)
			}
			continue
		}
		tasks[i].Size = size
		total += size
	}
	return total
}

// Run downloads tasks sequentially, stopping at the first failure.
func (d *Downloader) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	results := make([]Result, 0, len(tasks))
	for _, task := range tasks {
		res, err := d.Download(ctx, task)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

// Download fetches a single task into task.Path. Existing files are kept.
func (d *Downloader) Download(ctx context.Context, task Task) (*Result, error) {
	const op errors.Op = "downloader.Download"

	startTime := time.Now()
	result := &Result{Task: task}

	if stat, err := os.Stat(task.Path); err == nil {
		if d.config.Verbose {
			log.Printf("File already exists: %s (%.2f MB)", task.Path, float64(stat.Size())/(1024*1024))
		}
		result.Size = stat.Size()
		result.Skipped = true
		result.Duration = time.Since(startTime)
		return result, nil
	}

	if err := os.MkdirAll(filepath.Dir(task.Path), 0755); err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}

	var err error
	if d.config.Protocol == ProtocolAspera {
		err = d.downloadWithAspera(ctx, task)
	} else {
		err = d.downloadWithHTTP(ctx, task)
	}
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "failed to download "+task.URL)
	}

	stat, err := os.Stat(task.Path)
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}
	result.Size = stat.Size()

	if task.MD5 != "" {
		sum, err := calculateMD5(task.Path)
		if err != nil {
			return nil, errors.E(op, errors.KindIO, err)
		}
		if !strings.EqualFold(sum, task.MD5) {
			errors.IgnoreError(os.Remove(task.Path), "removing corrupt download")
			return nil, errors.E(op, errors.KindValidation, fmt.Sprintf("checksum mismatch for %s: got %s, want %s", task.Path, sum, task.MD5))
		}
		result.MD5 = sum
	}

	result.Duration = time.Since(startTime)
	return result, nil
}

// downloadWithHTTP streams url to a temporary file and renames it into place.
func (d *Downloader) downloadWithHTTP(ctx context.Context, task Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmpPath := task.Path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var dst io.Writer = out
	if d.config.Progress != nil {
		bar := newBar(d.config.Progress, resp.ContentLength, filepath.Base(task.Path))
		defer bar.Finish()
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		errors.IgnoreError(os.Remove(tmpPath), "removing partial download")
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, task.Path)
}

func newBar(w io.Writer, size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// downloadWithAspera runs ascp against the Aspera form of the URL.
func (d *Downloader) downloadWithAspera(ctx context.Context, task Task) error {
	asperaURL := AsperaURL(task.URL)
	if asperaURL == "" {
		// No Aspera mirror for this host
		return d.downloadWithHTTP(ctx, task)
	}
	if _, err := exec.LookPath("ascp"); err != nil {
		return fmt.Errorf("ascp not found in PATH; install Aspera Connect or use --use-wget")
	}

	args := []string{
		"-k", "1", // Resume partial transfers
		"-T",         // No encryption
		"-l", "300m", // Target rate
	}
	if key := d.asperaKeyPath(); key != "" {
		args = append(args, "-i", key)
	}
	args = append(args, asperaURL, task.Path)

	cmd := exec.CommandContext(ctx, "ascp", args...)
	if d.config.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// AsperaURL converts an NCBI or EBI FTP/HTTP URL to its ascp source, or
// returns "" when the host has no Aspera endpoint.
func AsperaURL(url string) string {
	for _, m := range []struct{ prefix, aspera string }{
		{"ftp://ftp-trace.ncbi.nlm.nih.gov", "anonftp@ftp.ncbi.nlm.nih.gov:"},
		{"https://ftp-trace.ncbi.nlm.nih.gov", "anonftp@ftp.ncbi.nlm.nih.gov:"},
		{"ftp://ftp.sra.ebi.ac.uk", "era-fasp@fasp.sra.ebi.ac.uk:"},
		{"http://ftp.sra.ebi.ac.uk", "era-fasp@fasp.sra.ebi.ac.uk:"},
		{"https://ftp.sra.ebi.ac.uk", "era-fasp@fasp.sra.ebi.ac.uk:"},
	} {
		if strings.HasPrefix(url, m.prefix) {
			return m.aspera + strings.TrimPrefix(url, m.prefix)
		}
	}
	return ""
}

// asperaKeyPath returns the configured key or the first key found in the
// usual Aspera Connect locations.
func (d *Downloader) asperaKeyPath() string {
	if d.config.AsperaKey != "" {
		return d.config.AsperaKey
	}
	home, _ := os.UserHomeDir()
	for _, p := range []string{
		filepath.Join(home, ".aspera/connect/etc/asperaweb_id_dsa.openssh"),
		"/opt/aspera/etc/asperaweb_id_dsa.openssh",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (d *Downloader) remoteSize(ctx context.Context, url string) (int64, error) {
	if !strings.HasPrefix(url, "http") {
		return -1, fmt.Errorf("size lookup needs http(s)")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return -1, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength < 0 {
		return -1, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.ContentLength, nil
}

// calculateMD5 calculates the MD5 checksum of a file
func calculateMD5(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
