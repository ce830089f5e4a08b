package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nishad/sradb/internal/downloader"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/resolver"
	"github.com/nishad/sradb/internal/table"
	"github.com/nishad/sradb/internal/ui"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download SRA or FASTQ files for studies",
	Long: `Download the files behind a metadata table. The table comes from --srp, or
is read from stdin (tab or comma separated, as written by sradb metadata).

Files are stored as <out-dir>/<study>/<experiment>/<file>. Existing files are
skipped, and files with a known MD5 are verified after download.`,
	Example: `  # All runs of a study
  sradb download --srp SRP000001 --out-dir data

  # Only some experiments, FASTQ from ENA
  sradb download --srp SRP000001 --srx SRX000002 --col fastq_ftp

  # From a saved or piped metadata table
  sradb metadata SRP000001 --detailed | sradb download -y`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

var (
	downloadSRP       []string
	downloadSRX       []string
	downloadOutDir    string
	downloadColumn    string
	downloadUseWget   bool
	downloadUseAspera bool
)

func init() {
	downloadCmd.Flags().StringSliceVar(&downloadSRP, "srp", nil, "Study accessions to download")
	downloadCmd.Flags().StringSliceVar(&downloadSRX, "srx", nil, "Only download these experiments")
	downloadCmd.Flags().StringVar(&downloadOutDir, "out-dir", "", "Output directory (default from config)")
	downloadCmd.Flags().StringVar(&downloadColumn, "col", "", "Column holding the URLs (default sra_url)")
	downloadCmd.Flags().BoolVarP(&downloadUseWget, "use-wget", "w", false, "Download over plain HTTP/FTP")
	downloadCmd.Flags().BoolVar(&downloadUseAspera, "use-aspera", false, "Download with ascp")
	downloadCmd.MarkFlagsMutuallyExclusive("use-wget", "use-aspera")
}

func runDownload(cmd *cobra.Command, args []string) error {
	const op errors.Op = "download"
	ctx := cmd.Context()

	protocol, err := downloader.ParseProtocol(cfg.Download.Protocol)
	if err != nil {
		return errors.E(op, errors.KindConfig, err)
	}
	switch {
	case downloadUseWget:
		protocol = downloader.ProtocolHTTP
	case downloadUseAspera:
		protocol = downloader.ProtocolAspera
	}

	outDir := firstNonEmpty(downloadOutDir, cfg.Download.OutDir, ".")
	column := firstNonEmpty(downloadColumn, cfg.Download.Column, downloader.DefaultColumn)

	var (
		metadata  *table.Table
		fromStdin bool
	)
	switch {
	case len(downloadSRP) > 0:
		metadata, err = studyMetadata(cmd, downloadSRP)
	case stdinPiped():
		fromStdin = true
		metadata, err = table.Read(os.Stdin)
	default:
		return errors.MissingQuery(op, "no studies given; use --srp or pipe a metadata table on stdin")
	}
	if err != nil {
		return err
	}

	tasks, err := downloader.Plan(metadata, downloader.PlanOptions{
		Column:      column,
		OutDir:      outDir,
		Experiments: downloadSRX,
	})
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		printInfo("Nothing to download")
		return nil
	}

	var progress io.Writer = os.Stderr
	if quiet {
		progress = nil
	}
	d := downloader.New(downloader.Config{
		Protocol:  protocol,
		AsperaKey: cfg.Download.AsperaKey,
		Progress:  progress,
		Verbose:   verbose,
	})

	if !yes {
		if fromStdin || stdinPiped() {
			printWarning("stdin is not interactive; pass --yes to start the download")
			return nil
		}
		total := d.Sizes(ctx, tasks)
		if !anyKnownSize(tasks) {
			total = -1
		}
		if !ui.Confirm(os.Stdin, os.Stderr, "Download "+ui.DownloadSummary(len(tasks), total)+" to "+outDir+"?") {
			printInfo("Download cancelled")
			return nil
		}
	}

	start := time.Now()
	results, err := d.Run(ctx, tasks)
	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	if err != nil {
		printError("Downloaded %d of %d files before failing", len(results), len(tasks))
		return err
	}
	printSuccess("Downloaded %d files (%d already present) in %s", len(results)-skipped, skipped, time.Since(start).Round(time.Second))
	return nil
}

// studyMetadata fetches detailed run metadata, which carries the URL columns.
func studyMetadata(cmd *cobra.Command, studies []string) (*table.Table, error) {
	src, _, err := openSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	result, err := resolver.New(src).Metadata(cmd.Context(), resolver.MetadataRequest{
		IDs:      studies,
		Detailed: true,
	})
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		printWarning("%s", e.Error())
	}
	return result.Table, nil
}

func anyKnownSize(tasks []downloader.Task) bool {
	for _, t := range tasks {
		if t.Size >= 0 {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
