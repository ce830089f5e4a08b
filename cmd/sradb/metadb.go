package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nishad/sradb/internal/downloader"
)

var metadbCmd = &cobra.Command{
	Use:   "metadb",
	Short: "Download the SRAmetadb SQLite snapshot",
	Long: `Download SRAmetadb.sqlite.gz and decompress it. Point --db, SRADB_DB or the
database key of the config file at the result to query it offline.

An existing snapshot is kept unless --overwrite is given.`,
	Example: `  sradb metadb
  sradb metadb --out-dir /data/sradb --keep-gz
  sradb metadb --overwrite`,
	Args: cobra.NoArgs,
	RunE: runMetaDB,
}

var (
	metadbOutDir    string
	metadbOverwrite bool
	metadbKeepGz    bool
	metadbURL       string
)

func init() {
	metadbCmd.Flags().StringVar(&metadbOutDir, "out-dir", "", "Directory for the snapshot (default: data directory)")
	metadbCmd.Flags().BoolVar(&metadbOverwrite, "overwrite", false, "Replace an existing snapshot")
	metadbCmd.Flags().BoolVar(&metadbKeepGz, "keep-gz", false, "Keep the compressed download")
	metadbCmd.Flags().StringVar(&metadbURL, "url", "", "Snapshot URL (default from config)")
}

func runMetaDB(cmd *cobra.Command, args []string) error {
	var progress io.Writer = os.Stderr
	if quiet {
		progress = nil
	}

	start := time.Now()
	res, err := downloader.FetchMetaDB(cmd.Context(), downloader.MetaDBOptions{
		URL:       firstNonEmpty(metadbURL, cfg.MetaDB.URL),
		OutDir:    firstNonEmpty(metadbOutDir, cfg.MetaDB.OutDir, "."),
		Overwrite: metadbOverwrite,
		KeepGz:    metadbKeepGz,
		Progress:  progress,
	})
	if err != nil {
		return err
	}

	if res.Existed {
		printWarning("%s already exists; use --overwrite to download it again", res.Path)
	} else {
		printSuccess("Downloaded %s in %s", res.Path, time.Since(start).Round(time.Second))
	}
	printInfo("Runs: %d", res.Info.Runs)
	for _, key := range []string{"schema version", "creation timestamp"} {
		if v, ok := res.Info.Meta[key]; ok {
			printInfo("%s: %s", key, v)
		}
	}
	return nil
}
