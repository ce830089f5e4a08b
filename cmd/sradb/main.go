package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nishad/sradb/internal/config"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/ui"
)

// Version info
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Global flags
var (
	configPath string
	dbPath     string
	noColor    bool
	quiet      bool
	verbose    bool
	yes        bool
	debug      bool
)

// cfg is loaded once before any command runs.
var cfg *config.Config

// Root command
var rootCmd = &cobra.Command{
	Use:   "sradb",
	Short: "Query SRA, ENA and GEO metadata",
	Long: `sradb converts between SRA and GEO identifiers, lists run-level metadata,
searches SRA, ENA and GEO, and downloads the files behind them.

Metadata comes from the live NCBI E-utilities API unless a local SRAmetadb
snapshot is given with --db, SRADB_DB or the config file.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Example: `  # Runs of a study
  sradb srp-to-srr SRP000001

  # GEO samples to SRA experiments, with sample attributes
  sradb gsm-to-srx GSM100001 GSM100002 --desc

  # Run metadata from a local snapshot
  sradb metadata SRP000001 --detailed --db SRAmetadb.sqlite

  # Search ENA
  sradb search --db ena --organism "Homo sapiens" --strategy RNA-Seq -m 50`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $SRADB_CONFIG or ~/.config/sradb/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SRAmetadb snapshot to query instead of the live API")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	// -v and -q belong to search's --verbosity and --query
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "Assume yes to all prompts (non-interactive mode)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(metadbCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	for _, cmd := range pairCommands() {
		rootCmd.AddCommand(cmd)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if noColor {
		ui.DisableColor()
	}

	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return errors.E(errors.Op("config.Load"), errors.KindConfig, err, path)
	}
	if dbPath != "" {
		loaded.Database = dbPath
	}
	cfg = loaded
	printDebug("Config: %s", path)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	printError("%v", err)
	// Query mistakes are reported, not treated as failures.
	if !errors.IsUserError(err) {
		os.Exit(1)
	}
}
