package main

import (
	"github.com/spf13/cobra"

	"github.com/nishad/sradb/internal/search"
	"github.com/nishad/sradb/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [<query>]",
	Short: "Search SRA, ENA or GEO",
	Long: `Search the SRA (via NCBI E-utilities), the ENA portal API or GEO DataSets.

At least a free-text query or one filter is required. GEO accepts --geo-query,
--geo-dataset-type and --geo-entry-type but not the library filters.

Verbosity selects the columns: 0 accessions only, 1 adds titles,
2 adds the common metadata, 3 everything the service returns.`,
	Example: `  # Free text
  sradb search "liver cancer" -m 50

  # Structured SRA search
  sradb search --organism "Homo sapiens" --strategy RNA-Seq --layout PAIRED \
    --publication-date 01-01-2020:31-12-2020

  # ENA
  sradb search --db ena -q "single cell" --platform ILLUMINA -v 3

  # GEO series
  sradb search --db geo --geo-query brain --geo-entry-type gse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var (
	searchDB      string
	searchFilters = search.NewFilters()
	searchOutput  outputFlags
)

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchDB, "db", search.SRA, "Database to search (sra|ena|geo)")
	f.IntVarP(&searchFilters.Verbosity, "verbosity", "v", search.DefaultVerbosity, "Output columns, 0 to 3")
	f.IntVarP(&searchFilters.Max, "max", "m", search.DefaultMax, "Maximum number of results")

	f.StringVarP(&searchFilters.Query, "query", "q", "", "Free-text query")
	f.StringVar(&searchFilters.Accession, "accession", "", "Study, experiment, sample or run accession")
	f.StringVar(&searchFilters.Organism, "organism", "", "Scientific name of the organism")
	f.StringVar(&searchFilters.Layout, "layout", "", "Library layout (SINGLE|PAIRED)")
	f.IntVar(&searchFilters.MBases, "mbases", 0, "Approximate size of a run in megabases")
	f.StringVar(&searchFilters.PublicationDate, "publication-date", "", "Publication date or range, dd-mm-yyyy[:dd-mm-yyyy]")
	f.StringVar(&searchFilters.Platform, "platform", "", "Sequencing platform (ILLUMINA, OXFORD_NANOPORE, ...)")
	f.StringVar(&searchFilters.Selection, "selection", "", "Library selection (cDNA, ChIP, RANDOM, ...)")
	f.StringVar(&searchFilters.Source, "source", "", "Library source (GENOMIC, TRANSCRIPTOMIC, ...)")
	f.StringVar(&searchFilters.Strategy, "strategy", "", "Library strategy (RNA-Seq, WGS, ...)")
	f.StringVar(&searchFilters.Title, "title", "", "Words in the experiment title")

	f.StringVar(&searchFilters.GEOQuery, "geo-query", "", "GEO-specific free-text query")
	f.StringVar(&searchFilters.GEODatasetType, "geo-dataset-type", "", "GEO dataset type, e.g. \"expression profiling by high throughput sequencing\"")
	f.StringVar(&searchFilters.GEOEntryType, "geo-entry-type", "", "GEO entry type (gse|gds|gpl|gsm)")

	f.StringVar(&searchOutput.saveTo, "saveto", "", "Save results to file (.csv for comma separated, tab separated otherwise)")
	f.StringVarP(&searchOutput.format, "format", "f", "tsv", "Output format (tsv|csv|table|json|yaml)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && searchFilters.Query == "" {
		searchFilters.Query = args[0]
	}

	backend, err := search.New(searchDB, searchOptions())
	if err != nil {
		return err
	}
	if err := searchFilters.Validate(backend); err != nil {
		return err
	}

	spinner := ui.NewSpinner("Searching " + backend.Name())
	if !quiet {
		spinner.Start()
	}
	t, err := backend.Search(cmd.Context(), searchFilters)
	spinner.Stop("")
	if err != nil {
		return err
	}

	if t.Len() == 0 {
		printInfo("No results")
	}
	return searchOutput.write(t, nil)
}
