package main

import (
	"github.com/spf13/cobra"

	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/resolver"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata [<accession> ...]",
	Short: "List run-level metadata",
	Long: `List one row per run for studies, experiments, samples, runs, GEO series
or GEO samples. Identifier kinds may be mixed.`,
	Example: `  sradb metadata SRP000001
  sradb metadata GSE1000 --assay --desc
  sradb metadata SRP000001 --detailed --saveto SRP000001.tsv`,
	RunE: runMetadata,
}

var (
	metadataAssay bool
	metadataFlags = &resolveFlags{}
)

func init() {
	metadataCmd.Flags().BoolVar(&metadataAssay, "assay", false, "Include library strategy, source and selection")
	metadataFlags.register(metadataCmd.Flags())
}

func runMetadata(cmd *cobra.Command, args []string) error {
	ids, err := collectIDs(args, metadataFlags.batch)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.MissingQuery("metadata", "no accessions provided")
	}

	src, _, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	result, err := resolver.New(src).Metadata(cmd.Context(), resolver.MetadataRequest{
		IDs:                    ids,
		Assay:                  metadataAssay,
		Detailed:               metadataFlags.detailed,
		SampleAttributes:       metadataFlags.desc,
		ExpandSampleAttributes: metadataFlags.expand,
	})
	if err != nil {
		return err
	}
	return metadataFlags.output.write(result.Table, result.Errors)
}
