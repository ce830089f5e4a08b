package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nishad/sradb/internal/accession"
	"github.com/nishad/sradb/internal/errors"
	"github.com/nishad/sradb/internal/resolver"
)

// resolveFlags are shared by every <from>-to-<to> command and convert.
type resolveFlags struct {
	detailed bool
	desc     bool
	expand   bool
	batch    string
	output   outputFlags
}

func (f *resolveFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.detailed, "detailed", false, "Output additional columns")
	fs.BoolVar(&f.desc, "desc", false, "Append sample attributes as columns")
	fs.BoolVar(&f.expand, "expand", false, "Like --desc, one row per repeated attribute value")
	fs.StringVar(&f.batch, "batch", "", "Read identifiers from file (one per line)")
	fs.StringVar(&f.output.saveTo, "saveto", "", "Save results to file (.csv for comma separated, tab separated otherwise)")
	fs.StringVarP(&f.output.format, "format", "f", "tsv", "Output format (tsv|csv|table|json|yaml)")
}

// pairCommands builds one command per ordered identifier pair, e.g. srp-to-srr.
func pairCommands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, pair := range resolver.Pairs() {
		flags := &resolveFlags{}
		cmd := &cobra.Command{
			Use:   pair.String() + " [<" + strings.ToUpper(pair.From.String()) + "> ...]",
			Short: fmt.Sprintf("Get %s identifiers for %s identifiers", pair.To.Name(), pair.From.Name()),
			Example: fmt.Sprintf("  sradb %s %s000001\n  sradb %s --batch ids.txt --detailed --saveto out.tsv",
				pair, strings.ToUpper(pair.From.String()), pair),
			GroupID: "convert",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runResolve(cmd, args, pair.From, pair.To, flags)
			},
		}
		flags.register(cmd.Flags())
		cmds = append(cmds, cmd)
	}
	return cmds
}

var convertCmd = &cobra.Command{
	Use:   "convert [<accession> ...] --to <KIND>",
	Short: "Convert identifiers to another kind",
	Long: `Convert SRA and GEO identifiers to another kind. The source kind is taken
from the prefix of the first identifier; every identifier must share it.

Kinds: SRP (study), SRX (experiment), SRS (sample), SRR (run), GSE, GSM.`,
	Example: `  # GEO series to SRA study
  sradb convert GSE1000 --to srp

  # From stdin
  echo "SRP000001" | sradb convert --to gse

  # From file
  sradb convert --batch accessions.txt --to srr --detailed`,
	GroupID: "convert",
	RunE:    runConvert,
}

var (
	convertTo    string
	convertFlags = &resolveFlags{}
)

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target identifier kind (srp|srx|srs|srr|gse|gsm)")
	convertCmd.MarkFlagRequired("to")
	convertFlags.register(convertCmd.Flags())

	rootCmd.AddGroup(&cobra.Group{ID: "convert", Title: "Identifier conversion:"})
}

func runConvert(cmd *cobra.Command, args []string) error {
	ids, err := collectIDs(args, convertFlags.batch)
	if err != nil {
		return err
	}
	from, to, err := convertKinds(ids, convertTo)
	if err != nil {
		return err
	}
	return resolveIDs(cmd, ids, from, to, convertFlags)
}

// convertKinds parses the --to value and takes the source kind from the
// prefix of the first identifier.
func convertKinds(ids []string, target string) (from, to accession.Kind, err error) {
	const op errors.Op = "convert"

	to, err = accession.ParseKind(target)
	if err != nil {
		return accession.Unknown, accession.Unknown, errors.IncorrectField(op, "to", "%v", err)
	}
	if len(ids) == 0 {
		return accession.Unknown, accession.Unknown, errors.MissingQuery(op, "no accessions provided")
	}
	from = accession.Detect(ids[0])
	if from == accession.Unknown {
		return accession.Unknown, accession.Unknown, errors.IncorrectField(op, "accession", "cannot tell the kind of %q", ids[0])
	}
	return from, to, nil
}

func runResolve(cmd *cobra.Command, args []string, from, to accession.Kind, flags *resolveFlags) error {
	ids, err := collectIDs(args, flags.batch)
	if err != nil {
		return err
	}
	return resolveIDs(cmd, ids, from, to, flags)
}

func resolveIDs(cmd *cobra.Command, ids []string, from, to accession.Kind, flags *resolveFlags) error {
	src, _, err := openSource()
	if err != nil {
		return err
	}
	defer src.Close()

	printDebug("Resolving %d %s identifiers to %s", len(ids), from, to)
	result, err := resolver.New(src).Resolve(cmd.Context(), resolver.Request{
		IDs:                    ids,
		From:                   from,
		To:                     to,
		Detailed:               flags.detailed,
		SampleAttributes:       flags.desc,
		ExpandSampleAttributes: flags.expand,
	})
	if err != nil {
		return err
	}
	return flags.output.write(result.Table, result.Errors)
}
