package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/engine"
)

var (
	runChoices []string
	runFlags   mergeOutputFlags
)

func init() {
	rootCmd.AddCommand(runCmd)
	addOptionFlags(runCmd)
	addMergeOutputFlags(runCmd, &runFlags)
	runCmd.Flags().StringArrayVar(&runChoices, "choose", nil, "Conflict choice for an original record: IDX=update|ignore (repeatable)")
}

var runCmd = &cobra.Command{
	Use:   "run ORIGINAL UPDATED",
	Short: "Analyze and merge in one step without storing a session",
	Long: `Analyze two documents, apply any conflict choices and merge immediately.

Nothing is written to the session database. If conflicts remain, they are
reported with exit code 4; rerun with --choose for every candidate.

Examples:
  refmerge run orig.xml corrected.xml -o merged.xml
  refmerge run orig.xml corrected.xml --fuzzy-matching=false --choose 3=update --choose 7=ignore`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	opts := mustLoadOptions(cmd)
	choices, err := parseChoices(runChoices)
	exitOnError(err, "parsing choices")

	original := mustReadFile(args[0])
	updated := mustReadFile(args[1])

	s, err := engine.New(opts, logger).Analyze(original, updated)
	exitOnError(err, "analyzing")
	if len(choices) > 0 {
		exitOnError(s.Resolve(choices), "resolving")
	}

	res := mustMerge("", s)
	outputMerge(MergeResponse{}, res, runFlags)
	return nil
}
