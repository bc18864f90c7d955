package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/engine"
	"github.com/matsen/refmerge/internal/storage"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addOptionFlags(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze ORIGINAL UPDATED",
	Short: "Match two reference lists and start a merge session",
	Long: `Extract bibliography records from both documents, pair them and store
the resulting decision log as a new session.

Options come from the global config, then REFMERGE_* environment variables,
then flags given here.

Examples:
  refmerge analyze orig.xml corrected.xml
  refmerge analyze orig.xml corrected.xml --fuzzy-matching=false --human`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts := mustLoadOptions(cmd)
	original := mustReadFile(args[0])
	updated := mustReadFile(args[1])

	s, err := engine.New(opts, logger).Analyze(original, updated)
	exitOnError(err, "analyzing")

	db := mustOpenDatabase()
	defer db.Close()

	rec := &storage.Session{OriginalName: args[0], UpdatedName: args[1]}
	mustSaveSession(db, rec, s)

	outputSession(rec.ID, s)
	return nil
}
