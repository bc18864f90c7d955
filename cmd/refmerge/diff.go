package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/diff"
)

func init() {
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff LEFT RIGHT",
	Short: "Show aligned line and word differences between two documents",
	Long: `Compare two documents line by line. Replaced lines carry a word-level
diff. JSON output lists the aligned rows; --human prints them colored.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

// DiffResponse is the response for the diff command.
type DiffResponse struct {
	Rows  []diff.Row `json:"rows"`
	Stats diff.Stats `json:"stats"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	left := mustReadFile(args[0])
	right := mustReadFile(args[1])

	rows := diff.Compute(left, right)
	if humanOutput {
		printDiffHuman(rows)
		return nil
	}
	outputJSON(DiffResponse{Rows: rows, Stats: diff.Summarize(rows)})
	return nil
}
