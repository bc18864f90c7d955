package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/clipboard"
	"github.com/matsen/refmerge/internal/engine"
	"github.com/matsen/refmerge/internal/storage"
)

// mergeOutputFlags are the output options shared by merge and run.
type mergeOutputFlags struct {
	output   string
	logPath  string
	showDiff bool
	copy     bool
}

var mergeFlags mergeOutputFlags

func init() {
	rootCmd.AddCommand(mergeCmd)
	addMergeOutputFlags(mergeCmd, &mergeFlags)
}

func addMergeOutputFlags(cmd *cobra.Command, f *mergeOutputFlags) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the merged document to this file")
	cmd.Flags().StringVar(&f.logPath, "log", "", "Write the decision log as JSONL to this file")
	cmd.Flags().BoolVar(&f.showDiff, "show-diff", false, "Print the diff against the original (with --human)")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Copy the merged document to the system clipboard")
}

var mergeCmd = &cobra.Command{
	Use:   "merge SESSION",
	Short: "Produce the merged document for a session",
	Long: `Assemble the merged document from the session's decisions and current order.

Fails with exit code 4 while label conflicts are unresolved. Each successful
merge is recorded in the session history.

Examples:
  refmerge merge 3f2a... -o merged.xml --log decisions.jsonl
  refmerge merge 3f2a... --human --show-diff`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	db := mustOpenDatabase()
	defer db.Close()
	rec, s := mustLoadSession(db, args[0])

	res := mustMerge(rec.ID, s)

	run, err := db.RecordRun(rec.ID, res)
	if err != nil {
		exitWithError(ExitError, "recording merge: %v", err)
	}

	resp := MergeResponse{SessionID: rec.ID, RunID: run.ID}
	outputMerge(resp, res, mergeFlags)
	return nil
}

// mustMerge runs the merge, reporting pending conflicts with exit code 4.
func mustMerge(id string, s *engine.Session) *engine.Result {
	res, err := s.Merge()
	if err == nil {
		return res
	}

	var cerr *engine.ConflictError
	if errors.As(err, &cerr) {
		views := buildConflictViews(s)
		if humanOutput {
			printConflictsHuman(views)
		} else {
			outputJSON(ConflictResponse{Error: err.Error(), SessionID: id, Conflicts: views})
		}
		os.Exit(ExitUnresolvedConflict)
	}
	exitOnError(err, "merging")
	return nil
}

// outputMerge writes the requested files and reports the result.
func outputMerge(resp MergeResponse, res *engine.Result, f mergeOutputFlags) {
	resp.Records = len(res.Order)
	resp.Stats = res.Stats
	output, logPath, showDiff := f.output, f.logPath, f.showDiff

	if output != "" {
		if err := os.WriteFile(output, []byte(res.Merged), 0644); err != nil {
			exitWithError(ExitError, "writing merged document: %v", err)
		}
		resp.Output = output
	}
	if logPath != "" {
		if err := storage.WriteDecisions(logPath, res.Decisions); err != nil {
			exitWithError(ExitError, "writing decision log: %v", err)
		}
		resp.LogPath = logPath
	}
	if f.copy {
		if err := clipboard.Copy(res.Merged); err != nil {
			exitWithError(ExitError, "copying to clipboard: %v", err)
		}
		resp.Copied = true
	}

	if !humanOutput {
		if output == "" {
			resp.Merged = res.Merged
		}
		outputJSON(resp)
		return
	}

	if showDiff {
		printDiffHuman(res.Diff)
		fmt.Println()
	}
	if output == "" && !showDiff && !f.copy {
		fmt.Print(res.Merged)
		return
	}
	fmt.Printf("Merged %d records", resp.Records)
	if resp.Output != "" {
		fmt.Printf(" into %s", resp.Output)
	}
	fmt.Println()
	if resp.LogPath != "" {
		fmt.Printf("Decision log written to %s\n", resp.LogPath)
	}
	if resp.Copied {
		fmt.Println("Copied to clipboard")
	}
	if resp.SessionID != "" {
		fmt.Printf("Session %s, run %d\n", resp.SessionID, resp.RunID)
	}
}
