package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/storage"
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, inspect and delete stored merge sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show SESSION",
	Short: "Show a session's decisions and merge history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete SESSION",
	Short: "Delete a session and its merge history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

// SessionListResponse is the response for sessions list.
type SessionListResponse struct {
	Sessions []storage.Summary `json:"sessions"`
}

// SessionShowResponse is the response for sessions show.
type SessionShowResponse struct {
	SessionResponse
	OriginalName string       `json:"original_name"`
	UpdatedName  string       `json:"updated_name"`
	Runs         []RunSummary `json:"runs"`
}

// RunSummary describes a recorded merge without its text.
type RunSummary struct {
	ID       int64  `json:"id"`
	MergedAt string `json:"merged_at"`
	Records  int    `json:"records"`
	Replaced int    `json:"replaced"`
	Inserted int    `json:"inserted"`
	Deleted  int    `json:"deleted"`
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	db := mustOpenDatabase()
	defer db.Close()

	sessions, err := db.List()
	if err != nil {
		exitWithError(ExitError, "listing sessions: %v", err)
	}

	if !humanOutput {
		if sessions == nil {
			sessions = []storage.Summary{}
		}
		outputJSON(SessionListResponse{Sessions: sessions})
		return nil
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %-14s  %d runs  %s -> %s\n",
			s.ID, humanize.Time(s.UpdatedAt), s.Runs,
			truncateString(s.OriginalName, LabelMaxLen), truncateString(s.UpdatedName, LabelMaxLen))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	db := mustOpenDatabase()
	defer db.Close()
	rec, s := mustLoadSession(db, args[0])

	runs, err := db.Runs(rec.ID)
	if err != nil {
		exitWithError(ExitError, "loading runs: %v", err)
	}

	resp := SessionShowResponse{
		SessionResponse: buildSessionResponse(rec.ID, s),
		OriginalName:    rec.OriginalName,
		UpdatedName:     rec.UpdatedName,
		Runs:            make([]RunSummary, 0, len(runs)),
	}
	for _, r := range runs {
		emitted := 0
		for _, d := range r.Decisions {
			if d.HasOriginal() || d.Selected {
				emitted++
			}
		}
		resp.Runs = append(resp.Runs, RunSummary{
			ID:       r.ID,
			MergedAt: r.MergedAt.Format(time.RFC3339),
			Records:  emitted,
			Replaced: r.Stats.Replaced,
			Inserted: r.Stats.Inserted,
			Deleted:  r.Stats.Deleted,
		})
	}

	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Printf("Original: %s\nUpdated:  %s\n", rec.OriginalName, rec.UpdatedName)
	printSessionHuman(resp.SessionResponse)
	if len(runs) > 0 {
		fmt.Printf("\nMerge history (%d):\n", len(runs))
		for _, r := range runs {
			fmt.Printf("  run %d, %s: %d replaced, %d inserted, %d deleted lines\n",
				r.ID, humanize.Time(r.MergedAt), r.Stats.Replaced, r.Stats.Inserted, r.Stats.Deleted)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	db := mustOpenDatabase()
	defer db.Close()

	exitOnError(db.Delete(args[0]), "deleting session")

	if humanOutput {
		fmt.Printf("Deleted session %s\n", args[0])
	} else {
		outputJSON(StatusResponse{Status: "deleted", SessionID: args[0]})
	}
	return nil
}
