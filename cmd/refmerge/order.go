package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/config"
)

var selectOff bool

func init() {
	rootCmd.AddCommand(selectCmd, moveCmd, autosortCmd)
	selectCmd.Flags().BoolVar(&selectOff, "off", false, "Deselect instead of select")
}

var selectCmd = &cobra.Command{
	Use:   "select SESSION POSITION",
	Short: "Include or exclude a decision from the merged output",
	Long: `Select or deselect the decision at a decision log position.

A deselected update falls back to the original record; a deselected new
record is left out entirely.

Examples:
  refmerge select 3f2a... 5
  refmerge select 3f2a... 5 --off`,
	Args: cobra.ExactArgs(2),
	RunE: runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	pos := mustParseIndex(args[1], "position")

	db := mustOpenDatabase()
	defer db.Close()
	rec, s := mustLoadSession(db, args[0])

	exitOnError(s.SetSelected(pos, !selectOff), "selecting")
	mustSaveSession(db, rec, s)

	outputSession(rec.ID, s)
	return nil
}

var moveCmd = &cobra.Command{
	Use:   "move SESSION FROM TO",
	Short: "Move an entry within the output order",
	Long: `Move the entry at output position FROM to position TO.

The current order is frozen first and the session switches to manual
ordering; use 'refmerge autosort SESSION on' to return to automatic order.`,
	Args: cobra.ExactArgs(3),
	RunE: runMove,
}

func runMove(cmd *cobra.Command, args []string) error {
	from := mustParseIndex(args[1], "from")
	to := mustParseIndex(args[2], "to")

	db := mustOpenDatabase()
	defer db.Close()
	rec, s := mustLoadSession(db, args[0])

	exitOnError(s.Drag(from, to), "moving")
	mustSaveSession(db, rec, s)

	outputSession(rec.ID, s)
	return nil
}

var autosortCmd = &cobra.Command{
	Use:   "autosort SESSION on|off",
	Short: "Switch between automatic and manual ordering",
	Args:  cobra.ExactArgs(2),
	RunE:  runAutosort,
}

func runAutosort(cmd *cobra.Command, args []string) error {
	on, err := config.ParseBool(args[1])
	if err != nil {
		exitWithError(ExitError, "autosort: %v", err)
	}

	db := mustOpenDatabase()
	defer db.Close()
	rec, s := mustLoadSession(db, args[0])

	s.SetAutoSort(on)
	mustSaveSession(db, rec, s)

	outputSession(rec.ID, s)
	return nil
}

// mustParseIndex parses a non-negative integer argument, exits on error.
func mustParseIndex(arg, name string) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		exitWithError(ExitError, "invalid %s %q: must be a non-negative integer", name, arg)
	}
	return n
}
