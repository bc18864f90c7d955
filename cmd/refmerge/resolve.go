package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/engine"
)

// Interactive prompt choices
const (
	promptUpdate = "u"
	promptIgnore = "i"
)

var (
	resolveChoices     []string
	resolveInteractive bool
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringArrayVar(&resolveChoices, "choose", nil, "Choice for an original record: IDX=update|ignore (repeatable)")
	resolveCmd.Flags().BoolVar(&resolveInteractive, "interactive", false, "Prompt for every pending candidate")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve SESSION",
	Short: "Settle label conflicts of a session",
	Long: `Settle label conflicts: several original records share a label that an
updated record also carries, so the update cannot be placed automatically.

Every candidate of a conflict needs a choice. At most one candidate may take
the update; if all ignore it, the update is queued as a new record.

Examples:
  refmerge resolve 3f2a... --choose 4=update --choose 9=ignore
  refmerge resolve 3f2a... --interactive --human`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	choices, err := parseChoices(resolveChoices)
	exitOnError(err, "parsing choices")

	db := mustOpenDatabase()
	defer db.Close()
	rec, s := mustLoadSession(db, args[0])

	if resolveInteractive {
		promptForConflicts(s, choices)
	}

	exitOnError(s.Resolve(choices), "resolving")
	mustSaveSession(db, rec, s)

	outputSession(rec.ID, s)
	return nil
}

// promptForConflicts asks for every candidate that has no choice yet.
func promptForConflicts(s *engine.Session, choices map[int]conflict.Choice) {
	reader := bufio.NewReader(os.Stdin)
	views := buildConflictViews(s)

	for i, v := range views {
		fmt.Printf("\nResolving conflict %d of %d: label %q\n", i+1, len(views), v.Label)
		fmt.Printf("Updated record: %s\n", v.UpdatedPreview)

		for _, cand := range v.Candidates {
			if _, ok := choices[cand.Index]; ok {
				continue
			}
			fmt.Printf("  Candidate %d: %s\n", cand.Index, cand.Preview)
			for {
				fmt.Printf("  Use the update here? [%s]pdate/[%s]gnore: ", promptUpdate, promptIgnore)
				input, err := reader.ReadString('\n')
				if err != nil && input == "" {
					exitWithError(ExitError, "reading choice: %v", err)
				}

				switch strings.ToLower(strings.TrimSpace(input)) {
				case promptUpdate, string(conflict.ChoiceUpdate):
					choices[cand.Index] = conflict.ChoiceUpdate
				case promptIgnore, string(conflict.ChoiceIgnore):
					choices[cand.Index] = conflict.ChoiceIgnore
				default:
					fmt.Printf("  Invalid choice. Please enter %s or %s.\n", promptUpdate, promptIgnore)
					continue
				}
				break
			}
		}
	}
}
