package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/diff"
)

var (
	statusColors = map[conflict.Status]*color.Color{
		conflict.StatusUpdate:     color.New(color.FgYellow),
		conflict.StatusSmartMatch: color.New(color.FgCyan),
		conflict.StatusUnchanged:  color.New(color.Reset),
		conflict.StatusAdd:        color.New(color.FgGreen),
		conflict.StatusOrphan:     color.New(color.Faint),
	}

	deleteLine  = color.New(color.FgRed)
	insertLine  = color.New(color.FgGreen)
	deleteWords = color.New(color.FgRed, color.Bold, color.Underline)
	insertWords = color.New(color.FgGreen, color.Bold, color.Underline)
	faint       = color.New(color.Faint)
)

// printSessionHuman prints the decision log in output order, followed by
// entries that will not be emitted.
func printSessionHuman(resp SessionResponse) {
	if resp.SessionID != "" {
		fmt.Printf("Session %s (%s order)\n\n", resp.SessionID, resp.Mode)
	}

	var emitted, omitted []DecisionView
	for _, d := range resp.Decisions {
		if d.Order < 0 {
			omitted = append(omitted, d)
		} else {
			emitted = append(emitted, d)
		}
	}
	sort.Slice(emitted, func(i, j int) bool { return emitted[i].Order < emitted[j].Order })

	for _, d := range emitted {
		printDecisionLine(d)
	}
	if len(omitted) > 0 {
		fmt.Println()
		fmt.Println("Not emitted:")
		for _, d := range omitted {
			printDecisionLine(d)
		}
	}

	fmt.Println()
	var parts []string
	for _, st := range []conflict.Status{conflict.StatusUpdate, conflict.StatusSmartMatch, conflict.StatusUnchanged, conflict.StatusAdd, conflict.StatusOrphan} {
		if n := resp.Counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	fmt.Printf("Decisions: %s\n", strings.Join(parts, ", "))

	if len(resp.Conflicts) > 0 {
		fmt.Println()
		printConflictsHuman(resp.Conflicts)
	}
}

func printDecisionLine(d DecisionView) {
	order := "  -"
	if d.Order >= 0 {
		order = fmt.Sprintf("%3d", d.Order)
	}
	mark := " "
	if !d.Selected {
		mark = "x"
	}
	score := ""
	if d.IsMatch() {
		score = fmt.Sprintf(" (%d%%)", d.MatchScore)
	}
	status := statusColors[d.Status].Sprintf("%-11s", d.Status)
	fmt.Printf("%s [%s] #%-3d %s %s%s\n", order, mark, d.Position, status, truncateString(d.DisplayLabel, LabelMaxLen), score)
}

// printConflictsHuman lists pending conflicts with the choices they need.
func printConflictsHuman(conflicts []ConflictView) {
	fmt.Printf("Unresolved label conflicts (%d):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Printf("\n  Label %q, updated record #%d:\n", c.Label, c.Updated)
		fmt.Printf("    %s\n", c.UpdatedPreview)
		fmt.Println("  Candidates:")
		for _, cand := range c.Candidates {
			fmt.Printf("    %d: %s\n", cand.Index, cand.Preview)
		}
	}
	fmt.Println()
	fmt.Println("Use 'refmerge resolve SESSION --choose IDX=update|ignore' for every candidate.")
}

// printDiffHuman prints changed rows with word-level highlights. Equal rows
// are shown faint for context.
func printDiffHuman(rows []diff.Row) {
	for _, r := range rows {
		switch r.Kind {
		case diff.KindEqual:
			faint.Printf("  %4d %s\n", r.LeftLine, segmentsText(r.Left))
		case diff.KindDelete:
			deleteLine.Printf("- %4d %s\n", r.LeftLine, segmentsText(r.Left))
		case diff.KindInsert:
			insertLine.Printf("+ %4d %s\n", r.RightLine, segmentsText(r.Right))
		case diff.KindReplace:
			fmt.Printf("%s %s\n", deleteLine.Sprintf("- %4d", r.LeftLine), highlight(r.Left, deleteLine, deleteWords))
			fmt.Printf("%s %s\n", insertLine.Sprintf("+ %4d", r.RightLine), highlight(r.Right, insertLine, insertWords))
		}
	}
	s := diff.Summarize(rows)
	fmt.Printf("\n%d replaced, %d inserted, %d deleted, %d unchanged lines\n", s.Replaced, s.Inserted, s.Deleted, s.Equal)
}

func segmentsText(segs []diff.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

func highlight(segs []diff.Segment, base, changed *color.Color) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Op == diff.OpEqual {
			b.WriteString(base.Sprint(s.Text))
		} else {
			b.WriteString(changed.Sprint(s.Text))
		}
	}
	return b.String()
}
