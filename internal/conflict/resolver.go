package conflict

import (
	"fmt"
	"sort"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/reference"
)

// DetectConflicts finds labels carried by more than one original record while
// at least one updated record carries the same label. Collisions only arise
// under label matching; with fuzzy matching on it returns nil.
// Groups are ordered by the first occurrence of their label.
func DetectConflicts(orig, upd []reference.Record, opts *config.Options) []Group {
	if opts.FuzzyMatching {
		return nil
	}

	byLabel := make(map[string][]int)
	var order []string
	for i, o := range orig {
		if o.Label == "" {
			continue
		}
		if _, ok := byLabel[o.Label]; !ok {
			order = append(order, o.Label)
		}
		byLabel[o.Label] = append(byLabel[o.Label], i)
	}

	var groups []Group
	for _, lbl := range order {
		candidates := byLabel[lbl]
		if len(candidates) < 2 {
			continue
		}
		target := NoRef
		for j, u := range upd {
			if u.Label == lbl {
				target = j
				break
			}
		}
		if target == NoRef {
			continue
		}
		groups = append(groups, Group{Label: lbl, Candidates: candidates, Updated: target})
	}
	return groups
}

// ApplyResolutions applies explicit choices, keyed by original record index,
// to the pending groups and returns the groups still pending.
//
// A group is resolved only when every candidate has a choice; groups without
// any choice stay pending. At most one candidate per group may take the
// update. Any malformed input fails the whole call and leaves log untouched.
// When every candidate ignores the update, the reserved updated record is
// queued as an add or orphan decision.
func ApplyResolutions(log *Log, groups []Group, choices map[int]Choice, upd []reference.Record, opts *config.Options) ([]Group, error) {
	known := make(map[int]bool)
	var resolved, pending []Group

	for _, g := range groups {
		chosen, updates := 0, 0
		for _, c := range g.Candidates {
			known[c] = true
			choice, ok := choices[c]
			if !ok {
				continue
			}
			if _, err := ParseChoice(string(choice)); err != nil {
				return groups, err
			}
			chosen++
			if choice == ChoiceUpdate {
				updates++
			}
		}

		switch {
		case chosen == 0:
			pending = append(pending, g)
		case chosen < len(g.Candidates):
			return groups, fmt.Errorf("%w: label %q needs a choice for all %d candidates, got %d",
				ErrInvalidResolution, g.Label, len(g.Candidates), chosen)
		case updates > 1:
			return groups, fmt.Errorf("%w: label %q has %d candidates taking the same update",
				ErrInvalidResolution, g.Label, updates)
		default:
			resolved = append(resolved, g)
		}
	}

	var unknown []int
	for c := range choices {
		if !known[c] {
			unknown = append(unknown, c)
		}
	}
	if len(unknown) > 0 {
		sort.Ints(unknown)
		return groups, fmt.Errorf("%w: original records %v are not conflict candidates", ErrInvalidResolution, unknown)
	}

	for _, g := range resolved {
		if g.Updated < 0 || g.Updated >= len(upd) {
			return groups, fmt.Errorf("%w: updated record %d does not exist", ErrInvalidResolution, g.Updated)
		}
		for _, c := range g.Candidates {
			if log.IndexOfOriginal(c) == NoRef {
				return groups, fmt.Errorf("%w: original record %d has no decision", ErrInvalidResolution, c)
			}
		}
	}

	for _, g := range resolved {
		taken := false
		for _, c := range g.Candidates {
			if choices[c] != ChoiceUpdate {
				continue
			}
			i := log.IndexOfOriginal(c)
			selected := log.entries[i].Selected
			d := matchedDecision(c, g.Updated, upd[g.Updated], MatchLabel, 100, opts)
			d.Selected = selected
			log.entries[i] = d
			taken = true
		}
		if !taken {
			log.insertUnmatched(unmatchedDecision(g.Updated, upd[g.Updated], opts))
		}
	}

	return pending, nil
}
