package conflict

import (
	"fmt"
)

// Log is the ordered decision collection shared by the pipeline stages:
// original decisions in original order, then unmatched updates in updated order.
type Log struct {
	entries []Decision
}

// NewLog returns a log holding a copy of decisions.
func NewLog(decisions []Decision) *Log {
	return &Log{entries: append([]Decision(nil), decisions...)}
}

// Len returns the number of decisions.
func (l *Log) Len() int { return len(l.entries) }

// At returns the decision at position i.
func (l *Log) At(i int) Decision { return l.entries[i] }

// Decisions returns a copy of all decisions in log order.
func (l *Log) Decisions() []Decision {
	return append([]Decision(nil), l.entries...)
}

// SetSelected toggles inclusion of the decision at position i.
func (l *Log) SetSelected(i int, selected bool) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.entries[i].Selected = selected
	return nil
}

// Move relocates the decision at from so that it ends up at position to.
func (l *Log) Move(from, to int) error {
	if err := l.check(from); err != nil {
		return err
	}
	if err := l.check(to); err != nil {
		return err
	}
	d := l.entries[from]
	entries := append(l.entries[:from:from], l.entries[from+1:]...)
	entries = append(entries[:to], append([]Decision{d}, entries[to:]...)...)
	l.entries = entries
	return nil
}

// Reorder rearranges the log so that position i holds the decision previously
// at order[i]. order must be a permutation of the log positions.
func (l *Log) Reorder(order []int) error {
	if len(order) != len(l.entries) {
		return fmt.Errorf("%w: reorder needs %d positions, got %d", ErrOutOfRange, len(l.entries), len(order))
	}
	seen := make([]bool, len(order))
	reordered := make([]Decision, len(order))
	for i, src := range order {
		if err := l.check(src); err != nil {
			return err
		}
		if seen[src] {
			return fmt.Errorf("%w: position %d repeated", ErrOutOfRange, src)
		}
		seen[src] = true
		reordered[i] = l.entries[src]
	}
	l.entries = reordered
	return nil
}

// IndexOfOriginal returns the log position of the decision for original
// record orig, or NoRef.
func (l *Log) IndexOfOriginal(orig int) int {
	for i, d := range l.entries {
		if d.OriginalRef == orig {
			return i
		}
	}
	return NoRef
}

// Counts tallies decisions by status.
func (l *Log) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, d := range l.entries {
		counts[d.Status]++
	}
	return counts
}

// insertUnmatched places d among the trailing unmatched decisions, keeping
// them in updated-record order.
func (l *Log) insertUnmatched(d Decision) {
	pos := len(l.entries)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.HasOriginal() {
			break
		}
		if e.UpdatedRef > d.UpdatedRef {
			pos = i
		}
	}
	l.entries = append(l.entries[:pos], append([]Decision{d}, l.entries[pos:]...)...)
}

func (l *Log) check(i int) error {
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("%w: %d (log has %d decisions)", ErrOutOfRange, i, len(l.entries))
	}
	return nil
}
