// Package sequence computes the output order of merged records.
package sequence

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matsen/refmerge/internal/conflict"
)

// Mode is the ordering mode of a Sequencer.
type Mode string

const (
	// ModeAuto interleaves new entries alphabetically into the backbone.
	ModeAuto Mode = "auto"
	// ModeManual takes the decision log order verbatim.
	ModeManual Mode = "manual"
)

// ParseMode converts a stored mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeManual:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown ordering mode %q", s)
}

// Sequencer projects a decision log onto an output order.
//
// Transitions: AUTO -> MANUAL on Drag or SetAutoSort(false),
// MANUAL -> AUTO only on SetAutoSort(true).
type Sequencer struct {
	mode Mode
}

// New returns a sequencer in ModeAuto when autoSort is set, else ModeManual.
func New(autoSort bool) *Sequencer {
	if autoSort {
		return &Sequencer{mode: ModeAuto}
	}
	return &Sequencer{mode: ModeManual}
}

// WithMode returns a sequencer in the given mode.
func WithMode(m Mode) *Sequencer {
	return &Sequencer{mode: m}
}

// Mode returns the current ordering mode.
func (s *Sequencer) Mode() Mode { return s.mode }

// SetAutoSort switches between ModeAuto and ModeManual.
func (s *Sequencer) SetAutoSort(on bool) {
	if on {
		s.mode = ModeAuto
	} else {
		s.mode = ModeManual
	}
}

// Project returns log positions in output order. Every decision with an
// original record is included; decisions without one are included only when
// selected.
func (s *Sequencer) Project(log *conflict.Log) []int {
	if s.mode == ModeManual {
		var out []int
		for i, d := range log.Decisions() {
			if included(d) {
				out = append(out, i)
			}
		}
		return out
	}
	return interleave(log)
}

// Drag moves the entry at projected position from to projected position to.
// The current projection is first committed to the log, so the log order
// becomes the output order, and the sequencer switches to ModeManual.
func (s *Sequencer) Drag(log *conflict.Log, from, to int) error {
	proj := s.Project(log)
	if from < 0 || from >= len(proj) || to < 0 || to >= len(proj) {
		return fmt.Errorf("%w: move %d -> %d in a sequence of %d", conflict.ErrOutOfRange, from, to, len(proj))
	}

	inProj := make([]bool, log.Len())
	for _, i := range proj {
		inProj[i] = true
	}
	order := append([]int(nil), proj...)
	for i := 0; i < log.Len(); i++ {
		if !inProj[i] {
			order = append(order, i)
		}
	}

	if err := log.Reorder(order); err != nil {
		return err
	}
	if err := log.Move(from, to); err != nil {
		return err
	}
	s.mode = ModeManual
	return nil
}

func included(d conflict.Decision) bool {
	return d.HasOriginal() || d.Selected
}

// interleave keeps the backbone in log order and inserts each new entry
// before the first backbone entry whose key sorts after it.
func interleave(log *conflict.Log) []int {
	decisions := log.Decisions()
	col := NewCollator()

	var backbone, added []int
	keys := make([]string, len(decisions))
	for i, d := range decisions {
		keys[i] = CompareKey(d.SortKey)
		switch {
		case d.HasOriginal():
			backbone = append(backbone, i)
		case d.Selected:
			added = append(added, i)
		}
	}

	sort.SliceStable(added, func(a, b int) bool {
		return col.CompareString(keys[added[a]], keys[added[b]]) < 0
	})

	// Insertion points are non-decreasing over the sorted additions.
	out := make([]int, 0, len(backbone)+len(added))
	next := 0
	for bi := 0; bi <= len(backbone); bi++ {
		for next < len(added) && insertionPoint(col, keys, backbone, keys[added[next]]) == bi {
			out = append(out, added[next])
			next++
		}
		if bi < len(backbone) {
			out = append(out, backbone[bi])
		}
	}
	return out
}

func insertionPoint(col *collate.Collator, keys []string, backbone []int, key string) int {
	for bi, i := range backbone {
		if col.CompareString(key, keys[i]) < 0 {
			return bi
		}
	}
	return len(backbone)
}

// NewCollator returns a case-insensitive, numeric-aware collator.
// Collators are stateful; use one per goroutine.
func NewCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
}

// Compare orders two sort keys the way the sequencer does.
func Compare(a, b string) int {
	return NewCollator().CompareString(CompareKey(a), CompareKey(b))
}

// CompareKey prepares a sort key for collation: entities decoded,
// punctuation and symbols removed, whitespace collapsed.
func CompareKey(s string) string {
	s = html.UnescapeString(s)
	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsPunct(r), unicode.IsSymbol(r):
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
