package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/refmerge/internal/assemble"
	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/diff"
	"github.com/matsen/refmerge/internal/extract"
	"github.com/matsen/refmerge/internal/reference"
	"github.com/matsen/refmerge/internal/renumber"
	"github.com/matsen/refmerge/internal/sequence"
)

// Session holds one analyzed document pair and the user's edits to its
// decision log. A Session is not safe for concurrent use.
type Session struct {
	opts    config.Options
	pattern extract.Pattern
	logger  *zap.Logger

	originalText string
	updatedText  string
	original     []reference.Record
	updated      []reference.Record

	log    *conflict.Log
	groups []conflict.Group
	seq    *sequence.Sequencer
	last   *Result
}

// Result is the output of a successful merge.
type Result struct {
	Merged    string              `json:"merged"`
	Decisions []conflict.Decision `json:"decisions"`
	Order     []int               `json:"order"`
	Diff      []diff.Row          `json:"diff"`
	Stats     diff.Stats          `json:"stats"`
}

// Options returns the options the session was analyzed with.
func (s *Session) Options() config.Options { return s.opts }

// OriginalText returns the original document.
func (s *Session) OriginalText() string { return s.originalText }

// UpdatedText returns the updated document.
func (s *Session) UpdatedText() string { return s.updatedText }

// Original returns the records extracted from the original document.
func (s *Session) Original() []reference.Record { return s.original }

// Updated returns the records extracted from the updated document.
func (s *Session) Updated() []reference.Record { return s.updated }

// Decisions returns a copy of the decision log.
func (s *Session) Decisions() []conflict.Decision { return s.log.Decisions() }

// Mode returns the current ordering mode.
func (s *Session) Mode() sequence.Mode { return s.seq.Mode() }

// Conflicts returns the label collisions still awaiting resolution.
func (s *Session) Conflicts() []conflict.Group {
	return append([]conflict.Group(nil), s.groups...)
}

// Resolve applies per-candidate choices keyed by original record index.
// Fully answered groups are settled; the rest stay pending.
func (s *Session) Resolve(choices map[int]conflict.Choice) error {
	pending, err := conflict.ApplyResolutions(s.log, s.groups, choices, s.updated, &s.opts)
	if err != nil {
		return err
	}
	s.logger.Info("Resolved conflicts",
		zap.Int("resolved", len(s.groups)-len(pending)),
		zap.Int("pending", len(pending)))
	s.groups = pending
	return nil
}

// SetSelected toggles whether the decision at log position i is emitted.
func (s *Session) SetSelected(i int, selected bool) error {
	return s.log.SetSelected(i, selected)
}

// Drag moves the entry at projected position from to position to and
// switches ordering to manual.
func (s *Session) Drag(from, to int) error {
	if err := s.seq.Drag(s.log, from, to); err != nil {
		return err
	}
	s.logger.Debug("Moved entry", zap.Int("from", from), zap.Int("to", to))
	return nil
}

// SetAutoSort switches between automatic and manual ordering.
func (s *Session) SetAutoSort(on bool) {
	s.seq.SetAutoSort(on)
}

// Projection returns log positions in output order.
func (s *Session) Projection() []int {
	return s.seq.Project(s.log)
}

// Last returns the most recent successful merge, or nil.
func (s *Session) Last() *Result { return s.last }

// Merge assembles the merged document. It fails with a *ConflictError while
// conflicts are pending and with a *MergeError if assembly fails; in both
// cases the previous result is kept.
func (s *Session) Merge() (*Result, error) {
	if len(s.groups) > 0 {
		labels := make([]string, len(s.groups))
		for i, g := range s.groups {
			labels[i] = g.Label
		}
		return nil, &ConflictError{Labels: labels}
	}

	res, err := s.merge()
	if err != nil {
		s.logger.Error("Merge failed", zap.Error(err))
		return nil, &MergeError{Err: err}
	}
	s.last = res
	s.logger.Info("Merged documents",
		zap.Int("records", len(res.Order)),
		zap.Int("replaced_lines", res.Stats.Replaced),
		zap.Int("inserted_lines", res.Stats.Inserted),
		zap.Int("deleted_lines", res.Stats.Deleted))
	return res, nil
}

func (s *Session) merge() (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic during assembly: %v", r)
		}
	}()

	a := &assemble.Assembler{
		Original: s.original,
		Updated:  s.updated,
		Options:  &s.opts,
		IDs:      renumber.Seed(s.originalText, s.pattern, renumber.DefaultNamespaces),
		Source:   s.originalText,
	}
	order := s.seq.Project(s.log)
	block, err := a.Assemble(s.log, order)
	if err != nil {
		return nil, err
	}

	merged := splice(s.originalText, s.original, block)
	rows := diff.Compute(s.originalText, merged)
	return &Result{
		Merged:    merged,
		Decisions: s.log.Decisions(),
		Order:     order,
		Diff:      rows,
		Stats:     diff.Summarize(rows),
	}, nil
}

// splice replaces the region from the first record's start to the last
// record's end with block. The assembler carries the text between records
// into block, so nothing inside the region is lost.
func splice(doc string, records []reference.Record, block string) string {
	if len(records) == 0 {
		return block
	}
	start, end := records[0].Start, records[len(records)-1].End
	return doc[:start] + block + doc[end:]
}
