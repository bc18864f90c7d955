// Package conflict pairs original records with updated records and resolves
// label collisions that cannot be decided automatically.
package conflict

import (
	"errors"
	"fmt"
)

// NoRef marks an absent record reference in a Decision.
const NoRef = -1

// Status is the outcome of matching for one record.
type Status string

const (
	StatusUpdate     Status = "update"      // Original replaced by its label-matched update
	StatusSmartMatch Status = "smart_match" // Original replaced by a content-matched update
	StatusUnchanged  Status = "unchanged"   // No updated counterpart
	StatusOrphan     Status = "orphan"      // Unmatched update, excluded by default
	StatusAdd        Status = "add"         // Unmatched update, included as a new entry
)

// MatchKind records how an update was paired with its original.
type MatchKind string

const (
	MatchNone    MatchKind = "none"
	MatchLabel   MatchKind = "label"
	MatchContent MatchKind = "content"
)

// Decision is the unit every downstream stage consumes.
type Decision struct {
	Status      Status    `json:"status"`
	OriginalRef int       `json:"original_ref"` // Index into original records, or NoRef
	UpdatedRef  int       `json:"updated_ref"`  // Index into updated records, or NoRef
	MatchKind   MatchKind `json:"match_kind"`
	MatchScore  int       `json:"match_score"` // 0-100, only meaningful with UpdatedRef

	Selected     bool   `json:"selected"`
	DisplayLabel string `json:"display_label"`
	SortKey      string `json:"sort_key"`
}

// HasOriginal reports whether the decision belongs to the backbone.
func (d Decision) HasOriginal() bool { return d.OriginalRef != NoRef }

// HasUpdated reports whether the decision references an updated record.
func (d Decision) HasUpdated() bool { return d.UpdatedRef != NoRef }

// IsMatch reports whether the decision pairs an original with an update.
func (d Decision) IsMatch() bool {
	return d.Status == StatusUpdate || d.Status == StatusSmartMatch
}

// Choice is an explicit per-candidate resolution of a label collision.
type Choice string

const (
	ChoiceUpdate Choice = "update" // Candidate receives the updated record
	ChoiceIgnore Choice = "ignore" // Candidate stays unchanged
)

// ParseChoice converts user input to a Choice.
func ParseChoice(s string) (Choice, error) {
	switch Choice(s) {
	case ChoiceUpdate, ChoiceIgnore:
		return Choice(s), nil
	}
	return "", fmt.Errorf("%w: unknown choice %q (valid: update, ignore)", ErrInvalidResolution, s)
}

// Group is a label shared by several original records while an updated
// record targets that label.
type Group struct {
	Label      string `json:"label"`
	Candidates []int  `json:"candidates"` // Original record indices, in document order
	Updated    int    `json:"updated"`    // Updated record reserved for the group
}

// MatchResult contains the decision log and any collisions awaiting resolution.
type MatchResult struct {
	Log    *Log
	Groups []Group
}

var (
	// ErrInvalidResolution is returned for malformed or incomplete choices.
	ErrInvalidResolution = errors.New("invalid conflict resolution")
	// ErrOutOfRange is returned for decision positions outside the log.
	ErrOutOfRange = errors.New("decision index out of range")
)
