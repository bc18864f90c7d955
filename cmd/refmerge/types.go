package main

import (
	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/diff"
	"github.com/matsen/refmerge/internal/engine"
	"github.com/matsen/refmerge/internal/reference"
	"github.com/matsen/refmerge/internal/sequence"
)

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Path      string `json:"path,omitempty"`
}

// DecisionView is a decision with its log position, its place in the output
// order (-1 when not emitted) and the ids of the records it refers to.
type DecisionView struct {
	Position int `json:"position"`
	Order    int `json:"order"`
	conflict.Decision
	OriginalID string `json:"original_id,omitempty"`
	UpdatedID  string `json:"updated_id,omitempty"`
}

// CandidateView is one original record in a conflict group.
type CandidateView struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Preview string `json:"preview"`
}

// ConflictView is a pending label collision.
type ConflictView struct {
	Label          string          `json:"label"`
	Updated        int             `json:"updated"`
	UpdatedPreview string          `json:"updated_preview"`
	Candidates     []CandidateView `json:"candidates"`
}

// SessionResponse describes the state of a merge session.
type SessionResponse struct {
	SessionID string                  `json:"session_id,omitempty"`
	Mode      sequence.Mode           `json:"mode"`
	Counts    map[conflict.Status]int `json:"counts"`
	Decisions []DecisionView          `json:"decisions"`
	Conflicts []ConflictView          `json:"conflicts,omitempty"`
}

// MergeResponse reports a completed merge.
type MergeResponse struct {
	SessionID string     `json:"session_id,omitempty"`
	RunID     int64      `json:"run_id,omitempty"`
	Output    string     `json:"output,omitempty"`
	LogPath   string     `json:"log,omitempty"`
	Records   int        `json:"records"`
	Stats     diff.Stats `json:"stats"`
	Copied    bool       `json:"copied,omitempty"`
	Merged    string     `json:"merged,omitempty"`
}

// ConflictResponse reports conflicts that block a merge.
type ConflictResponse struct {
	Error     string         `json:"error"`
	SessionID string         `json:"session_id,omitempty"`
	Conflicts []ConflictView `json:"conflicts"`
}

func buildSessionResponse(id string, s *engine.Session) SessionResponse {
	decisions := s.Decisions()
	order := make([]int, len(decisions))
	for i := range order {
		order[i] = -1
	}
	for pos, i := range s.Projection() {
		order[i] = pos
	}

	counts := make(map[conflict.Status]int)
	views := make([]DecisionView, len(decisions))
	for i, d := range decisions {
		counts[d.Status]++
		views[i] = DecisionView{
			Position:   i,
			Order:      order[i],
			Decision:   d,
			OriginalID: recordID(s.Original(), d.OriginalRef),
			UpdatedID:  recordID(s.Updated(), d.UpdatedRef),
		}
	}

	return SessionResponse{
		SessionID: id,
		Mode:      s.Mode(),
		Counts:    counts,
		Decisions: views,
		Conflicts: buildConflictViews(s),
	}
}

func buildConflictViews(s *engine.Session) []ConflictView {
	groups := s.Conflicts()
	if len(groups) == 0 {
		return nil
	}
	views := make([]ConflictView, len(groups))
	for i, g := range groups {
		v := ConflictView{
			Label:          g.Label,
			Updated:        g.Updated,
			UpdatedPreview: preview(s.Updated(), g.Updated),
		}
		for _, c := range g.Candidates {
			v.Candidates = append(v.Candidates, CandidateView{
				Index:   c,
				ID:      recordID(s.Original(), c),
				Preview: preview(s.Original(), c),
			})
		}
		views[i] = v
	}
	return views
}

func recordID(records []reference.Record, i int) string {
	if i < 0 || i >= len(records) {
		return ""
	}
	return records[i].RecordID
}

func preview(records []reference.Record, i int) string {
	if i < 0 || i >= len(records) {
		return ""
	}
	return truncateString(records[i].BodyText, PreviewMaxLen)
}
