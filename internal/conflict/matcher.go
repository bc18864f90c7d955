package conflict

import (
	"math"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/fingerprint"
	"github.com/matsen/refmerge/internal/label"
	"github.com/matsen/refmerge/internal/reference"
)

// FuzzyThreshold is the similarity a content match must strictly exceed.
const FuzzyThreshold = 0.82

// AcceptsContentMatch reports whether a fingerprint similarity is high enough
// for a content match.
func AcceptsContentMatch(score float64) bool {
	return score > FuzzyThreshold
}

// Match pairs original records with updated records.
//
// Each original, in order, takes the first unused updated record with the
// same label. With fuzzy matching on, the most similar unused updated record
// wins instead when its similarity exceeds FuzzyThreshold; ties go to the
// earliest candidate. Every updated record is consumed at most once.
// Updated records left over become add or orphan decisions.
//
// With fuzzy matching off, labels carried by several originals are reported
// as Groups and left unassigned until ApplyResolutions is called.
func Match(orig, upd []reference.Record, opts *config.Options) MatchResult {
	groups := DetectConflicts(orig, upd, opts)

	used := make([]bool, len(upd))
	ambiguous := make(map[string]bool, len(groups))
	for _, g := range groups {
		ambiguous[g.Label] = true
		used[g.Updated] = true
	}

	decisions := make([]Decision, 0, len(orig)+len(upd))
	for i, o := range orig {
		if ambiguous[o.Label] {
			decisions = append(decisions, unchangedDecision(i, o, opts))
			continue
		}

		j, kind, score := findCandidate(o, upd, used, opts)
		if j == NoRef {
			decisions = append(decisions, unchangedDecision(i, o, opts))
			continue
		}
		used[j] = true
		decisions = append(decisions, matchedDecision(i, j, upd[j], kind, score, opts))
	}

	for j, u := range upd {
		if !used[j] {
			decisions = append(decisions, unmatchedDecision(j, u, opts))
		}
	}

	return MatchResult{Log: NewLog(decisions), Groups: groups}
}

// findCandidate returns the updated record chosen for o, or NoRef.
func findCandidate(o reference.Record, upd []reference.Record, used []bool, opts *config.Options) (int, MatchKind, int) {
	labelCandidate := NoRef
	if o.Label != "" {
		for j, u := range upd {
			if !used[j] && u.Label == o.Label {
				labelCandidate = j
				break
			}
		}
	}

	if opts.FuzzyMatching {
		best, bestScore := NoRef, -1.0
		for j, u := range upd {
			if used[j] {
				continue
			}
			// Strict comparison keeps the first of equally scored candidates.
			if s := fingerprint.Similarity(o.Fingerprint, u.Fingerprint); s > bestScore {
				best, bestScore = j, s
			}
		}
		if best != NoRef && AcceptsContentMatch(bestScore) {
			return best, MatchContent, int(math.Round(100 * bestScore))
		}
	}

	if labelCandidate != NoRef {
		return labelCandidate, MatchLabel, 100
	}
	return NoRef, MatchNone, 0
}

func unchangedDecision(i int, o reference.Record, opts *config.Options) Decision {
	return Decision{
		Status:       StatusUnchanged,
		OriginalRef:  i,
		UpdatedRef:   NoRef,
		MatchKind:    MatchNone,
		Selected:     true,
		DisplayLabel: label.Format(o.Label, opts),
		SortKey:      sortKey(o, opts),
	}
}

func matchedDecision(i, j int, u reference.Record, kind MatchKind, score int, opts *config.Options) Decision {
	status := StatusUpdate
	if kind == MatchContent {
		status = StatusSmartMatch
	}
	return Decision{
		Status:       status,
		OriginalRef:  i,
		UpdatedRef:   j,
		MatchKind:    kind,
		MatchScore:   score,
		Selected:     true,
		DisplayLabel: label.Format(u.Label, opts),
		SortKey:      sortKey(u, opts),
	}
}

func unmatchedDecision(j int, u reference.Record, opts *config.Options) Decision {
	status := StatusOrphan
	if opts.IncludeUnmatchedUpdates {
		status = StatusAdd
	}
	return Decision{
		Status:       status,
		OriginalRef:  NoRef,
		UpdatedRef:   j,
		MatchKind:    MatchNone,
		Selected:     opts.IncludeUnmatchedUpdates,
		DisplayLabel: label.Format(u.Label, opts),
		SortKey:      sortKey(u, opts),
	}
}

// sortKey is the formatted label, or the record's body-derived key.
func sortKey(r reference.Record, opts *config.Options) string {
	if r.Label != "" {
		return label.Format(r.Label, opts)
	}
	return r.SortKey
}
