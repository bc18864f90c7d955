package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/extract"
	"github.com/matsen/refmerge/internal/sequence"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// Snapshot is the persisted state of a session. Records are not stored;
// they are extracted again from the documents on restore.
type Snapshot struct {
	Version   int                 `json:"version"`
	Options   config.Options      `json:"options"`
	Pattern   extract.Pattern     `json:"pattern"`
	Original  string              `json:"original"`
	Updated   string              `json:"updated"`
	Decisions []conflict.Decision `json:"decisions"`
	Groups    []conflict.Group    `json:"groups,omitempty"`
	Mode      sequence.Mode       `json:"mode"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Version:   SnapshotVersion,
		Options:   s.opts,
		Pattern:   s.pattern,
		Original:  s.originalText,
		Updated:   s.updatedText,
		Decisions: s.log.Decisions(),
		Groups:    s.Conflicts(),
		Mode:      s.seq.Mode(),
	}
}

// Restore rebuilds a session from a snapshot. A nil logger disables logging.
// Snapshots without a pattern use the default record boundary.
func Restore(snap Snapshot, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	mode, err := sequence.ParseMode(string(snap.Mode))
	if err != nil {
		return nil, err
	}

	pattern := snap.Pattern
	if pattern.IsZero() {
		pattern = extract.DefaultPattern()
	}
	orig := extract.Extract(snap.Original, pattern)
	upd := extract.Extract(snap.Updated, pattern)
	if len(orig) == 0 {
		return nil, fmt.Errorf("original document: %w", ErrEmptyInput)
	}
	if len(upd) == 0 {
		return nil, fmt.Errorf("updated document: %w", ErrEmptyInput)
	}

	for i, d := range snap.Decisions {
		if d.OriginalRef < conflict.NoRef || d.OriginalRef >= len(orig) ||
			d.UpdatedRef < conflict.NoRef || d.UpdatedRef >= len(upd) ||
			(!d.HasOriginal() && !d.HasUpdated()) {
			return nil, fmt.Errorf("%w: decision %d references missing records", conflict.ErrOutOfRange, i)
		}
	}
	for _, g := range snap.Groups {
		if g.Updated < 0 || g.Updated >= len(upd) {
			return nil, fmt.Errorf("%w: conflict %q references missing update", conflict.ErrOutOfRange, g.Label)
		}
		for _, c := range g.Candidates {
			if c < 0 || c >= len(orig) {
				return nil, fmt.Errorf("%w: conflict %q references missing original", conflict.ErrOutOfRange, g.Label)
			}
		}
	}

	logger.Debug("Restored session",
		zap.Int("decisions", len(snap.Decisions)),
		zap.Int("conflicts", len(snap.Groups)),
		zap.String("mode", string(mode)))

	return &Session{
		opts:         snap.Options,
		pattern:      pattern,
		logger:       logger,
		originalText: snap.Original,
		updatedText:  snap.Updated,
		original:     orig,
		updated:      upd,
		log:          conflict.NewLog(snap.Decisions),
		groups:       append([]conflict.Group(nil), snap.Groups...),
		seq:          sequence.WithMode(mode),
	}, nil
}
