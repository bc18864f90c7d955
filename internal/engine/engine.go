// Package engine runs the reference merge pipeline: extraction, matching,
// conflict resolution, ordering, assembly and diffing.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/extract"
	"github.com/matsen/refmerge/internal/sequence"
)

// Engine analyzes document pairs under a fixed set of options.
type Engine struct {
	opts    config.Options
	pattern extract.Pattern
	logger  *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(opts config.Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, pattern: extract.DefaultPattern(), logger: logger}
}

// WithPattern returns a copy of the engine that finds records with p.
func (e *Engine) WithPattern(p extract.Pattern) *Engine {
	c := *e
	c.pattern = p
	return &c
}

// Options returns the options sessions from this engine are analyzed with.
func (e *Engine) Options() config.Options { return e.opts }

// Analyze extracts and matches both documents and returns a fresh session.
// On error no session is returned, so a caller's previous session survives.
func (e *Engine) Analyze(original, updated string) (*Session, error) {
	orig := extract.Extract(original, e.pattern)
	if len(orig) == 0 {
		return nil, fmt.Errorf("original document: %w", ErrEmptyInput)
	}
	upd := extract.Extract(updated, e.pattern)
	if len(upd) == 0 {
		return nil, fmt.Errorf("updated document: %w", ErrEmptyInput)
	}

	res := conflict.Match(orig, upd, &e.opts)
	s := &Session{
		opts:         e.opts,
		pattern:      e.pattern,
		logger:       e.logger,
		originalText: original,
		updatedText:  updated,
		original:     orig,
		updated:      upd,
		log:          res.Log,
		groups:       res.Groups,
		seq:          sequence.New(e.opts.AutoSort),
	}

	counts := res.Log.Counts()
	e.logger.Info("Analyzed documents",
		zap.Int("original_records", len(orig)),
		zap.Int("updated_records", len(upd)),
		zap.Int("update", counts[conflict.StatusUpdate]),
		zap.Int("smart_match", counts[conflict.StatusSmartMatch]),
		zap.Int("unchanged", counts[conflict.StatusUnchanged]),
		zap.Int("add", counts[conflict.StatusAdd]),
		zap.Int("orphan", counts[conflict.StatusOrphan]),
		zap.Int("conflicts", len(res.Groups)))
	return s, nil
}
