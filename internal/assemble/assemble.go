// Package assemble builds the merged record list from a decision log.
package assemble

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/label"
	"github.com/matsen/refmerge/internal/reference"
	"github.com/matsen/refmerge/internal/renumber"
)

// Separator joins emitted records when the original document shows no
// layout to copy.
const Separator = "\n"

var labelElementRegex = regexp.MustCompile(`(?s)<ce:label\b[^>]*>(.*?)</ce:label>`)

// Assembler turns projected decisions into record markup.
type Assembler struct {
	Original []reference.Record
	Updated  []reference.Record
	Options  *config.Options
	IDs      *renumber.Renumberer

	// Source is the original document. When set, the text between
	// consecutive original records, including spans extraction skipped,
	// follows each original record's entry.
	Source string
}

type piece struct {
	raw  string
	orig int // original record index, or conflict.NoRef
}

// Assemble emits the records for log positions in order. An original record
// is followed by the text that followed it in Source; other entries are
// joined by the document's record separator.
func (a *Assembler) Assemble(log *conflict.Log, order []int) (string, error) {
	pieces := make([]piece, 0, len(order))
	for _, i := range order {
		if i < 0 || i >= log.Len() {
			return "", fmt.Errorf("%w: projected position %d (log has %d decisions)", conflict.ErrOutOfRange, i, log.Len())
		}
		d := log.At(i)
		raw, ok, err := a.Entry(d)
		if err != nil {
			return "", err
		}
		if ok {
			orig := conflict.NoRef
			if d.HasOriginal() {
				orig = d.OriginalRef
			}
			pieces = append(pieces, piece{raw: raw, orig: orig})
		}
	}

	sep := a.separator()
	var b strings.Builder
	for k, p := range pieces {
		b.WriteString(p.raw)
		if gap, ok := a.gap(p.orig); ok {
			b.WriteString(gap)
		} else if k < len(pieces)-1 {
			b.WriteString(sep)
		}
	}
	return b.String(), nil
}

// gap returns the Source text between original record i and record i+1.
// ok is false for the last record, without a Source, or for spans that do
// not lie in order inside Source.
func (a *Assembler) gap(i int) (string, bool) {
	if a.Source == "" || i < 0 || i+1 >= len(a.Original) {
		return "", false
	}
	start, end := a.Original[i].End, a.Original[i+1].Start
	if start > end || end > len(a.Source) {
		return "", false
	}
	return a.Source[start:end], true
}

// separator returns the first whitespace-only gap of Source, or Separator.
func (a *Assembler) separator() string {
	for i := range a.Original {
		if g, ok := a.gap(i); ok && strings.TrimSpace(g) == "" {
			return g
		}
	}
	return Separator
}

// Entry renders one decision. ok is false when the decision emits nothing.
func (a *Assembler) Entry(d conflict.Decision) (string, bool, error) {
	switch {
	case d.HasOriginal() && d.HasUpdated() && d.Selected:
		o, err := a.record(a.Original, d.OriginalRef, "original")
		if err != nil {
			return "", false, err
		}
		u, err := a.record(a.Updated, d.UpdatedRef, "updated")
		if err != nil {
			return "", false, err
		}
		return a.replacement(o, u, d), true, nil

	case d.HasOriginal():
		o, err := a.record(a.Original, d.OriginalRef, "original")
		if err != nil {
			return "", false, err
		}
		return RewriteLabel(o.RawText, o.Label, label.Format(o.Label, a.Options)), true, nil

	case d.HasUpdated() && d.Selected:
		u, err := a.record(a.Updated, d.UpdatedRef, "updated")
		if err != nil {
			return "", false, err
		}
		return a.addition(u, d), true, nil
	}
	return "", false, nil
}

// replacement renders a selected match. An update identical to its original
// is emitted like an unchanged record.
func (a *Assembler) replacement(o, u reference.Record, d conflict.Decision) string {
	if u.RawText == o.RawText {
		return RewriteLabel(o.RawText, o.Label, label.Format(o.Label, a.Options))
	}
	raw := RewriteLabel(u.RawText, u.Label, d.DisplayLabel)
	if a.Options.PreserveIDs && o.RecordID != "" {
		id := o.RecordID
		if renumber.IsLegacy(id) {
			id = a.IDs.NextTop()
		}
		raw = a.IDs.RewriteTop(raw, id)
	}
	if a.Options.RenumberInternal {
		raw = a.IDs.RewriteInternal(raw)
	}
	return raw
}

func (a *Assembler) addition(u reference.Record, d conflict.Decision) string {
	raw := RewriteLabel(u.RawText, u.Label, d.DisplayLabel)
	raw = a.IDs.RewriteTop(raw, a.IDs.NextTop())
	if a.Options.RenumberInternal {
		raw = a.IDs.RewriteInternal(raw)
	}
	return raw
}

func (a *Assembler) record(records []reference.Record, i int, side string) (reference.Record, error) {
	if i < 0 || i >= len(records) {
		return reference.Record{}, fmt.Errorf("%w: %s record %d (have %d)", conflict.ErrOutOfRange, side, i, len(records))
	}
	return records[i], nil
}

// RewriteLabel replaces the content of the first ce:label element of raw with
// formatted. raw is returned untouched when formatted equals the literal
// label or the record has no label element.
func RewriteLabel(raw, literal, formatted string) string {
	if formatted == "" || formatted == literal {
		return raw
	}
	loc := labelElementRegex.FindStringSubmatchIndex(raw)
	if loc == nil {
		return raw
	}
	return raw[:loc[2]] + formatted + raw[loc[3]:]
}
