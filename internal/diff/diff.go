// Package diff aligns an original and a merged document for side-by-side
// display, with word-level highlights inside replaced lines.
package diff

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind classifies a row.
type Kind string

const (
	KindEqual   Kind = "equal"
	KindDelete  Kind = "delete"
	KindInsert  Kind = "insert"
	KindReplace Kind = "replace"
)

// Op classifies a segment within a row side.
type Op string

const (
	OpEqual  Op = "equal"
	OpDelete Op = "delete"
	OpInsert Op = "insert"
)

// Segment is a run of text on one side of a row.
type Segment struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Row pairs a left (original) line with a right (merged) line. Line numbers
// are 1-based; 0 means the side is empty.
type Row struct {
	Kind      Kind      `json:"kind"`
	LeftLine  int       `json:"left_line"`
	RightLine int       `json:"right_line"`
	Left      []Segment `json:"left,omitempty"`
	Right     []Segment `json:"right,omitempty"`
}

// Stats counts rows by kind.
type Stats struct {
	Equal    int `json:"equal"`
	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
	Replaced int `json:"replaced"`
}

// Changed reports whether any row differs.
func (s Stats) Changed() bool {
	return s.Deleted+s.Inserted+s.Replaced > 0
}

// Engine computes diffs with a fixed configuration.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine returns an engine with the timeout disabled so results do not
// depend on machine speed.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// Compute returns aligned rows for the original and merged texts.
func Compute(original, merged string) []Row {
	return NewEngine().Rows(original, merged)
}

// Rows returns aligned rows for left and right. Each distinct line is
// encoded as one rune, so the diff never splits a line.
func (e *Engine) Rows(left, right string) []Row {
	enc := newTokenEncoder()
	diffs := e.dmp.DiffMainRunes(enc.encode(lineTokens(left)), enc.encode(lineTokens(right)), false)
	for i := range diffs {
		diffs[i].Text = enc.decode(diffs[i].Text)
	}

	var rows []Row
	var dels, ins []string
	leftLine, rightLine := 1, 1

	flush := func() {
		n := min(len(dels), len(ins))
		for i := 0; i < n; i++ {
			l, r := e.words(dels[i], ins[i])
			rows = append(rows, Row{Kind: KindReplace, LeftLine: leftLine, RightLine: rightLine, Left: l, Right: r})
			leftLine++
			rightLine++
		}
		for _, line := range dels[n:] {
			rows = append(rows, Row{Kind: KindDelete, LeftLine: leftLine, Left: []Segment{{Op: OpDelete, Text: line}}})
			leftLine++
		}
		for _, line := range ins[n:] {
			rows = append(rows, Row{Kind: KindInsert, RightLine: rightLine, Right: []Segment{{Op: OpInsert, Text: line}}})
			rightLine++
		}
		dels, ins = dels[:0], ins[:0]
	}

	for _, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			dels = append(dels, lines...)
		case diffmatchpatch.DiffInsert:
			ins = append(ins, lines...)
		case diffmatchpatch.DiffEqual:
			flush()
			for _, line := range lines {
				seg := []Segment{{Op: OpEqual, Text: line}}
				rows = append(rows, Row{Kind: KindEqual, LeftLine: leftLine, RightLine: rightLine, Left: seg, Right: seg})
				leftLine++
				rightLine++
			}
		}
	}
	flush()
	return rows
}

// Summarize counts rows by kind.
func Summarize(rows []Row) Stats {
	var s Stats
	for _, r := range rows {
		switch r.Kind {
		case KindEqual:
			s.Equal++
		case KindDelete:
			s.Deleted++
		case KindInsert:
			s.Inserted++
		case KindReplace:
			s.Replaced++
		}
	}
	return s
}

// words diffs two lines token by token. Words and whitespace runs are
// separate tokens; each distinct token is encoded as one rune.
func (e *Engine) words(left, right string) ([]Segment, []Segment) {
	enc := newTokenEncoder()
	diffs := e.dmp.DiffMainRunes(enc.encode(tokenize(left)), enc.encode(tokenize(right)), false)

	var l, r []Segment
	for _, d := range diffs {
		text := enc.decode(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			l = appendSegment(l, OpEqual, text)
			r = appendSegment(r, OpEqual, text)
		case diffmatchpatch.DiffDelete:
			l = appendSegment(l, OpDelete, text)
		case diffmatchpatch.DiffInsert:
			r = appendSegment(r, OpInsert, text)
		}
	}
	return l, r
}

func appendSegment(segs []Segment, op Op, text string) []Segment {
	if text == "" {
		return segs
	}
	if n := len(segs); n > 0 && segs[n-1].Op == op {
		segs[n-1].Text += text
		return segs
	}
	return append(segs, Segment{Op: op, Text: text})
}

// splitLines splits a diff chunk into lines without their terminators.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// lineTokens splits s into lines, each keeping its "\n" terminator.
func lineTokens(s string) []string {
	var lines []string
	for s != "" {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// tokenize splits s into maximal runs of whitespace and non-whitespace.
func tokenize(s string) []string {
	var tokens []string
	start := 0
	var prevSpace bool
	for i, r := range s {
		space := unicode.IsSpace(r)
		if i > 0 && space != prevSpace {
			tokens = append(tokens, s[start:i])
			start = i
		}
		prevSpace = space
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

type tokenEncoder struct {
	runes  map[string]rune
	tokens map[rune]string
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{runes: make(map[string]rune), tokens: make(map[rune]string)}
}

func (t *tokenEncoder) encode(tokens []string) []rune {
	out := make([]rune, len(tokens))
	for i, tok := range tokens {
		r, ok := t.runes[tok]
		if !ok {
			r = tokenRune(len(t.runes))
			t.runes[tok] = r
			t.tokens[r] = tok
		}
		out[i] = r
	}
	return out
}

func (t *tokenEncoder) decode(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(t.tokens[r])
	}
	return b.String()
}

// tokenRune maps a token index to a valid rune, skipping the surrogate range.
func tokenRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}
