// Package extract locates bibliography record blocks in raw markup and pulls
// out the fields used for matching.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/matsen/refmerge/internal/fingerprint"
	"github.com/matsen/refmerge/internal/label"
	"github.com/matsen/refmerge/internal/reference"
)

// MinBodyLength is the body text length a record without label or author
// must exceed to be kept.
const MinBodyLength = 10

// SortKeyLen is the number of body runes used as sort key when there is no label.
const SortKeyLen = 40

// DefaultElement is the boundary element of a bibliography record.
const DefaultElement = "ce:bib-reference"

// Pattern describes the record boundary: an element name whose start tag
// carries the identifier attribute.
type Pattern struct {
	Element string `json:"element"`
	IDAttr  string `json:"id_attr"`
}

// IsZero reports whether p is unset.
func (p Pattern) IsZero() bool { return p.Element == "" }

// DefaultPattern returns the pattern for ce:bib-reference blocks.
func DefaultPattern() Pattern {
	return Pattern{Element: DefaultElement, IDAttr: "id"}
}

// Sub-field patterns. Every field is optional.
var (
	labelRegex    = regexp.MustCompile(`(?s)<ce:label\b[^>]*>(.*?)</ce:label>`)
	authorRegex   = regexp.MustCompile(`(?s)<sb:author\b[^>]*>(.*?)</sb:author>`)
	surnameRegex  = regexp.MustCompile(`(?s)<ce:surname\b[^>]*>(.*?)</ce:surname>`)
	givenRegex    = regexp.MustCompile(`(?s)<ce:given-name\b[^>]*>(.*?)</ce:given-name>`)
	dateRegex     = regexp.MustCompile(`(?s)<sb:date\b[^>]*>(.*?)</sb:date>`)
	yearRegex     = regexp.MustCompile(`\b(\d{4})\b`)
	titleRegex    = regexp.MustCompile(`(?s)<sb:maintitle\b[^>]*>(.*?)</sb:maintitle>`)
	tagRegex      = regexp.MustCompile(`<[^>]*>`)
	spaceRegex    = regexp.MustCompile(`\s+`)
	attrValueExpr = `(?:^|\s)%s\s*=\s*(?:"([^"]*)"|'([^']*)')`
	setAttrExpr   = `(\s%s\s*=\s*)(?:"[^"]*"|'[^']*')`
)

// Extract scans text for record blocks matching p and returns them in
// document order. Spans that do not fully match (missing close tag, a
// nested start tag before the close) are skipped, never reported as errors.
func Extract(text string, p Pattern) []reference.Record {
	var records []reference.Record
	for _, s := range Spans(text, p) {
		rec, ok := parseRecord(text[s.Start:s.End], s.StartTag, p)
		if !ok {
			continue
		}
		rec.Start, rec.End = s.Start, s.End
		records = append(records, rec)
	}
	return records
}

// Span is the byte range of one well-formed record block.
type Span struct {
	Start    int
	End      int
	StartTag string
}

// Spans returns every well-formed record block in text, regardless of content.
// Text is read with a lenient markup tokenizer; offsets come from the raw
// bytes of each token so spans index text exactly. A record whose close tag
// never comes, or which is interrupted by another record's start tag, is
// dropped. Comments and CDATA sections are never searched for records.
func Spans(text string, p Pattern) []Span {
	name := strings.ToLower(p.Element)
	openTag := "<" + p.Element
	closeTag := "</" + p.Element

	z := html.NewTokenizer(strings.NewReader(text))
	z.AllowCDATA(true)

	var spans []Span
	var cur *Span
	pos := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return spans
		}
		// TagName lowercases the tokenizer buffer in place, so copy first.
		raw := string(z.Raw())
		start := pos
		pos += len(raw)

		switch tt {
		case html.StartTagToken:
			if tn, _ := z.TagName(); string(tn) == name && strings.HasPrefix(raw, openTag) {
				cur = &Span{Start: start, StartTag: raw}
			}
		case html.EndTagToken:
			if tn, _ := z.TagName(); cur != nil && string(tn) == name && strings.HasPrefix(raw, closeTag) {
				cur.End = pos
				spans = append(spans, *cur)
				cur = nil
			}
		}
	}
}

// parseRecord extracts fields from one record span. The second return value
// is false when the span carries no informative signal.
func parseRecord(raw, startTag string, p Pattern) (reference.Record, bool) {
	rec := reference.Record{
		RawText:  raw,
		RecordID: Attr(startTag, p.IDAttr),
		BodyText: BodyText(raw),
		Authors:  parseAuthors(raw),
		Year:     parseYear(raw),
		Title:    firstText(titleRegex, raw),
	}

	if m := labelRegex.FindStringSubmatch(raw); m != nil {
		rec.Label = strings.TrimSpace(m[1])
	}

	if rec.Label == "" && len(rec.Authors) == 0 && len([]rune(rec.BodyText)) <= MinBodyLength {
		return reference.Record{}, false
	}

	if rec.Label == "" {
		rec.Label = label.Synthesize(rec.Authors, rec.Year)
		rec.IsSyntheticLabel = rec.Label != ""
	}

	rec.Fingerprint = fingerprint.Of(rec)
	rec.SortKey = SortKey(rec.Label, rec.BodyText)
	return rec, true
}

// SortKey returns label when non-empty, else the first SortKeyLen runes of body.
func SortKey(lbl, body string) string {
	if lbl != "" {
		return lbl
	}
	r := []rune(body)
	if len(r) > SortKeyLen {
		r = r[:SortKeyLen]
	}
	return strings.TrimSpace(string(r))
}

// parseAuthors reads sb:author blocks, falling back to bare surnames.
func parseAuthors(raw string) []reference.Author {
	var authors []reference.Author
	for _, m := range authorRegex.FindAllStringSubmatch(raw, -1) {
		surname := firstText(surnameRegex, m[1])
		if surname == "" {
			continue
		}
		authors = append(authors, reference.Author{
			Surname:   surname,
			GivenName: firstText(givenRegex, m[1]),
		})
	}
	if len(authors) > 0 {
		return authors
	}

	for _, m := range surnameRegex.FindAllStringSubmatch(raw, -1) {
		if s := CleanText(m[1]); s != "" {
			authors = append(authors, reference.Author{Surname: s})
		}
	}
	return authors
}

// parseYear returns the first four-digit year inside the first sb:date.
func parseYear(raw string) string {
	date := firstText(dateRegex, raw)
	if m := yearRegex.FindStringSubmatch(date); m != nil {
		return m[1]
	}
	return ""
}

// firstText returns the cleaned first capture of re in s.
func firstText(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return CleanText(m[1])
}

// CleanText strips tags, decodes entities and collapses whitespace.
func CleanText(s string) string {
	s = tagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// BodyText returns the lowercase, tag-stripped, whitespace-normalized text of raw.
func BodyText(raw string) string {
	return strings.ToLower(CleanText(raw))
}

// Attr returns the value of attribute name in a start tag, or "".
func Attr(startTag, name string) string {
	re := attrRegex(name)
	m := re.FindStringSubmatch(startTag)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// SetAttr returns startTag with attribute name set to value. A missing
// attribute is appended after the element name.
func SetAttr(startTag, name, value string) string {
	re := setAttrRegex(name)
	if loc := re.FindStringSubmatchIndex(startTag); loc != nil {
		return startTag[:loc[3]] + `"` + value + `"` + startTag[loc[1]:]
	}
	end := 1
	for end < len(startTag) && !isSpace(startTag[end]) && startTag[end] != '>' && startTag[end] != '/' {
		end++
	}
	return startTag[:end] + " " + name + `="` + value + `"` + startTag[end:]
}

// attrCache maps attribute name to its compiled pattern.
var attrCache, setAttrCache sync.Map

func setAttrRegex(name string) *regexp.Regexp {
	if re, ok := setAttrCache.Load(name); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(fmt.Sprintf(setAttrExpr, regexp.QuoteMeta(name)))
	setAttrCache.Store(name, re)
	return re
}

func attrRegex(name string) *regexp.Regexp {
	if re, ok := attrCache.Load(name); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(fmt.Sprintf(attrValueExpr, regexp.QuoteMeta(name)))
	attrCache.Store(name, re)
	return re
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
