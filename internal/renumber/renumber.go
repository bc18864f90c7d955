// Package renumber allocates fresh identifiers for merged records and the
// cross-reference elements inside them.
package renumber

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/refmerge/internal/extract"
)

const (
	// Floor is the first counter value when a namespace has no identifiers yet.
	Floor = 3000
	// Step is the distance between successive identifiers.
	Step = 5
	// TopPrefix prefixes newly assigned top-level record identifiers.
	TopPrefix = "bib"
)

// Namespace is a family of identifiers owned by one element name.
type Namespace struct {
	Name    string
	Element string
	Prefix  string
}

// DefaultNamespaces lists the cross-reference namespaces found inside
// bibliography records.
var DefaultNamespaces = []Namespace{
	{Name: "reference", Element: "sb:reference", Prefix: "sref"},
	{Name: "source-text", Element: "ce:source-text", Prefix: "srct"},
	{Name: "inter-ref", Element: "ce:inter-ref", Prefix: "iref"},
	{Name: "other-ref", Element: "ce:other-ref", Prefix: "oref"},
	{Name: "textref", Element: "ce:textref", Prefix: "tref"},
}

var (
	legacyRegex = regexp.MustCompile(`^bb\d+$`)
	digitsRegex = regexp.MustCompile(`(\d+)$`)
)

// IsLegacy reports whether a top-level identifier uses the retired bb prefix.
func IsLegacy(id string) bool {
	return legacyRegex.MatchString(id)
}

// Renumberer holds one counter per namespace plus the top-level counter.
// A Renumberer belongs to a single merge run.
type Renumberer struct {
	namespaces []Namespace
	byElement  map[string]int
	counters   []int
	next       int
	tagRegex   *regexp.Regexp
	top        extract.Pattern
}

// Seed scans the original document and returns counters positioned past
// every identifier already in use. p is the record boundary whose id
// attribute holds top-level identifiers.
func Seed(doc string, p extract.Pattern, namespaces []Namespace) *Renumberer {
	r := &Renumberer{
		namespaces: namespaces,
		byElement:  make(map[string]int, len(namespaces)),
		counters:   make([]int, len(namespaces)),
		top:        p,
	}

	elements := make([]string, 0, len(namespaces)+1)
	for i, ns := range namespaces {
		r.byElement[ns.Element] = i
		elements = append(elements, regexp.QuoteMeta(ns.Element))
	}
	r.tagRegex = regexp.MustCompile(`<(` + strings.Join(elements, "|") + `)(?:\s[^>]*)?>`)

	maxima := make([]int, len(namespaces))
	found := make([]bool, len(namespaces))
	for _, m := range r.tagRegex.FindAllStringSubmatch(doc, -1) {
		i := r.byElement[m[1]]
		if n, ok := numericSuffix(extract.Attr(m[0], "id")); ok {
			found[i] = true
			maxima[i] = max(maxima[i], n)
		}
	}
	for i := range namespaces {
		r.counters[i] = seed(maxima[i], found[i])
	}

	topMax, topFound := 0, false
	for _, span := range extract.Spans(doc, p) {
		if n, ok := numericSuffix(extract.Attr(span.StartTag, p.IDAttr)); ok {
			topFound = true
			topMax = max(topMax, n)
		}
	}
	r.next = seed(topMax, topFound)
	return r
}

func seed(maximum int, found bool) int {
	if !found {
		return Floor
	}
	return (maximum+Step-1)/Step*Step + Step
}

func numericSuffix(id string) (int, bool) {
	m := digitsRegex.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Next returns the next identifier of namespace ns and advances its counter.
func (r *Renumberer) Next(ns Namespace) string {
	i, ok := r.byElement[ns.Element]
	if !ok {
		return ""
	}
	id := r.namespaces[i].Prefix + strconv.Itoa(r.counters[i])
	r.counters[i] += Step
	return id
}

// NextTop returns the next top-level identifier and advances the counter.
func (r *Renumberer) NextTop() string {
	id := TopPrefix + strconv.Itoa(r.next)
	r.next += Step
	return id
}

// RewriteInternal gives every namespace element of raw that carries an id a
// freshly allocated one, in document order.
func (r *Renumberer) RewriteInternal(raw string) string {
	return r.tagRegex.ReplaceAllStringFunc(raw, func(tag string) string {
		if extract.Attr(tag, "id") == "" {
			return tag
		}
		name := r.tagRegex.FindStringSubmatch(tag)[1]
		return extract.SetAttr(tag, "id", r.Next(r.namespaces[r.byElement[name]]))
	})
}

// RewriteTop sets the identifier attribute of the record's boundary start
// tag to id.
func (r *Renumberer) RewriteTop(raw, id string) string {
	if !strings.HasPrefix(raw, "<"+r.top.Element) {
		return raw
	}
	end := strings.IndexByte(raw, '>')
	if end < 0 {
		return raw
	}
	return extract.SetAttr(raw[:end+1], r.top.IDAttr, id) + raw[end+1:]
}
