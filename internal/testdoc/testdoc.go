// Package testdoc builds bibliography markup fixtures for tests.
package testdoc

import (
	"fmt"
	"strings"
)

// Ref describes one ce:bib-reference block. Empty fields are omitted.
type Ref struct {
	ID         string
	Label      string
	Authors    []string // surnames
	Year       string
	Title      string
	SourceText string
	SrefID     string // id of sb:reference
	SrctID     string // id of ce:source-text
	InterRefID string // id of a ce:inter-ref inside the source text
}

// Header and Footer wrap the record list in Doc.
const (
	Header = `<?xml version="1.0" encoding="UTF-8"?>
<ce:bibliography id="bibl1"><ce:section-title>References</ce:section-title><ce:bibliography-sec id="bs1">`
	Footer = `</ce:bibliography-sec></ce:bibliography>`
)

// String renders r on a single line.
func (r Ref) String() string {
	var b strings.Builder
	if r.ID != "" {
		fmt.Fprintf(&b, `<ce:bib-reference id="%s">`, r.ID)
	} else {
		b.WriteString(`<ce:bib-reference>`)
	}
	if r.Label != "" {
		fmt.Fprintf(&b, `<ce:label>%s</ce:label>`, r.Label)
	}
	if len(r.Authors) > 0 || r.Title != "" || r.Year != "" {
		if r.SrefID != "" {
			fmt.Fprintf(&b, `<sb:reference id="%s">`, r.SrefID)
		} else {
			b.WriteString(`<sb:reference>`)
		}
		b.WriteString(`<sb:contribution>`)
		if len(r.Authors) > 0 {
			b.WriteString(`<sb:authors>`)
			for _, a := range r.Authors {
				fmt.Fprintf(&b, `<sb:author><ce:given-name>A.</ce:given-name><ce:surname>%s</ce:surname></sb:author>`, a)
			}
			b.WriteString(`</sb:authors>`)
		}
		if r.Title != "" {
			fmt.Fprintf(&b, `<sb:title><sb:maintitle>%s</sb:maintitle></sb:title>`, r.Title)
		}
		b.WriteString(`</sb:contribution>`)
		if r.Year != "" {
			fmt.Fprintf(&b, `<sb:host><sb:issue><sb:date>%s</sb:date></sb:issue></sb:host>`, r.Year)
		}
		b.WriteString(`</sb:reference>`)
	}
	if r.SourceText != "" {
		if r.SrctID != "" {
			fmt.Fprintf(&b, `<ce:source-text id="%s">`, r.SrctID)
		} else {
			b.WriteString(`<ce:source-text>`)
		}
		b.WriteString(r.SourceText)
		if r.InterRefID != "" {
			fmt.Fprintf(&b, ` <ce:inter-ref id="%s" xlink:href="https://doi.org/10.1000/x">doi</ce:inter-ref>`, r.InterRefID)
		}
		b.WriteString(`</ce:source-text>`)
	}
	b.WriteString(`</ce:bib-reference>`)
	return b.String()
}

// Records renders refs one per line without header or footer.
func Records(refs ...Ref) string {
	lines := make([]string, len(refs))
	for i, r := range refs {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// Doc renders a full document: header line, one record per line, footer line.
func Doc(refs ...Ref) string {
	return Header + "\n" + Records(refs...) + "\n" + Footer + "\n"
}

// Layout renders a full document with sep before, between and after the
// records, e.g. "\n  " for indented markup or "" for a single line.
func Layout(sep string, refs ...Ref) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return Header + sep + strings.Join(parts, sep) + sep + Footer
}
