package renumber

import (
	"strconv"
	"strings"
	"testing"

	"github.com/matsen/refmerge/internal/extract"
	"github.com/matsen/refmerge/internal/testdoc"
)

func ns(name string) Namespace {
	for _, n := range DefaultNamespaces {
		if n.Name == name {
			return n
		}
	}
	panic("unknown namespace " + name)
}

func TestSeed_FloorWhenEmpty(t *testing.T) {
	r := Seed(testdoc.Doc(testdoc.Ref{Label: "[1]", SourceText: "Plain text reference"}), extract.DefaultPattern(), DefaultNamespaces)

	if got := r.Next(ns("reference")); got != "sref3000" {
		t.Errorf("Next(reference) = %q, want sref3000", got)
	}
	if got := r.NextTop(); got != "bib3000" {
		t.Errorf("NextTop() = %q, want bib3000", got)
	}
}

func TestSeed_RoundsUpPastMaximum(t *testing.T) {
	doc := testdoc.Doc(
		testdoc.Ref{ID: "bib3000", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", SrefID: "sref12"},
		testdoc.Ref{ID: "bb0017", Label: "[2]", SourceText: "Text", SrctID: "srct3003", InterRefID: "iref20"},
	)
	r := Seed(doc, extract.DefaultPattern(), DefaultNamespaces)

	tests := []struct {
		ns   string
		want string
	}{
		{"reference", "sref20"},     // 12 -> 15 + 5
		{"source-text", "srct3010"}, // 3003 -> 3005 + 5
		{"inter-ref", "iref25"},     // 20 -> 20 + 5
		{"other-ref", "oref3000"},
	}
	for _, tt := range tests {
		if got := r.Next(ns(tt.ns)); got != tt.want {
			t.Errorf("Next(%s) = %q, want %q", tt.ns, got, tt.want)
		}
	}
	if got := r.NextTop(); got != "bib3005" {
		t.Errorf("NextTop() = %q, want bib3005", got)
	}
}

func TestNext_StepsByFive(t *testing.T) {
	r := Seed("", extract.DefaultPattern(), DefaultNamespaces)
	prev := -1
	for i := 0; i < 20; i++ {
		id := r.Next(ns("inter-ref"))
		n, err := strconv.Atoi(strings.TrimPrefix(id, "iref"))
		if err != nil {
			t.Fatalf("unexpected id %q", id)
		}
		if prev >= 0 && n != prev+Step {
			t.Fatalf("id %d follows %d, want step %d", n, prev, Step)
		}
		prev = n
	}
}

func TestNext_UnknownNamespace(t *testing.T) {
	r := Seed("", extract.DefaultPattern(), DefaultNamespaces)
	if got := r.Next(Namespace{Name: "x", Element: "ce:x", Prefix: "x"}); got != "" {
		t.Errorf("Next(unknown) = %q, want empty", got)
	}
}

func TestRewriteInternal(t *testing.T) {
	r := Seed("", extract.DefaultPattern(), DefaultNamespaces)
	raw := testdoc.Ref{
		ID: "bib1", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", SrefID: "sref1",
		SourceText: "See", SrctID: "srct1", InterRefID: "iref1",
	}.String()

	got := r.RewriteInternal(raw)

	for _, want := range []string{`<sb:reference id="sref3000">`, `<ce:source-text id="srct3000">`, `<ce:inter-ref id="iref3000"`} {
		if !strings.Contains(got, want) {
			t.Errorf("rewritten record missing %s:\n%s", want, got)
		}
	}
	if !strings.HasPrefix(got, `<ce:bib-reference id="bib1">`) {
		t.Errorf("top-level id must not change:\n%s", got)
	}

	// A second record continues from the advanced counters.
	again := r.RewriteInternal(raw)
	if !strings.Contains(again, `<sb:reference id="sref3005">`) {
		t.Errorf("second rewrite did not advance counter:\n%s", again)
	}
}

func TestRewriteInternal_LeavesElementsWithoutID(t *testing.T) {
	r := Seed("", extract.DefaultPattern(), DefaultNamespaces)
	raw := `<ce:bib-reference id="b1"><ce:other-ref><ce:textref>Text</ce:textref></ce:other-ref></ce:bib-reference>`
	if got := r.RewriteInternal(raw); got != raw {
		t.Errorf("RewriteInternal changed id-less record:\n%s", got)
	}
}

func TestRewriteTop(t *testing.T) {
	r := Seed("", extract.DefaultPattern(), DefaultNamespaces)
	raw := `<ce:bib-reference id="bb0010"><ce:label>[1]</ce:label></ce:bib-reference>`
	want := `<ce:bib-reference id="bib3000"><ce:label>[1]</ce:label></ce:bib-reference>`
	if got := r.RewriteTop(raw, r.NextTop()); got != want {
		t.Errorf("RewriteTop() = %q, want %q", got, want)
	}
}

func TestSeed_CustomPattern(t *testing.T) {
	p := extract.Pattern{Element: "entry", IDAttr: "key"}
	doc := `<list><entry key="bib42"><ce:label>[1]</ce:label></entry>` +
		`<entry key="bib7"><ce:label>[2]</ce:label></entry></list>`

	r := Seed(doc, p, DefaultNamespaces)
	if got := r.NextTop(); got != "bib50" {
		t.Errorf("NextTop() = %q, want bib50", got)
	}
	if got := Seed(doc, extract.DefaultPattern(), DefaultNamespaces).NextTop(); got != "bib3000" {
		t.Errorf("default pattern NextTop() = %q, want bib3000", got)
	}

	raw := `<entry key="bib7"><ce:label>[2]</ce:label></entry>`
	want := `<entry key="bib55"><ce:label>[2]</ce:label></entry>`
	if got := r.RewriteTop(raw, r.NextTop()); got != want {
		t.Errorf("RewriteTop() = %q, want %q", got, want)
	}
}

func TestIsLegacy(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"bb0010", true},
		{"bb5", true},
		{"bib10", false},
		{"bbx10", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsLegacy(tt.id); got != tt.want {
			t.Errorf("IsLegacy(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
