package assemble

import (
	"strings"
	"testing"

	"github.com/matsen/refmerge/internal/config"
	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/extract"
	"github.com/matsen/refmerge/internal/renumber"
	"github.com/matsen/refmerge/internal/sequence"
	"github.com/matsen/refmerge/internal/testdoc"
)

func assembler(t *testing.T, orig, upd string, opts config.Options) (*Assembler, *conflict.Log) {
	t.Helper()
	a := &Assembler{
		Original: extract.Extract(orig, extract.DefaultPattern()),
		Updated:  extract.Extract(upd, extract.DefaultPattern()),
		Options:  &opts,
		IDs:      renumber.Seed(orig, extract.DefaultPattern(), renumber.DefaultNamespaces),
	}
	res := conflict.Match(a.Original, a.Updated, &opts)
	return a, res.Log
}

func merge(t *testing.T, a *Assembler, log *conflict.Log, opts config.Options) string {
	t.Helper()
	out, err := a.Assemble(log, sequence.New(opts.AutoSort).Project(log))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return out
}

func TestAssemble_SelfMergeIsIdentity(t *testing.T) {
	records := testdoc.Records(
		testdoc.Ref{ID: "bib1", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", Title: "First", SrefID: "sref1"},
		testdoc.Ref{ID: "bb0020", Label: "[2]", SourceText: "Baker B. Second paper, 2002", SrctID: "srct2"},
	)
	opts := config.DefaultOptions()
	opts.PreserveIDs = false
	opts.RenumberInternal = false
	a, log := assembler(t, records, records, opts)

	if got := merge(t, a, log, opts); got != records {
		t.Errorf("self-merge changed text:\n got %q\nwant %q", got, records)
	}
}

func TestAssemble_UpdateKeepsOriginalID(t *testing.T) {
	orig := testdoc.Records(testdoc.Ref{ID: "bib7", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", Title: "Old"})
	upd := testdoc.Records(testdoc.Ref{ID: "x99", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", Title: "New", SrefID: "sref1"})
	opts := config.DefaultOptions()
	a, log := assembler(t, orig, upd, opts)

	got := merge(t, a, log, opts)
	if !strings.HasPrefix(got, `<ce:bib-reference id="bib7">`) {
		t.Errorf("original id not kept:\n%s", got)
	}
	if !strings.Contains(got, "New") || strings.Contains(got, "Old") {
		t.Errorf("updated text not used:\n%s", got)
	}
	if !strings.Contains(got, `<sb:reference id="sref3000">`) {
		t.Errorf("internal id not renumbered:\n%s", got)
	}
}

func TestAssemble_LegacyIDReplaced(t *testing.T) {
	orig := testdoc.Records(testdoc.Ref{ID: "bb0010", Label: "[1]", Title: "Old title here"})
	upd := testdoc.Records(testdoc.Ref{ID: "bb0010", Label: "[1]", Title: "New title here"})
	opts := config.DefaultOptions()
	a, log := assembler(t, orig, upd, opts)

	got := merge(t, a, log, opts)
	if !strings.HasPrefix(got, `<ce:bib-reference id="bib15">`) {
		t.Errorf("legacy id not replaced:\n%s", got)
	}
}

func TestAssemble_WithoutPreserveKeepsUpdatedID(t *testing.T) {
	orig := testdoc.Records(testdoc.Ref{ID: "bib7", Label: "[1]", Title: "Old title here"})
	upd := testdoc.Records(testdoc.Ref{ID: "bib8", Label: "[1]", Title: "New title here"})
	opts := config.DefaultOptions()
	opts.PreserveIDs = false
	a, log := assembler(t, orig, upd, opts)

	if got := merge(t, a, log, opts); !strings.HasPrefix(got, `<ce:bib-reference id="bib8">`) {
		t.Errorf("updated id not kept:\n%s", got)
	}
}

func TestAssemble_AdditionGetsNewID(t *testing.T) {
	orig := testdoc.Records(
		testdoc.Ref{ID: "bib10", Label: "Adams, 2001", Authors: []string{"Adams"}, Year: "2001"},
		testdoc.Ref{ID: "bib20", Label: "Clark, 2003", Authors: []string{"Clark"}, Year: "2003"},
	)
	upd := orig + "\n" + testdoc.Records(
		testdoc.Ref{ID: "bib10", Label: "Baker, 2002", Authors: []string{"Baker"}, Year: "2002", SrefID: "sref1"},
	)
	opts := config.DefaultOptions()
	a, log := assembler(t, orig, upd, opts)

	lines := strings.Split(merge(t, a, log, opts), Separator)
	if len(lines) != 3 {
		t.Fatalf("got %d records, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[1], `<ce:bib-reference id="bib25">`) || !strings.Contains(lines[1], "Baker") {
		t.Errorf("addition not inserted with new id:\n%s", lines[1])
	}
}

func TestAssemble_KeepsSourceGaps(t *testing.T) {
	a1 := testdoc.Ref{ID: "bib1", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", Title: "First"}
	b2 := testdoc.Ref{ID: "bib2", Label: "[2]", Authors: []string{"Baker"}, Year: "2002", Title: "Second"}
	c3 := testdoc.Ref{ID: "x3", Label: "[3]", Authors: []string{"Clark"}, Year: "2003", Title: "Third"}
	gap := "\n    <!-- kept -->\n    "
	orig := a1.String() + gap + b2.String()
	upd := testdoc.Layout("\n    ", a1, b2, c3)

	opts := config.DefaultOptions()
	a, log := assembler(t, orig, upd, opts)
	a.Source = orig

	got := merge(t, a, log, opts)
	// No whitespace-only gap to copy, so the addition uses Separator.
	want := orig + Separator + `<ce:bib-reference id="bib10">`
	if !strings.HasPrefix(got, want) {
		t.Errorf("layout not kept:\n got %q\nwant prefix %q", got, want)
	}
}

func TestAssemble_DeselectedEntries(t *testing.T) {
	orig := testdoc.Records(testdoc.Ref{ID: "bib1", Label: "[1]", Title: "Old title here"})
	upd := testdoc.Records(
		testdoc.Ref{ID: "bib1", Label: "[1]", Title: "New title here"},
		testdoc.Ref{ID: "bib2", Label: "[2]", Title: "Extra title here"},
	)
	opts := config.DefaultOptions()
	a, log := assembler(t, orig, upd, opts)
	for i := 0; i < log.Len(); i++ {
		if err := log.SetSelected(i, false); err != nil {
			t.Fatal(err)
		}
	}

	// The deselected backbone entry falls back to its original text and the
	// deselected addition disappears.
	if got := merge(t, a, log, opts); got != orig {
		t.Errorf("got %q, want %q", got, orig)
	}
}

func TestAssemble_AmpersandLabels(t *testing.T) {
	orig := testdoc.Records(testdoc.Ref{ID: "bib1", Label: "Smith and Jones, 2010", Title: "Some title"})
	opts := config.DefaultOptions()
	opts.AmpersandNormalization = true
	a, log := assembler(t, orig, orig, opts)

	got := merge(t, a, log, opts)
	if !strings.Contains(got, "<ce:label>Smith &amp; Jones, 2010</ce:label>") {
		t.Errorf("label not normalized:\n%s", got)
	}
}

func TestAssemble_OutOfRange(t *testing.T) {
	opts := config.DefaultOptions()
	a, log := assembler(t, "", "", opts)
	if _, err := a.Assemble(log, []int{0}); err == nil {
		t.Error("expected error for position outside log")
	}
}

func TestRewriteLabel(t *testing.T) {
	raw := `<ce:bib-reference><ce:label>A and B</ce:label></ce:bib-reference>`
	tests := []struct {
		name, literal, formatted, want string
	}{
		{"unchanged", "A and B", "A and B", raw},
		{"rewritten", "A and B", "A &amp; B", `<ce:bib-reference><ce:label>A &amp; B</ce:label></ce:bib-reference>`},
		{"empty", "A and B", "", raw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteLabel(raw, tt.literal, tt.formatted); got != tt.want {
				t.Errorf("RewriteLabel() = %q, want %q", got, tt.want)
			}
		})
	}
	if got := RewriteLabel("<ce:bib-reference/>", "x", "y"); got != "<ce:bib-reference/>" {
		t.Errorf("record without label changed: %q", got)
	}
}

func TestAssemble_IdenticalUpdateNotRenumbered(t *testing.T) {
	records := testdoc.Records(
		testdoc.Ref{ID: "bb0005", Label: "[1]", Authors: []string{"Adams"}, Year: "2001", Title: "First", SrefID: "sref1"},
		testdoc.Ref{ID: "bib2", Label: "[2]", SourceText: "Baker B. Second paper, 2002", SrctID: "srct2", InterRefID: "iref2"},
	)
	opts := config.DefaultOptions()
	a, log := assembler(t, records, records, opts)

	if got := merge(t, a, log, opts); got != records {
		t.Errorf("self-merge changed text:\n got %q\nwant %q", got, records)
	}
}
