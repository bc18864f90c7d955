package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matsen/refmerge/internal/reference"
	"github.com/matsen/refmerge/internal/testdoc"
)

func TestExtract_FullRecord(t *testing.T) {
	doc := testdoc.Doc(testdoc.Ref{
		ID:         "bib1",
		Label:      "[1]",
		Authors:    []string{"Smith", "Jones"},
		Year:       "2010",
		Title:      "Gene &amp; Protein Networks",
		SourceText: "Smith A., Jones A. Gene networks. 2010.",
		SrefID:     "sref1",
		SrctID:     "srct1",
	})

	records := Extract(doc, DefaultPattern())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.RecordID != "bib1" {
		t.Errorf("RecordID = %q, want bib1", rec.RecordID)
	}
	if rec.Label != "[1]" || rec.IsSyntheticLabel {
		t.Errorf("Label = %q (synthetic %v), want literal [1]", rec.Label, rec.IsSyntheticLabel)
	}
	wantAuthors := []reference.Author{
		{Surname: "Smith", GivenName: "A."},
		{Surname: "Jones", GivenName: "A."},
	}
	if diff := cmp.Diff(wantAuthors, rec.Authors); diff != "" {
		t.Errorf("Authors mismatch (-want +got):\n%s", diff)
	}
	if rec.Year != "2010" {
		t.Errorf("Year = %q, want 2010", rec.Year)
	}
	if rec.Title != "Gene & Protein Networks" {
		t.Errorf("Title = %q, want decoded entity", rec.Title)
	}
	if rec.Fingerprint != "meta|smith|2010|gene protein networks" {
		t.Errorf("Fingerprint = %q", rec.Fingerprint)
	}
	if rec.SortKey != "[1]" {
		t.Errorf("SortKey = %q, want [1]", rec.SortKey)
	}
	if doc[rec.Start:rec.End] != rec.RawText {
		t.Error("Start/End do not delimit RawText")
	}
	if !strings.HasPrefix(rec.RawText, `<ce:bib-reference id="bib1">`) ||
		!strings.HasSuffix(rec.RawText, `</ce:bib-reference>`) {
		t.Errorf("RawText not the exact span: %q", rec.RawText)
	}
	if strings.ContainsAny(rec.BodyText, "<>") || rec.BodyText != strings.ToLower(rec.BodyText) {
		t.Errorf("BodyText not normalized: %q", rec.BodyText)
	}
}

func TestExtract_SyntheticLabel(t *testing.T) {
	doc := testdoc.Records(testdoc.Ref{
		ID:      "bib2",
		Authors: []string{"Brown", "Green", "White"},
		Year:    "2001",
		Title:   "Colours",
	})

	records := Extract(doc, DefaultPattern())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Label != "Brown et al., 2001" {
		t.Errorf("Label = %q, want Brown et al., 2001", records[0].Label)
	}
	if !records[0].IsSyntheticLabel {
		t.Error("IsSyntheticLabel should be true")
	}
}

func TestExtract_TextFingerprint(t *testing.T) {
	doc := testdoc.Records(testdoc.Ref{
		ID:         "bib3",
		SourceText: "Anonymous. Untitled pamphlet, privately printed.",
	})

	records := Extract(doc, DefaultPattern())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Label != "" {
		t.Errorf("Label = %q, want empty", rec.Label)
	}
	if !strings.HasPrefix(rec.Fingerprint, "text|anonymous untitled pamphlet") {
		t.Errorf("Fingerprint = %q, want text fingerprint", rec.Fingerprint)
	}
	if len([]rune(rec.SortKey)) > SortKeyLen {
		t.Errorf("SortKey = %q longer than %d", rec.SortKey, SortKeyLen)
	}
	if !strings.HasPrefix(rec.SortKey, "anonymous. untitled") {
		t.Errorf("SortKey = %q, want body prefix", rec.SortKey)
	}
}

func TestExtract_DropsNoise(t *testing.T) {
	doc := `<ce:bib-reference id="b1"> </ce:bib-reference>
<ce:bib-reference id="b2"><ce:source-text>tiny</ce:source-text></ce:bib-reference>
<ce:bib-reference id="b3"><ce:label>X</ce:label></ce:bib-reference>`

	records := Extract(doc, DefaultPattern())
	if len(records) != 1 {
		t.Fatalf("expected only the labeled record, got %d", len(records))
	}
	if records[0].RecordID != "b3" {
		t.Errorf("kept %q, want b3", records[0].RecordID)
	}
}

func TestExtract_Lenient(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantIDs []string
	}{
		{
			name:    "no boundaries",
			doc:     "<ce:para>No references here.</ce:para>",
			wantIDs: nil,
		},
		{
			name: "unterminated record skipped",
			doc: `<ce:bib-reference id="a"><ce:label>A</ce:label>
<ce:bib-reference id="b"><ce:label>B</ce:label></ce:bib-reference>`,
			wantIDs: []string{"b"},
		},
		{
			name:    "unterminated at end",
			doc:     `<ce:bib-reference id="b"><ce:label>B</ce:label></ce:bib-reference><ce:bib-reference id="c"><ce:label>C`,
			wantIDs: []string{"b"},
		},
		{
			name:    "start tag never closed",
			doc:     `<ce:bib-reference id="x"`,
			wantIDs: nil,
		},
		{
			name:    "longer element name ignored",
			doc:     `<ce:bib-references id="z"><ce:label>Z</ce:label></ce:bib-references>`,
			wantIDs: nil,
		},
		{
			name:    "single quoted id",
			doc:     `<ce:bib-reference id='q1'><ce:label>Q</ce:label></ce:bib-reference>`,
			wantIDs: []string{"q1"},
		},
		{
			name:    "self closing skipped",
			doc:     `<ce:bib-reference id="s"/><ce:bib-reference id="t"><ce:label>T</ce:label></ce:bib-reference>`,
			wantIDs: []string{"t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Extract(tt.doc, DefaultPattern()) {
				got = append(got, r.RecordID)
			}
			if diff := cmp.Diff(tt.wantIDs, got); diff != "" {
				t.Errorf("record ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSpans_OffsetsSkipCommentsAndCDATA(t *testing.T) {
	rec := `<ce:bib-reference id="a"><ce:label>A &amp; B</ce:label></ce:bib-reference>`
	doc := "<!-- <ce:bib-reference id=\"c\"><ce:label>C</ce:label></ce:bib-reference> -->\r\n" +
		"<![CDATA[<ce:bib-reference id=\"d\"></ce:bib-reference>]]>\n  " + rec +
		`<CE:BIB-REFERENCE id="e"><ce:label>E</ce:label></CE:BIB-REFERENCE>`

	spans := Spans(doc, DefaultPattern())
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1: %+v", len(spans), spans)
	}
	if got := doc[spans[0].Start:spans[0].End]; got != rec {
		t.Errorf("span text = %q, want %q", got, rec)
	}
	if spans[0].StartTag != `<ce:bib-reference id="a">` {
		t.Errorf("StartTag = %q", spans[0].StartTag)
	}
}

func TestExtract_CustomPattern(t *testing.T) {
	doc := `<ref key="r1"><ce:label>[9]</ce:label></ref>`
	records := Extract(doc, Pattern{Element: "ref", IDAttr: "key"})
	if len(records) != 1 || records[0].RecordID != "r1" {
		t.Fatalf("custom pattern extraction = %+v", records)
	}
}

func TestAttr(t *testing.T) {
	tests := []struct {
		tag, name, want string
	}{
		{`<ce:bib-reference id="bib1">`, "id", "bib1"},
		{`<ce:bib-reference xml:id="x" id="bib2">`, "id", "bib2"},
		{`<ce:bib-reference xml:id="x">`, "id", ""},
		{`<ce:inter-ref id = 'iref3' xlink:href="u">`, "id", "iref3"},
	}
	for _, tt := range tests {
		if got := Attr(tt.tag, tt.name); got != tt.want {
			t.Errorf("Attr(%q, %q) = %q, want %q", tt.tag, tt.name, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  <b>Smith</b>\n &amp;  <i>Jones</i> ")
	if got != "Smith & Jones" {
		t.Errorf("CleanText() = %q, want %q", got, "Smith & Jones")
	}
}

func TestSetAttr(t *testing.T) {
	tests := []struct {
		tag, want string
	}{
		{`<ce:bib-reference id="bb0010">`, `<ce:bib-reference id="bib3005">`},
		{`<ce:inter-ref id = 'iref3' xlink:href="u">`, `<ce:inter-ref id = "bib3005" xlink:href="u">`},
		{`<ce:bib-reference xml:id="x">`, `<ce:bib-reference id="bib3005" xml:id="x">`},
		{`<ce:bib-reference>`, `<ce:bib-reference id="bib3005">`},
		{`<ce:other-ref/>`, `<ce:other-ref id="bib3005"/>`},
		{`<ce:textref refid="r1">`, `<ce:textref id="bib3005" refid="r1">`},
	}
	for _, tt := range tests {
		if got := SetAttr(tt.tag, "id", "bib3005"); got != tt.want {
			t.Errorf("SetAttr(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
