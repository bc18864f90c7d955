package sequence

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matsen/refmerge/internal/conflict"
)

func kept(orig int, key string) conflict.Decision {
	return conflict.Decision{
		Status:      conflict.StatusUnchanged,
		OriginalRef: orig,
		UpdatedRef:  conflict.NoRef,
		Selected:    true,
		SortKey:     key,
	}
}

func added(upd int, key string, selected bool) conflict.Decision {
	status := conflict.StatusAdd
	if !selected {
		status = conflict.StatusOrphan
	}
	return conflict.Decision{
		Status:      status,
		OriginalRef: conflict.NoRef,
		UpdatedRef:  upd,
		Selected:    selected,
		SortKey:     key,
	}
}

func keys(l *conflict.Log, proj []int) []string {
	var out []string
	for _, i := range proj {
		out = append(out, l.At(i).SortKey)
	}
	return out
}

func TestProject_AutoInterleavesAdditions(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{
		kept(0, "Adams, 2001"),
		kept(1, "Clark, 2003"),
		kept(2, "Evans, 2005"),
		added(0, "Fox, 2006", true),
		added(1, "Baker, 2002", true),
		added(2, "Davis, 2004", true),
	})

	got := keys(log, New(true).Project(log))
	want := []string{"Adams, 2001", "Baker, 2002", "Clark, 2003", "Davis, 2004", "Evans, 2005", "Fox, 2006"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_BackboneOrderIsNeverSorted(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{
		kept(0, "Zeta"),
		kept(1, "Alpha"),
		added(0, "Mu", true),
	})

	// "Mu" goes before the first backbone entry sorting after it, which is none.
	got := keys(log, New(true).Project(log))
	want := []string{"Zeta", "Alpha", "Mu"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_NumericAwareKeys(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{
		kept(0, "[1]"),
		kept(1, "[2]"),
		kept(2, "[10]"),
		added(0, "[3]", true),
	})

	got := keys(log, New(true).Project(log))
	want := []string{"[1]", "[2]", "[3]", "[10]"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_DeselectedAdditionsOmitted(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{
		kept(0, "Adams"),
		added(0, "Baker", false),
	})

	for _, s := range []*Sequencer{New(true), New(false)} {
		if got := s.Project(log); !cmp.Equal(got, []int{0}) {
			t.Errorf("mode %s: got %v, want [0]", s.Mode(), got)
		}
	}
}

func TestProject_DeselectedBackboneKept(t *testing.T) {
	d := kept(0, "Adams")
	d.Selected = false
	log := conflict.NewLog([]conflict.Decision{d})

	if got := New(true).Project(log); !cmp.Equal(got, []int{0}) {
		t.Errorf("got %v, want [0]", got)
	}
}

func TestProject_ManualIsLogOrder(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{
		kept(0, "Clark"),
		added(0, "Baker", true),
		kept(1, "Adams"),
	})

	if got := New(false).Project(log); !cmp.Equal(got, []int{0, 1, 2}) {
		t.Errorf("got %v, want [0 1 2]", got)
	}
}

func TestDrag_CommitsProjectionAndSwitchesToManual(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{
		kept(0, "Adams"),
		kept(1, "Clark"),
		added(0, "Baker", true),
		added(1, "Orphan", false),
	})
	s := New(true)

	// Auto projection: Adams, Baker, Clark. Move Clark to the front.
	if err := s.Drag(log, 2, 0); err != nil {
		t.Fatalf("Drag: %v", err)
	}
	if s.Mode() != ModeManual {
		t.Errorf("mode = %s, want manual", s.Mode())
	}

	got := keys(log, s.Project(log))
	want := []string{"Clark", "Adams", "Baker"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
	if last := log.At(log.Len() - 1).SortKey; last != "Orphan" {
		t.Errorf("excluded entry moved: last = %q", last)
	}
}

func TestDrag_OutOfRange(t *testing.T) {
	log := conflict.NewLog([]conflict.Decision{kept(0, "Adams")})
	s := New(true)

	err := s.Drag(log, 0, 1)
	if !errors.Is(err, conflict.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if s.Mode() != ModeAuto {
		t.Error("failed drag must not change mode")
	}
}

func TestSetAutoSort_Transitions(t *testing.T) {
	s := New(true)
	s.SetAutoSort(false)
	if s.Mode() != ModeManual {
		t.Errorf("mode = %s, want manual", s.Mode())
	}
	s.SetAutoSort(true)
	if s.Mode() != ModeAuto {
		t.Errorf("mode = %s, want auto", s.Mode())
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("manual"); err != nil || m != ModeManual {
		t.Errorf("ParseMode(manual) = %q, %v", m, err)
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"smith", "Smith", 0},
		{"[2]", "[10]", -1},
		{"O'Brien", "OBrien", 0},
		{"Baker &amp; Co", "Baker Co", 0},
		{"zeta", "alpha", 1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareKey(t *testing.T) {
	if got := CompareKey("  Smith,   J.  (2010) "); got != "Smith J 2010" {
		t.Errorf("CompareKey = %q", got)
	}
}
