package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matsen/refmerge/internal/conflict"
)

func TestWriteAndReadDecisions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	decisions := []conflict.Decision{
		{Status: conflict.StatusUnchanged, OriginalRef: 0, UpdatedRef: conflict.NoRef, MatchKind: conflict.MatchNone, Selected: true, DisplayLabel: "[1]", SortKey: "[1]"},
		{Status: conflict.StatusSmartMatch, OriginalRef: 1, UpdatedRef: 0, MatchKind: conflict.MatchContent, MatchScore: 91, Selected: true, DisplayLabel: "[2]", SortKey: "[2]"},
		{Status: conflict.StatusOrphan, OriginalRef: conflict.NoRef, UpdatedRef: 1, MatchKind: conflict.MatchNone, DisplayLabel: "Zed, 2020", SortKey: "Zed, 2020"},
	}

	if err := WriteDecisions(path, decisions); err != nil {
		t.Fatalf("WriteDecisions() error = %v", err)
	}
	entries, err := ReadDecisions(path)
	if err != nil {
		t.Fatalf("ReadDecisions() error = %v", err)
	}

	if len(entries) != len(decisions) {
		t.Fatalf("got %d entries, want %d", len(entries), len(decisions))
	}
	for i, e := range entries {
		if e.Position != i {
			t.Errorf("entry %d has position %d", i, e.Position)
		}
		if diff := cmp.Diff(decisions[i], e.Decision); diff != "" {
			t.Errorf("entry %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestReadDecisions_NonExistentFile(t *testing.T) {
	entries, err := ReadDecisions(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatalf("ReadDecisions() error = %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil, got %v", entries)
	}
}

func TestReadDecisions_SkipsEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	content := `{"position":0,"status":"add","original_ref":-1,"updated_ref":0}` + "\n\n" +
		`{"position":1,"status":"unchanged","original_ref":0,"updated_ref":-1}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadDecisions(path)
	if err != nil {
		t.Fatalf("ReadDecisions() error = %v", err)
	}
	if len(entries) != 2 || entries[1].Status != conflict.StatusUnchanged {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestReadDecisions_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadDecisions(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
