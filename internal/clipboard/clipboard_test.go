package clipboard

import (
	"errors"
	"os/exec"
	"testing"
)

func withTools(t *testing.T, installed ...string) {
	t.Helper()
	have := make(map[string]bool, len(installed))
	for _, name := range installed {
		have[name] = true
	}
	orig := lookPath
	lookPath = func(name string) (string, error) {
		if have[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestFindTool_Preference(t *testing.T) {
	withTools(t, "xsel", "xclip")
	got, err := findTool("linux")
	if err != nil {
		t.Fatalf("findTool: %v", err)
	}
	if got.name != "xclip" {
		t.Errorf("got %q, want xclip", got.name)
	}
	if len(got.args) != 2 || got.args[1] != "clipboard" {
		t.Errorf("args = %v", got.args)
	}
}

func TestFindTool_Wayland(t *testing.T) {
	withTools(t, "wl-copy", "xclip")
	got, err := findTool("linux")
	if err != nil {
		t.Fatalf("findTool: %v", err)
	}
	if got.name != "wl-copy" {
		t.Errorf("got %q, want wl-copy", got.name)
	}
}

func TestFindTool_Unavailable(t *testing.T) {
	withTools(t)
	if _, err := findTool("linux"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Errorf("err = %v, want ErrClipboardUnavailable", err)
	}
	if _, err := findTool("plan9"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Errorf("err = %v, want ErrClipboardUnavailable", err)
	}
}

func TestCopy_Unavailable(t *testing.T) {
	withTools(t)
	if err := Copy("x"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Errorf("err = %v, want ErrClipboardUnavailable", err)
	}
	if IsAvailable() {
		t.Error("IsAvailable() = true with no tools")
	}
}
