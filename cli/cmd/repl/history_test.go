package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_AddAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{"fleet/scout", modeQuery},
		{"paths", modeCtrl},
		{"fleet/scout", modeQuery}, // repeat of a non-final entry moves it
		{"fleet/scout", modeQuery}, // repeat of the final entry is dropped
		{"kind == \"Number\"", modeQuery},
		{"  ", modeCtrl},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q): %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"paths", modeCtrl},
		{"fleet/scout", modeQuery},
		{"kind == \"Number\"", modeQuery},
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, got := range []*History{h, loaded} {
		if got.Len() != len(want) {
			t.Fatalf("Len = %d, want %d", got.Len(), len(want))
		}

		for i, w := range want {
			if e, err := got.Entry(i); err != nil || e != w {
				t.Errorf("Entry(%d) = %+v, %v; want %+v", i, e, err, w)
			}
		}
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil || h.Len() != 0 {
		t.Errorf("Load = %v, Len = %d", err, h.Len())
	}
}

func TestHistory_LoadUntagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	if err := os.WriteFile(path, []byte("a/b\nC:quit\n\nQ:\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}

	if e, _ := h.Entry(0); e != (HistoryEntry{"a/b", modeQuery}) {
		t.Errorf("Entry(0) = %+v", e)
	}

	if e, _ := h.Entry(1); e != (HistoryEntry{"quit", modeCtrl}) {
		t.Errorf("Entry(1) = %+v", e)
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")

	if err := h.Add("x", modeQuery); err != nil {
		t.Fatal(err)
	}

	if _, err := h.Entry(1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Entry(1) error = %v, want ErrOutOfBounds", err)
	}
}
