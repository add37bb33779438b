package index

import (
	"os"
	"testing"

	"github.com/gato-vcs/gato/internal/cas"
)

func TestAddEntrySortedPaths(t *testing.T) {
	idx := New()
	idx.AddEntry("b.txt", Entry{Path: "b.txt", Size: 1})
	idx.AddEntry("a.txt", Entry{Path: "a.txt", Size: 2})

	got := idx.SortedPaths()
	want := []string{"a.txt", "b.txt"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("SortedPaths = %v, want %v", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "gato-index-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	idx := New()
	h := cas.SumB3([]byte("content"))
	idx.AddEntry("src/main.go", Entry{Path: "src/main.go", ContentHash: h, Size: 42, ModTime: 1000, Mode: 0100644})
	idx.AddDependency(h)

	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(dir)
	e, ok := loaded.Entries["src/main.go"]
	if !ok {
		t.Fatalf("expected entry for src/main.go")
	}
	if e.Size != 42 || e.ModTime != 1000 || e.Mode != 0100644 {
		t.Fatalf("entry fields mismatch: %+v", e)
	}
	if e.ContentHash != h {
		t.Fatalf("content hash mismatch")
	}
	if len(loaded.Dependencies) != 1 || loaded.Dependencies[0] != h {
		t.Fatalf("dependencies mismatch: %v", loaded.Dependencies)
	}
}

func TestLoadMissingIndexReturnsEmpty(t *testing.T) {
	dir, err := os.MkdirTemp("", "gato-index-test-empty")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	idx := Load(dir)
	if len(idx.Entries) != 0 {
		t.Fatalf("expected empty index, got %d entries", len(idx.Entries))
	}
}
