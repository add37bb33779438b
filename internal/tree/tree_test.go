package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gato-vcs/gato/internal/cas"
)

func newTestStore(t *testing.T) *cas.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "gato-tree-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	store, err := cas.Open(dir, filepath.Join(dir, "objects"))
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	return store
}

func TestBuildFlatFiles(t *testing.T) {
	store := newTestStore(t)
	paths := map[string]cas.Hash{
		"a.txt": cas.SumB3([]byte("a")),
		"b.txt": cas.SumB3([]byte("b")),
	}

	root, deps, err := Build(store, paths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(deps) != 1 {
		t.Fatalf("expected exactly the root tree as a dependency, got %d", len(deps))
	}

	loaded, err := Load(store, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "root" {
		t.Fatalf("expected root tree name %q, got %q", "root", loaded.Name)
	}
	if len(loaded.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded.Entries))
	}
	if loaded.Entries[0].Name != "a.txt" || loaded.Entries[1].Name != "b.txt" {
		t.Fatalf("expected sorted entries a.txt, b.txt; got %+v", loaded.Entries)
	}
}

func TestBuildNestedDirectories(t *testing.T) {
	store := newTestStore(t)
	paths := map[string]cas.Hash{
		"src/main.go":  cas.SumB3([]byte("main")),
		"src/lib.go":   cas.SumB3([]byte("lib")),
		"README.md":    cas.SumB3([]byte("readme")),
		"docs/intro.md": cas.SumB3([]byte("intro")),
	}

	root, deps, err := Build(store, paths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// root + src subtree + docs subtree
	if len(deps) != 3 {
		t.Fatalf("expected 3 tree dependencies (root, src, docs), got %d: %v", len(deps), deps)
	}

	loaded, err := Load(store, root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := make([]string, len(loaded.Entries))
	for i, e := range loaded.Entries {
		names[i] = e.Name
	}
	want := []string{"README.md", "docs", "src"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("entry order mismatch: got %v, want %v", names, want)
		}
	}

	srcEntry, ok := loaded.GetEntry("src")
	if !ok || srcEntry.Kind != KindTree {
		t.Fatalf("expected src to be a Tree entry")
	}
	srcTree, err := Load(store, srcEntry.Hash)
	if err != nil {
		t.Fatalf("Load src subtree: %v", err)
	}
	if len(srcTree.Entries) != 2 {
		t.Fatalf("expected 2 entries under src, got %d", len(srcTree.Entries))
	}
}

func TestBuildDeterministic(t *testing.T) {
	store := newTestStore(t)
	paths := map[string]cas.Hash{
		"a/b/c.txt": cas.SumB3([]byte("c")),
		"a/d.txt":   cas.SumB3([]byte("d")),
	}

	root1, _, err := Build(store, paths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root2, _, err := Build(store, paths)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if root1 != root2 {
		t.Fatalf("tree building is not deterministic: %s vs %s", root1, root2)
	}
}
