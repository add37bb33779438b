package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/tree"
)

func newTestStore(t *testing.T) (*cas.Store, codec.Codec) {
	t.Helper()
	dir, err := os.MkdirTemp("", "gato-merge-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	store, err := cas.Open(dir, filepath.Join(dir, "objects"))
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	c, err := codec.New(codec.MethodZstd, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}
	return store, c
}

func buildTree(t *testing.T, store *cas.Store, c codec.Codec, files map[string]string) cas.Hash {
	t.Helper()
	paths := make(map[string]cas.Hash, len(files))
	for path, content := range files {
		h, err := blob.Store(store, c, []byte(content))
		if err != nil {
			t.Fatalf("blob.Store: %v", err)
		}
		paths[path] = h
	}
	root, _, err := tree.Build(store, paths)
	if err != nil {
		t.Fatalf("tree.Build: %v", err)
	}
	return root
}

func TestMergeTakesTargetWhenOnlyTargetChanged(t *testing.T) {
	store, c := newTestStore(t)
	base := buildTree(t, store, c, map[string]string{"a.txt": "base"})
	current := base // unchanged on current
	target := buildTree(t, store, c, map[string]string{"a.txt": "target-change"})

	result, err := MergeTrees(store, c, base, current, target)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if len(result.ConflictedPaths) != 0 {
		t.Fatalf("expected no conflicts, got %v", result.ConflictedPaths)
	}

	merged, err := tree.Load(store, result.TreeHash)
	if err != nil {
		t.Fatalf("Load merged tree: %v", err)
	}
	entry, ok := merged.GetEntry("a.txt")
	if !ok {
		t.Fatalf("expected a.txt entry")
	}
	content, err := blob.Load(store, c, entry.Hash)
	if err != nil {
		t.Fatalf("blob.Load: %v", err)
	}
	if string(content) != "target-change" {
		t.Fatalf("expected target's change to win, got %q", content)
	}
}

func TestMergeConflictingTextEmbedsMarkers(t *testing.T) {
	store, c := newTestStore(t)
	base := buildTree(t, store, c, map[string]string{"a.txt": "line1\nline2\nline3"})
	current := buildTree(t, store, c, map[string]string{"a.txt": "line1\nCURRENT\nline3"})
	target := buildTree(t, store, c, map[string]string{"a.txt": "line1\nTARGET\nline3"})

	result, err := MergeTrees(store, c, base, current, target)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if len(result.ConflictedPaths) != 1 || result.ConflictedPaths[0] != "a.txt" {
		t.Fatalf("expected a.txt to be conflicted, got %v", result.ConflictedPaths)
	}

	merged, err := tree.Load(store, result.TreeHash)
	if err != nil {
		t.Fatalf("Load merged tree: %v", err)
	}
	entry, _ := merged.GetEntry("a.txt")
	content, err := blob.Load(store, c, entry.Hash)
	if err != nil {
		t.Fatalf("blob.Load: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "<<<<<<<") || !strings.Contains(text, "=======") || !strings.Contains(text, ">>>>>>>") {
		t.Fatalf("expected conflict markers in merged content, got %q", text)
	}
	if !strings.Contains(text, "CURRENT") || !strings.Contains(text, "TARGET") {
		t.Fatalf("expected both sides' content in conflict markers, got %q", text)
	}
}

func TestMergeStructuralConflictFileVsDirectory(t *testing.T) {
	store, c := newTestStore(t)
	base := buildTree(t, store, c, map[string]string{"a": "file-content"})
	current := buildTree(t, store, c, map[string]string{"a": "changed"})
	target := buildTree(t, store, c, map[string]string{"a/nested.txt": "now-a-dir"})

	_, err := MergeTrees(store, c, base, current, target)
	if err == nil {
		t.Fatalf("expected a structural conflict error")
	}
	var ce *ConflictError
	if !asConflictError(err, &ce) {
		t.Fatalf("expected a *ConflictError, got %T: %v", err, err)
	}
}

func asConflictError(err error, target **ConflictError) bool {
	ce, ok := err.(*ConflictError)
	if ok {
		*target = ce
	}
	return ok
}
