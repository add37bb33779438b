package add

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/index"
)

func setupWorkDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "gato-add-work")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestResolvePathsSkipsIgnored(t *testing.T) {
	work := setupWorkDir(t)
	os.MkdirAll(filepath.Join(work, ".gato"), 0755)
	os.WriteFile(filepath.Join(work, ".gato", "index"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(work, "gato.toml"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(work, "a.txt"), []byte("a"), 0644)
	os.MkdirAll(filepath.Join(work, "sub"), 0755)
	os.WriteFile(filepath.Join(work, "sub", "b.txt"), []byte("b"), 0644)

	paths, err := ResolvePaths(work, []string{"."}, []string{".gato", "gato.toml"})
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}

	found := make(map[string]bool)
	for _, p := range paths {
		found[p] = true
	}
	if found[".gato/index"] || found["gato.toml"] {
		t.Fatalf("expected ignored paths to be excluded, got %v", paths)
	}
	if !found["a.txt"] || !found[filepath.Join("sub", "b.txt")] {
		t.Fatalf("expected a.txt and sub/b.txt to be included, got %v", paths)
	}
}

func TestRunStagesSmallFiles(t *testing.T) {
	work := setupWorkDir(t)
	os.WriteFile(filepath.Join(work, "a.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(work, "b.txt"), []byte("world"), 0644)

	storeDir, err := os.MkdirTemp("", "gato-add-store")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(storeDir)
	store, err := cas.Open(storeDir, filepath.Join(storeDir, "objects"))
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	c, err := codec.New(codec.MethodZstd, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	idx := index.New()
	if err := Run(store, c, idx, work, []string{"a.txt", "b.txt"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(idx.Entries) != 2 {
		t.Fatalf("expected 2 staged entries, got %d", len(idx.Entries))
	}
	aEntry, ok := idx.Entries["a.txt"]
	if !ok {
		t.Fatalf("expected a.txt entry")
	}
	content, err := blob.Load(store, c, aEntry.ContentHash)
	if err != nil {
		t.Fatalf("blob.Load: %v", err)
	}
	if string(content) != "hello" {
		t.Fatalf("content mismatch: %q", content)
	}
	if len(idx.Dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(idx.Dependencies))
	}
}

func TestRunStagesLargeFileChunked(t *testing.T) {
	work := setupWorkDir(t)
	r := rand.New(rand.NewSource(9))
	big := make([]byte, 10<<20)
	r.Read(big)
	os.WriteFile(filepath.Join(work, "big.bin"), big, 0644)

	storeDir, err := os.MkdirTemp("", "gato-add-store-big")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(storeDir)
	store, err := cas.Open(storeDir, filepath.Join(storeDir, "objects"))
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	c, err := codec.New(codec.MethodZlib, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	idx := index.New()
	if err := Run(store, c, idx, work, []string{"big.bin"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	entry := idx.Entries["big.bin"]
	content, err := blob.Load(store, c, entry.ContentHash)
	if err != nil {
		t.Fatalf("blob.Load: %v", err)
	}
	if len(content) != len(big) {
		t.Fatalf("content length mismatch: got %d want %d", len(content), len(big))
	}
	if len(idx.Dependencies) < 2 {
		t.Fatalf("expected chunk + envelope dependencies, got %d", len(idx.Dependencies))
	}
}

func TestRunAbortsOnFailure(t *testing.T) {
	work := setupWorkDir(t)
	os.WriteFile(filepath.Join(work, "a.txt"), []byte("a"), 0644)

	storeDir, err := os.MkdirTemp("", "gato-add-store-fail")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(storeDir)
	store, err := cas.Open(storeDir, filepath.Join(storeDir, "objects"))
	if err != nil {
		t.Fatalf("cas.Open: %v", err)
	}
	c, err := codec.New(codec.MethodZstd, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	idx := index.New()
	err = Run(store, c, idx, work, []string{"a.txt", "missing.txt"})
	if err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if len(idx.Entries) != 0 {
		t.Fatalf("expected no partial index mutation on failure, got %d entries", len(idx.Entries))
	}
}
