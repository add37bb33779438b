package blob

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
)

func newTestStore(t *testing.T) *cas.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "gato-blob-test")
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

func TestStoreLoadNormal(t *testing.T) {
	store := newTestStore(t)
	c, err := codec.New(codec.MethodZstd, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	content := []byte("hello, gato")
	hash, err := Store(store, c, content)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, err := Load(store, c, hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("round trip mismatch: got %q want %q", got, content)
	}
}

func TestStoreLoadChunked(t *testing.T) {
	store := newTestStore(t)
	c, err := codec.New(codec.MethodZlib, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	r := rand.New(rand.NewSource(3))
	content := make([]byte, 12<<20) // forces the Chunked path
	r.Read(content)

	hash, err := Store(store, c, content)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	envelope, err := store.Get(hash)
	if err != nil {
		t.Fatalf("Get envelope: %v", err)
	}
	if Variant(envelope[0]) != VariantChunked {
		t.Fatalf("expected Chunked variant for large content")
	}

	got, err := Load(store, c, hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("round trip mismatch for chunked content")
	}
}

func TestStoreEmptyContent(t *testing.T) {
	store := newTestStore(t)
	c, err := codec.New(codec.MethodZstd, 0)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	hash, err := Store(store, c, nil)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := Load(store, c, hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty content, got %d bytes", len(got))
	}
}
