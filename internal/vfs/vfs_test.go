package vfs

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/tree"
	"github.com/hanwen/go-fuse/v2/fuse"
)

func newTestStore(t *testing.T) (*cas.Store, codec.Codec) {
	t.Helper()
	dir, err := os.MkdirTemp("", "gato-vfs-test")
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

// TestDirNodeGetattr checks the fixed directory attribute synthesis
// original_source's FileAttributes rules require: size 4096, mode 0755,
// nlink 2, regardless of how many entries the tree actually holds.
func TestDirNodeGetattr(t *testing.T) {
	store, c := newTestStore(t)
	root, _, err := tree.Build(store, map[string]cas.Hash{})
	if err != nil {
		t.Fatalf("tree.Build: %v", err)
	}
	tr, err := tree.Load(store, root)
	if err != nil {
		t.Fatalf("tree.Load: %v", err)
	}

	n := &dirNode{store: store, codec: c, tree: tr}
	var out fuse.AttrOut
	errno := n.Getattr(context.Background(), nil, &out)
	if errno != 0 {
		t.Fatalf("Getattr errno: %v", errno)
	}
	if out.Mode != syscall.S_IFDIR|0755 {
		t.Fatalf("expected mode S_IFDIR|0755, got %o", out.Mode)
	}
	if out.Size != 4096 {
		t.Fatalf("expected size 4096, got %d", out.Size)
	}
	if out.Nlink != 2 {
		t.Fatalf("expected nlink 2, got %d", out.Nlink)
	}
}

// TestFileNodeNormalReadAndGetattr exercises a small (Normal-encoded)
// blob: Getattr must report the decompressed content's length, mode
// 0644, nlink 1; Read must return exactly the requested byte range.
func TestFileNodeNormalReadAndGetattr(t *testing.T) {
	store, c := newTestStore(t)
	content := []byte("hello from gato's virtual filesystem")
	hash, err := blob.Store(store, c, content)
	if err != nil {
		t.Fatalf("blob.Store: %v", err)
	}

	n := &fileNode{store: store, codec: c, hash: hash}

	var out fuse.AttrOut
	if errno := n.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr errno: %v", errno)
	}
	if out.Mode != syscall.S_IFREG|0644 {
		t.Fatalf("expected mode S_IFREG|0644, got %o", out.Mode)
	}
	if out.Nlink != 1 {
		t.Fatalf("expected nlink 1, got %d", out.Nlink)
	}
	if out.Size != uint64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), out.Size)
	}

	res, errno := n.Read(context.Background(), nil, make([]byte, 5), 6)
	if errno != 0 {
		t.Fatalf("Read errno: %v", errno)
	}
	buf := make([]byte, 5)
	got, status := res.Bytes(buf)
	if status != fuse.OK {
		t.Fatalf("ReadResult.Bytes status: %v", status)
	}
	if !bytes.Equal(got, content[6:11]) {
		t.Fatalf("expected %q, got %q", content[6:11], got)
	}
}

// TestFileNodeChunkedReadReassembly exercises a large (Chunked-encoded)
// blob: Getattr must report the full reassembled length, and a Read of
// the trailing bytes that runs past EOF must return them, clamped.
func TestFileNodeChunkedReadReassembly(t *testing.T) {
	store, c := newTestStore(t)

	content := make([]byte, blob.ChunkThreshold+5*1024*1024)
	rand.New(rand.NewSource(1)).Read(content)

	hash, err := blob.Store(store, c, content)
	if err != nil {
		t.Fatalf("blob.Store: %v", err)
	}

	n := &fileNode{store: store, codec: c, hash: hash}

	var out fuse.AttrOut
	if errno := n.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr errno: %v", errno)
	}
	if out.Size != uint64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), out.Size)
	}

	offset := int64(len(content) - 10)
	dest := make([]byte, 20) // runs past EOF; Read must clamp, not panic
	res, errno := n.Read(context.Background(), nil, dest, offset)
	if errno != 0 {
		t.Fatalf("Read errno: %v", errno)
	}
	got, status := res.Bytes(make([]byte, 20))
	if status != fuse.OK {
		t.Fatalf("ReadResult.Bytes status: %v", status)
	}
	if !bytes.Equal(got, content[offset:]) {
		t.Fatalf("expected trailing bytes to match, got %d bytes", len(got))
	}
}
