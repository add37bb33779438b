// Package vfs implements Gato's Virtual FS (C12): a read-only
// go-fuse/v2 filesystem that materializes a commit's tree on demand,
// loading blob content lazily rather than checking the whole tree out
// to disk first. Host binding is abstracted the way spec.md §4.12
// describes — a capability interface satisfied by go-fuse's Inode
// table — grounded on the teacher's cli/fuse.go command shape (mount
// point argument, error-returning Run) for the CLI side, and on
// go-fuse/v2's own nodefs convention (embed fs.Inode, populate children
// in OnAdd) for the filesystem side, since the teacher itself mounts no
// FUSE filesystem.
package vfs

import (
	"context"
	"fmt"
	"syscall"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/tree"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// dirNode projects a Tree object as a read-only directory inode. Its
// children are created in OnAdd, when the node is added to the
// filesystem, not on a later lookup or readdir; only file content is
// loaded lazily.
type dirNode struct {
	fs.Inode

	store *cas.Store
	codec codec.Codec
	tree  *tree.Tree
}

var _ fs.NodeOnAdder = (*dirNode)(nil)

// OnAdd populates the directory's children: a dirNode for each Tree
// entry, a fileNode for each Blob entry. Subtrees are loaded eagerly at
// OnAdd time (cheap: a tree object is a small list of entries), while
// file content stays unloaded until a fileNode is actually read.
func (n *dirNode) OnAdd(ctx context.Context) {
	for _, e := range n.tree.Entries {
		switch e.Kind {
		case tree.KindTree:
			sub, err := tree.Load(n.store, e.Hash)
			if err != nil {
				continue
			}
			child := n.NewPersistentInode(ctx, &dirNode{store: n.store, codec: n.codec, tree: sub},
				fs.StableAttr{Mode: syscall.S_IFDIR})
			n.AddChild(e.Name, child, true)
		case tree.KindBlob:
			child := n.NewPersistentInode(ctx, &fileNode{store: n.store, codec: n.codec, hash: e.Hash},
				fs.StableAttr{Mode: syscall.S_IFREG})
			n.AddChild(e.Name, child, true)
		}
	}
}

// Getattr reports the fixed attributes original_source's FileAttributes
// synthesis uses for directories (core/vfs/models.rs): size 4096, mode
// 0755, nlink 2, regardless of how many entries the directory actually
// holds.
func (n *dirNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0755
	out.Size = 4096
	out.Nlink = 2
	return 0
}

// fileNode projects a single Blob object as a read-only regular file,
// decompressing (and reassembling chunks, if Chunked) the first time it
// is stat'ed, opened or read, since Getattr reports the decompressed size.
type fileNode struct {
	fs.Inode

	store   *cas.Store
	codec   codec.Codec
	hash    cas.Hash
	content []byte
	loaded  bool
}

var (
	_ fs.NodeOpener    = (*fileNode)(nil)
	_ fs.NodeReader    = (*fileNode)(nil)
	_ fs.NodeGetattrer = (*fileNode)(nil)
)

func (n *fileNode) load() error {
	if n.loaded {
		return nil
	}
	content, err := blob.Load(n.store, n.codec, n.hash)
	if err != nil {
		return err
	}
	n.content = content
	n.loaded = true
	return nil
}

func (n *fileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if err := n.load(); err != nil {
		return nil, 0, syscall.EIO
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *fileNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if err := n.load(); err != nil {
		return nil, syscall.EIO
	}
	end := off + int64(len(dest))
	if end > int64(len(n.content)) {
		end = int64(len(n.content))
	}
	if off > end {
		return fuse.ReadResultData(nil), 0
	}
	return fuse.ReadResultData(n.content[off:end]), 0
}

// Getattr reports mode 0644 and nlink 1, matching original_source's
// FileAttributes synthesis for regular files; size is the length of the
// decompressed (and, for Chunked blobs, reassembled) content.
func (n *fileNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if err := n.load(); err != nil {
		return syscall.EIO
	}
	out.Mode = syscall.S_IFREG | 0644
	out.Size = uint64(len(n.content))
	out.Nlink = 1
	return 0
}

// Mount mounts the tree rooted at rootHash read-only at mountPoint,
// blocking until the filesystem is unmounted (Ctrl-C, or another
// process calling umount). Writable operations are refused by the
// kernel before they ever reach this package, since no Node*Writer
// interfaces are implemented — matching spec.md's "writable virtual
// filesystem" non-goal.
func Mount(store *cas.Store, c codec.Codec, rootHash cas.Hash, mountPoint string) error {
	root, err := tree.Load(store, rootHash)
	if err != nil {
		return fmt.Errorf("load root tree: %w", err)
	}

	server, err := fs.Mount(mountPoint, &dirNode{store: store, codec: c, tree: root}, &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:   "gato",
			Name:     "gato",
			ReadOnly: true,
		},
	})
	if err != nil {
		return fmt.Errorf("mount %s: %w", mountPoint, err)
	}

	server.Wait()
	return nil
}
