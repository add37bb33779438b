// Package index implements Gato's staging manifest (C5): a per-repository
// map from working-directory path to the staged content's IndexEntry, plus
// the multiset of object hashes created while staging. Persisted form
// follows the same tagged uvarint binary encoding the rest of the engine
// uses, generalized from internal/wsindex's FileMetadata shape down to a
// flat sorted map instead of wsindex's own Merkle-tree index (see
// DESIGN.md for why the flat form was chosen here).
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gato-vcs/gato/internal/cas"
)

// Entry describes one staged file.
type Entry struct {
	Path        string
	ContentHash cas.Hash
	Size        int64
	ModTime     int64
	Mode        uint32
}

// Index is the staging manifest: every staged path and the hashes that
// staging has written to the object store so far.
type Index struct {
	Entries      map[string]Entry
	Dependencies []cas.Hash
}

// New returns an empty Index.
func New() *Index {
	return &Index{Entries: make(map[string]Entry)}
}

// AddEntry stages or replaces the entry for a path.
func (idx *Index) AddEntry(path string, e Entry) {
	idx.Entries[path] = e
}

// AddDependency appends a hash created during staging to the dependency
// multiset. Duplicate hashes are expected and kept; the commit command
// copies the list into the new commit's Dependencies unchanged.
func (idx *Index) AddDependency(h cas.Hash) {
	idx.Dependencies = append(idx.Dependencies, h)
}

// SortedPaths returns every staged path in lexicographic order.
func (idx *Index) SortedPaths() []string {
	paths := make([]string, 0, len(idx.Entries))
	for p := range idx.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

const indexFileName = "index"

// indexPath returns the on-disk location of the index file for a
// repository rooted at root (the repository's metadata directory).
func indexPath(root string) string {
	return filepath.Join(root, indexFileName)
}

// Load reads the persisted index for root. A missing or unreadable index
// file is first-add semantics: it returns a fresh, empty Index rather
// than an error.
func Load(root string) *Index {
	data, err := os.ReadFile(indexPath(root))
	if err != nil {
		return New()
	}
	idx, err := decode(data)
	if err != nil {
		return New()
	}
	return idx
}

// Save persists idx to root's index file, atomically.
func (idx *Index) Save(root string) error {
	data := idx.encode()
	path := indexPath(root)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return os.Rename(tmp, path)
}

func (idx *Index) encode() []byte {
	var buf bytes.Buffer
	paths := idx.SortedPaths()
	writeUvarint(&buf, uint64(len(paths)))
	for _, p := range paths {
		e := idx.Entries[p]
		writeString(&buf, p)
		buf.Write(e.ContentHash[:])
		writeUvarint(&buf, uint64(e.Size))
		writeUvarint(&buf, uint64(e.ModTime))
		writeUvarint(&buf, uint64(e.Mode))
	}
	writeUvarint(&buf, uint64(len(idx.Dependencies)))
	for _, h := range idx.Dependencies {
		buf.Write(h[:])
	}
	return buf.Bytes()
}

func decode(data []byte) (*Index, error) {
	idx := New()
	r := bytes.NewReader(data)

	entryCount, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	for i := uint64(0); i < entryCount; i++ {
		path, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read entry path: %w", err)
		}
		var e Entry
		e.Path = path
		if _, err := r.Read(e.ContentHash[:]); err != nil {
			return nil, fmt.Errorf("read entry hash: %w", err)
		}
		size, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read entry size: %w", err)
		}
		e.Size = int64(size)
		mtime, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read entry mtime: %w", err)
		}
		e.ModTime = int64(mtime)
		mode, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read entry mode: %w", err)
		}
		e.Mode = uint32(mode)
		idx.Entries[path] = e
	}

	depCount, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read dependency count: %w", err)
	}
	idx.Dependencies = make([]cas.Hash, 0, depCount)
	for i := uint64(0); i < depCount; i++ {
		var h cas.Hash
		if _, err := r.Read(h[:]); err != nil {
			return nil, fmt.Errorf("read dependency hash: %w", err)
		}
		idx.Dependencies = append(idx.Dependencies, h)
	}

	return idx, nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	buf.Write(tmp[:n])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", err
	}
	return string(b), nil
}
