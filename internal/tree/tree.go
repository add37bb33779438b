// Package tree implements Gato's recursive Tree Builder (C7): given a
// staged Index, it groups entries by path component into a sorted map
// and recurses, producing a deterministic root Tree hash plus every tree
// hash the resulting commit depends on (blob hashes come from the index's
// own dependencies).
//
// This mirrors internal/fsmerkle's buildTreeFromMapRecursive (grouping
// by first path component, recursing per group) and, more directly,
// original_source's Tree::build_recursive_tree — the Rust source this
// spec was distilled from, which groups (path, hash) pairs into a
// BTreeMap<String, Vec<...>> keyed by the first component and recurses
// exactly the same way.
package tree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/gato-vcs/gato/internal/cas"
)

// EntryKind tags a Tree entry as a file or a subdirectory.
type EntryKind byte

const (
	KindBlob EntryKind = 0x00
	KindTree EntryKind = 0x01
)

// Entry is one line of a Tree: either Blob(name, hash) or Tree(name, hash).
type Entry struct {
	Name string
	Kind EntryKind
	Hash cas.Hash
}

// Tree is a directory: a name and its ordered entries.
type Tree struct {
	Name    string
	Entries []Entry
}

// Encode produces the canonical, deterministic bytes a Tree hashes to.
func (t *Tree) Encode() []byte {
	var buf bytes.Buffer
	writeString(&buf, t.Name)
	writeUvarint(&buf, uint64(len(t.Entries)))
	for _, e := range t.Entries {
		buf.WriteByte(byte(e.Kind))
		writeString(&buf, e.Name)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes()
}

// Hash returns the BLAKE3 hash of t's canonical encoding.
func (t *Tree) Hash() cas.Hash {
	return cas.SumB3(t.Encode())
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

// Decode parses a Tree from its canonical bytes.
func Decode(data []byte) (*Tree, error) {
	r := bytes.NewReader(data)
	name, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("read tree name: %w", err)
	}
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	entries := make([]Entry, 0, count)
	for i := uint64(0); i < count; i++ {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read entry kind: %w", err)
		}
		entryName, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read entry name: %w", err)
		}
		var h cas.Hash
		if _, err := r.Read(h[:]); err != nil {
			return nil, fmt.Errorf("read entry hash: %w", err)
		}
		entries = append(entries, Entry{Name: entryName, Kind: EntryKind(kindByte), Hash: h})
	}
	return &Tree{Name: name, Entries: entries}, nil
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

// GetEntry returns the entry named name, if present.
func (t *Tree) GetEntry(name string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// pathHash pairs a full staged path with its staged content hash, the
// input unit the builder groups by first path component.
type pathHash struct {
	path string
	hash cas.Hash
}

// Build constructs the tree for paths (full repo-relative paths mapped
// to their staged content hash), stores every tree object it creates in
// store, and returns the root tree's hash plus the accumulated
// dependency list (every subtree hash created, in creation order,
// followed by the root tree's own hash; blob
// hashes are the caller's own index dependencies and are not duplicated
// here).
func Build(store *cas.Store, paths map[string]cas.Hash) (root cas.Hash, dependencies []cas.Hash, err error) {
	entries := make([]pathHash, 0, len(paths))
	for p, h := range paths {
		entries = append(entries, pathHash{path: p, hash: h})
	}

	t, deps, err := buildRecursive("root", entries, store)
	if err != nil {
		return cas.Hash{}, nil, err
	}

	rootHash := t.Hash()
	if err := store.Put(rootHash, t.Encode()); err != nil {
		return cas.Hash{}, nil, fmt.Errorf("store root tree: %w", err)
	}
	deps = append(deps, rootHash)

	return rootHash, deps, nil
}

// buildRecursive groups entries by their first remaining path component,
// builds a Blob entry for any entry with no remaining components, and
// recurses for each group of remaining entries, accumulating every
// subtree hash it creates into dependencies.
func buildRecursive(name string, entries []pathHash, store *cas.Store) (*Tree, []cas.Hash, error) {
	groups := make(map[string][]pathHash)
	var direct []Entry
	var dependencies []cas.Hash

	for _, e := range entries {
		parts := strings.SplitN(e.path, "/", 2)
		component := parts[0]
		if len(parts) == 1 {
			direct = append(direct, Entry{Name: component, Kind: KindBlob, Hash: e.hash})
			continue
		}
		groups[component] = append(groups[component], pathHash{path: parts[1], hash: e.hash})
	}

	groupNames := make([]string, 0, len(groups))
	for g := range groups {
		groupNames = append(groupNames, g)
	}
	sort.Strings(groupNames)

	t := &Tree{Name: name}
	entryByName := make(map[string]Entry, len(direct)+len(groupNames))
	for _, e := range direct {
		entryByName[e.Name] = e
	}

	for _, g := range groupNames {
		subtree, subDeps, err := buildRecursive(g, groups[g], store)
		if err != nil {
			return nil, nil, err
		}
		dependencies = append(dependencies, subDeps...)

		subHash := subtree.Hash()
		encoded := subtree.Encode()
		if err := store.Put(subHash, encoded); err != nil {
			return nil, nil, fmt.Errorf("store subtree %s: %w", g, err)
		}
		dependencies = append(dependencies, subHash)
		entryByName[g] = Entry{Name: g, Kind: KindTree, Hash: subHash}
	}

	allNames := make([]string, 0, len(entryByName))
	for n := range entryByName {
		allNames = append(allNames, n)
	}
	sort.Strings(allNames)
	for _, n := range allNames {
		t.Entries = append(t.Entries, entryByName[n])
	}

	return t, dependencies, nil
}

// Load reads a Tree by its hash.
func Load(store *cas.Store, hash cas.Hash) (*Tree, error) {
	data, err := store.Get(hash)
	if err != nil {
		return nil, fmt.Errorf("load tree %s: %w", hash, err)
	}
	return Decode(data)
}
