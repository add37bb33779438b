// Package gcommit implements Gato's commit graph (C8): a tagged union of
// a single-parent V1 commit and a two-parent Merged commit, each carrying
// an explicit dependency list for fast GC marking, plus parent-chain
// traversal and the first-parent common-base algorithm three-way merge
// needs to find a base tree.
//
// The tagged variants and their fields mirror original_source's Commit
// enum (V1 / MergedCommitV1) field for field; the encode/parse split
// follows internal/commit's own CommitBuilder/CommitReader idiom,
// generalized from that package's HAMT+MMR-backed design down to the
// spec's simple parent-hash-chain model.
package gcommit

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gato-vcs/gato/internal/cas"
)

// Variant tags a commit as V1 (single optional parent) or Merged (two
// parents).
type Variant byte

const (
	VariantV1     Variant = 0x00
	VariantMerged Variant = 0x01
)

// Commit is the decoded form of a stored commit object.
type Commit struct {
	Variant      Variant
	Message      string
	Author       string
	Timestamp    int64
	Email        string // empty means "not set"
	TreeHash     cas.Hash
	ParentHash   cas.Hash // V1 only; zero hash means no parent (root commit)
	HasParent    bool     // V1 only
	ParentHash1  cas.Hash // Merged only
	ParentHash2  cas.Hash // Merged only
	Dependencies []cas.Hash
}

// PrimaryParent returns the commit's primary parent: ParentHash for V1 (if
// present), ParentHash1 for Merged. This mirrors original_source's
// Commit::parent_hash, which always prefers the first parent — the same
// rule common_base relies on.
func (c *Commit) PrimaryParent() (hash cas.Hash, ok bool) {
	switch c.Variant {
	case VariantV1:
		return c.ParentHash, c.HasParent
	case VariantMerged:
		return c.ParentHash1, true
	default:
		return cas.Hash{}, false
	}
}

// Encode produces the canonical bytes a commit hashes to and is stored
// under.
func (c *Commit) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(c.Variant))
	writeString(&buf, c.Message)
	writeString(&buf, c.Author)
	writeUvarint(&buf, uint64(c.Timestamp))
	writeString(&buf, c.Email)
	buf.Write(c.TreeHash[:])

	switch c.Variant {
	case VariantV1:
		if c.HasParent {
			buf.WriteByte(1)
			buf.Write(c.ParentHash[:])
		} else {
			buf.WriteByte(0)
		}
	case VariantMerged:
		buf.Write(c.ParentHash1[:])
		buf.Write(c.ParentHash2[:])
	}

	writeUvarint(&buf, uint64(len(c.Dependencies)))
	for _, d := range c.Dependencies {
		buf.Write(d[:])
	}

	return buf.Bytes()
}

// Hash returns the BLAKE3 hash of c's canonical encoding.
func (c *Commit) Hash() cas.Hash {
	return cas.SumB3(c.Encode())
}

// Decode parses a Commit from its canonical bytes.
func Decode(data []byte) (*Commit, error) {
	r := bytes.NewReader(data)
	variantByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read variant: %w", err)
	}
	c := &Commit{Variant: Variant(variantByte)}

	if c.Message, err = readString(r); err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	if c.Author, err = readString(r); err != nil {
		return nil, fmt.Errorf("read author: %w", err)
	}
	ts, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read timestamp: %w", err)
	}
	c.Timestamp = int64(ts)
	if c.Email, err = readString(r); err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}
	if _, err := r.Read(c.TreeHash[:]); err != nil {
		return nil, fmt.Errorf("read tree hash: %w", err)
	}

	switch c.Variant {
	case VariantV1:
		hasParent, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read has-parent flag: %w", err)
		}
		if hasParent == 1 {
			c.HasParent = true
			if _, err := r.Read(c.ParentHash[:]); err != nil {
				return nil, fmt.Errorf("read parent hash: %w", err)
			}
		}
	case VariantMerged:
		if _, err := r.Read(c.ParentHash1[:]); err != nil {
			return nil, fmt.Errorf("read parent hash 1: %w", err)
		}
		if _, err := r.Read(c.ParentHash2[:]); err != nil {
			return nil, fmt.Errorf("read parent hash 2: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown commit variant %d", c.Variant)
	}

	depCount, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read dependency count: %w", err)
	}
	c.Dependencies = make([]cas.Hash, 0, depCount)
	for i := uint64(0); i < depCount; i++ {
		var h cas.Hash
		if _, err := r.Read(h[:]); err != nil {
			return nil, fmt.Errorf("read dependency %d: %w", i, err)
		}
		c.Dependencies = append(c.Dependencies, h)
	}

	return c, nil
}

// Save stores c in store and returns its hash.
func Save(store *cas.Store, c *Commit) (cas.Hash, error) {
	hash := c.Hash()
	if err := store.Put(hash, c.Encode()); err != nil {
		return cas.Hash{}, fmt.Errorf("store commit: %w", err)
	}
	return hash, nil
}

// Load reads a commit by hash.
func Load(store *cas.Store, hash cas.Hash) (*Commit, error) {
	data, err := store.Get(hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	return Decode(data)
}

// Parents returns the walk of first-parent ancestors of hash, starting
// with hash itself, following PrimaryParent until a commit has no parent.
// This mirrors original_source's Commit::parents_hashes.
func Parents(store *cas.Store, hash cas.Hash) ([]cas.Hash, error) {
	var chain []cas.Hash
	current := hash
	for {
		chain = append(chain, current)
		c, err := Load(store, current)
		if err != nil {
			return nil, err
		}
		parent, ok := c.PrimaryParent()
		if !ok || parent == (cas.Hash{}) {
			break
		}
		current = parent
	}
	return chain, nil
}

// CommonBase returns the first commit hash that appears in both a's and
// b's first-parent chains, walking a's chain and checking membership in
// b's. This is "first common ancestor by first-parent traversal," not a
// DAG LCA — sufficient for linear history, approximate otherwise, per
// the same limitation original_source's Commit::base accepts.
func CommonBase(store *cas.Store, a, b cas.Hash) (cas.Hash, bool, error) {
	aChain, err := Parents(store, a)
	if err != nil {
		return cas.Hash{}, false, fmt.Errorf("walk chain a: %w", err)
	}
	bChain, err := Parents(store, b)
	if err != nil {
		return cas.Hash{}, false, fmt.Errorf("walk chain b: %w", err)
	}

	bSet := make(map[cas.Hash]struct{}, len(bChain))
	for _, h := range bChain {
		bSet[h] = struct{}{}
	}
	for _, h := range aChain {
		if _, ok := bSet[h]; ok {
			return h, true, nil
		}
	}
	return cas.Hash{}, false, nil
}

// GetHashFromIndex walks n steps back from hash along the first-parent
// chain (0 returns hash itself).
func GetHashFromIndex(store *cas.Store, hash cas.Hash, n int) (cas.Hash, error) {
	chain, err := Parents(store, hash)
	if err != nil {
		return cas.Hash{}, err
	}
	if n < 0 || n >= len(chain) {
		return cas.Hash{}, fmt.Errorf("index %d out of range (chain length %d)", n, len(chain))
	}
	return chain[n], nil
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
