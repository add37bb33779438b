package gcommit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gato-vcs/gato/internal/cas"
)

func newTestStore(t *testing.T) *cas.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "gato-gcommit-test")
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

func TestEncodeDecodeV1RoundTrip(t *testing.T) {
	c := &Commit{
		Variant:      VariantV1,
		Message:      "initial commit",
		Author:       "ada",
		Timestamp:    1700000000,
		Email:        "ada@example.com",
		TreeHash:     cas.SumB3([]byte("tree")),
		Dependencies: []cas.Hash{cas.SumB3([]byte("dep1")), cas.SumB3([]byte("dep2"))},
	}

	decoded, err := Decode(c.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Message != c.Message || decoded.Author != c.Author || decoded.Email != c.Email {
		t.Fatalf("round trip field mismatch: %+v", decoded)
	}
	if decoded.HasParent {
		t.Fatalf("expected no parent for root commit")
	}
	if len(decoded.Dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(decoded.Dependencies))
	}
}

func TestCommitChainAndCommonBase(t *testing.T) {
	store := newTestStore(t)

	root := &Commit{Variant: VariantV1, Message: "root", TreeHash: cas.SumB3([]byte("t0"))}
	rootHash, err := Save(store, root)
	if err != nil {
		t.Fatalf("Save root: %v", err)
	}

	branchA := &Commit{Variant: VariantV1, Message: "a", TreeHash: cas.SumB3([]byte("t1")), HasParent: true, ParentHash: rootHash}
	aHash, err := Save(store, branchA)
	if err != nil {
		t.Fatalf("Save a: %v", err)
	}

	branchB := &Commit{Variant: VariantV1, Message: "b", TreeHash: cas.SumB3([]byte("t2")), HasParent: true, ParentHash: rootHash}
	bHash, err := Save(store, branchB)
	if err != nil {
		t.Fatalf("Save b: %v", err)
	}

	base, ok, err := CommonBase(store, aHash, bHash)
	if err != nil {
		t.Fatalf("CommonBase: %v", err)
	}
	if !ok {
		t.Fatalf("expected a common base")
	}
	if base != rootHash {
		t.Fatalf("expected common base to be root commit")
	}

	chain, err := Parents(store, aHash)
	if err != nil {
		t.Fatalf("Parents: %v", err)
	}
	if len(chain) != 2 || chain[0] != aHash || chain[1] != rootHash {
		t.Fatalf("unexpected parent chain: %v", chain)
	}
}

func TestMergedCommitPrimaryParent(t *testing.T) {
	c := &Commit{
		Variant:     VariantMerged,
		Message:     "merge",
		TreeHash:    cas.SumB3([]byte("tm")),
		ParentHash1: cas.SumB3([]byte("p1")),
		ParentHash2: cas.SumB3([]byte("p2")),
	}
	parent, ok := c.PrimaryParent()
	if !ok || parent != c.ParentHash1 {
		t.Fatalf("expected primary parent to be ParentHash1")
	}

	decoded, err := Decode(c.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.ParentHash1 != c.ParentHash1 || decoded.ParentHash2 != c.ParentHash2 {
		t.Fatalf("merged parent hashes did not round trip")
	}
}
