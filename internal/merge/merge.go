package merge

import (
	"fmt"
	"sort"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/tree"
)

// ConflictError reports a structural merge conflict: an entry changed
// kind (file renamed to directory or vice versa) on one side, or was
// deleted on one side and changed on the other, which no automatic merge
// rule can resolve.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s renamed to file or directory", e.Name)
}

// Result carries the merged tree's hash plus the paths (relative to the
// merge root) where a textual conflict was embedded. The merge still
// succeeds and produces a committable tree even when conflicts are
// present — matching original_source's Tree::merge, which stages
// conflict-marked content rather than failing the merge outright.
type Result struct {
	TreeHash        cas.Hash
	ConflictedPaths []string
}

// MergeTrees performs Gato's three-way tree merge: base is the common
// ancestor tree (may be the zero hash, treated as an empty tree),
// current is "ours", target is "theirs". For every entry name in the
// union of all three trees, it applies the decision table:
//
//	c == t        -> keep current, no conflict
//	c == b        -> take target
//	t == b        -> take current
//	otherwise     -> both sides changed: recurse (Tree/Tree) or merge
//	                 text (Blob/Blob); any other kind combination is a
//	                 structural ConflictError
func MergeTrees(store *cas.Store, c codec.Codec, base, current, target cas.Hash) (*Result, error) {
	baseTree, err := loadOrEmpty(store, base, "root")
	if err != nil {
		return nil, fmt.Errorf("load base tree: %w", err)
	}
	currentTree, err := tree.Load(store, current)
	if err != nil {
		return nil, fmt.Errorf("load current tree: %w", err)
	}
	targetTree, err := tree.Load(store, target)
	if err != nil {
		return nil, fmt.Errorf("load target tree: %w", err)
	}

	merged, conflicts, err := mergeTreeRec(store, c, baseTree, currentTree, targetTree, "")
	if err != nil {
		return nil, err
	}

	hash := merged.Hash()
	if err := store.Put(hash, merged.Encode()); err != nil {
		return nil, fmt.Errorf("store merged tree: %w", err)
	}

	return &Result{TreeHash: hash, ConflictedPaths: conflicts}, nil
}

func loadOrEmpty(store *cas.Store, hash cas.Hash, name string) (*tree.Tree, error) {
	if hash == (cas.Hash{}) {
		return &tree.Tree{Name: name}, nil
	}
	return tree.Load(store, hash)
}

func mergeTreeRec(store *cas.Store, c codec.Codec, base, current, target *tree.Tree, prefix string) (*tree.Tree, []string, error) {
	names := unionNames(base, current, target)
	result := &tree.Tree{Name: current.Name}
	var conflicts []string

	for _, name := range names {
		bEntry, bHas := base.GetEntry(name)
		cEntry, cHas := current.GetEntry(name)
		tEntry, tHas := target.GetEntry(name)

		bHash, cHash, tHash := entryHash(bEntry, bHas), entryHash(cEntry, cHas), entryHash(tEntry, tHas)
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}

		switch {
		case cHash == tHash:
			if cHas {
				result.Entries = append(result.Entries, cEntry)
			}
			continue

		case cHash == bHash:
			if tHas {
				result.Entries = append(result.Entries, tEntry)
			}
			continue

		case tHash == bHash:
			if cHas {
				result.Entries = append(result.Entries, cEntry)
			}
			continue
		}

		// Both sides changed this entry relative to base.
		switch {
		case cHas && tHas && cEntry.Kind == tree.KindTree && tEntry.Kind == tree.KindTree:
			var subBase *tree.Tree
			if bHas && bEntry.Kind == tree.KindTree {
				var err error
				subBase, err = tree.Load(store, bEntry.Hash)
				if err != nil {
					return nil, nil, fmt.Errorf("load base subtree %s: %w", path, err)
				}
			} else {
				subBase = &tree.Tree{Name: name}
			}
			subCurrent, err := tree.Load(store, cEntry.Hash)
			if err != nil {
				return nil, nil, fmt.Errorf("load current subtree %s: %w", path, err)
			}
			subTarget, err := tree.Load(store, tEntry.Hash)
			if err != nil {
				return nil, nil, fmt.Errorf("load target subtree %s: %w", path, err)
			}

			subMerged, subConflicts, err := mergeTreeRec(store, c, subBase, subCurrent, subTarget, path)
			if err != nil {
				return nil, nil, err
			}
			conflicts = append(conflicts, subConflicts...)

			subHash := subMerged.Hash()
			if err := store.Put(subHash, subMerged.Encode()); err != nil {
				return nil, nil, fmt.Errorf("store merged subtree %s: %w", path, err)
			}
			result.Entries = append(result.Entries, tree.Entry{Name: name, Kind: tree.KindTree, Hash: subHash})

		case cHas && tHas && cEntry.Kind == tree.KindBlob && tEntry.Kind == tree.KindBlob:
			var baseContent string
			if bHas && bEntry.Kind == tree.KindBlob {
				raw, err := blob.Load(store, c, bEntry.Hash)
				if err != nil {
					return nil, nil, fmt.Errorf("load base blob %s: %w", path, err)
				}
				baseContent = string(raw)
			}
			currentRaw, err := blob.Load(store, c, cEntry.Hash)
			if err != nil {
				return nil, nil, fmt.Errorf("load current blob %s: %w", path, err)
			}
			targetRaw, err := blob.Load(store, c, tEntry.Hash)
			if err != nil {
				return nil, nil, fmt.Errorf("load target blob %s: %w", path, err)
			}

			mergedText, hadConflict := MergeText(baseContent, string(currentRaw), string(targetRaw))
			if hadConflict {
				conflicts = append(conflicts, path)
			}

			mergedHash, err := blob.Store(store, c, []byte(mergedText))
			if err != nil {
				return nil, nil, fmt.Errorf("store merged blob %s: %w", path, err)
			}
			result.Entries = append(result.Entries, tree.Entry{Name: name, Kind: tree.KindBlob, Hash: mergedHash})

		default:
			return nil, nil, &ConflictError{Name: path}
		}
	}

	return result, conflicts, nil
}

func entryHash(e tree.Entry, has bool) cas.Hash {
	if !has {
		return cas.Hash{}
	}
	return e.Hash
}

func unionNames(trees ...*tree.Tree) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range trees {
		for _, e := range t.Entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}
