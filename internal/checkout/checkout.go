// Package checkout implements Gato's Checkout/Restore operation (C9):
// materializing a committed Tree into the working directory, writing
// named files and creating directories as needed, non-destructively
// (existing untracked files are left alone; only paths the tree names
// are written).
//
// Grounded on internal/workspace's materializer (directory creation,
// per-entry dispatch by kind) and original_source's Commit::write_tree /
// TreeEntry::write, which recursively restores files for Blob entries
// and recurses into directories for Tree entries.
package checkout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/tree"
)

// Restore writes every entry of the tree at rootHash into destDir,
// recreating the directory structure as needed.
func Restore(store *cas.Store, c codec.Codec, rootHash cas.Hash, destDir string) error {
	t, err := tree.Load(store, rootHash)
	if err != nil {
		return fmt.Errorf("load root tree: %w", err)
	}
	return writeTree(store, c, t, destDir)
}

func writeTree(store *cas.Store, c codec.Codec, t *tree.Tree, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", destDir, err)
	}

	for _, entry := range t.Entries {
		target := filepath.Join(destDir, entry.Name)
		switch entry.Kind {
		case tree.KindBlob:
			content, err := blob.Load(store, c, entry.Hash)
			if err != nil {
				return fmt.Errorf("load blob for %s: %w", target, err)
			}
			if err := os.WriteFile(target, content, 0644); err != nil {
				return fmt.Errorf("write file %s: %w", target, err)
			}

		case tree.KindTree:
			subtree, err := tree.Load(store, entry.Hash)
			if err != nil {
				return fmt.Errorf("load subtree %s: %w", target, err)
			}
			if err := writeTree(store, c, subtree, target); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown tree entry kind %d for %s", entry.Kind, target)
		}
	}

	return nil
}
