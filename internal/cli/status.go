package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gato-vcs/gato/internal/add"
	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/gato-vcs/gato/internal/index"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current branch and staged entries",
	RunE:  runStatus,
}

// stagedState classifies a staged path against the working tree without
// mutating any state, by recomputing its dry hash (see blob.DryHash) and
// comparing it against the index record and the tip commit's committed
// dependencies, the way original_source's FileStatus::from does.
type stagedState int

const (
	// stateToBeCommitted: working content matches the staged hash.
	stateToBeCommitted stagedState = iota
	// stateModifiedSinceStaged: working content changed again after staging.
	stateModifiedSinceStaged
	// stateUnmodified: working content already matches a committed blob.
	stateUnmodified
)

func dryFileStatus(repo *repoContext, e index.Entry, committedDeps map[cas.Hash]bool) (stagedState, error) {
	content, err := os.ReadFile(filepath.Join(repo.WorkDir, e.Path))
	if err != nil {
		return stateModifiedSinceStaged, fmt.Errorf("read %s: %w", e.Path, err)
	}
	hashNow, err := blob.DryHash(repo.Codec, content)
	if err != nil {
		return stateModifiedSinceStaged, fmt.Errorf("hash %s: %w", e.Path, err)
	}
	if committedDeps[hashNow] {
		return stateUnmodified, nil
	}
	if hashNow == e.ContentHash {
		return stateToBeCommitted, nil
	}
	return stateModifiedSinceStaged, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	branch, err := repo.Store.CurrentBranch()
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	tip, hasCommits, err := repo.Store.ReadRef(branch)
	if err != nil {
		return fmt.Errorf("read branch %s: %w", branch, err)
	}

	fmt.Printf("On branch %s\n", colors.Bold(branch))
	committedDeps := map[cas.Hash]bool{}
	if hasCommits {
		fmt.Printf("Tip: %s\n", tip.String()[:12])
		tipCommit, err := gcommit.Load(repo.Store, tip)
		if err != nil {
			return fmt.Errorf("load tip commit: %w", err)
		}
		for _, h := range tipCommit.Dependencies {
			committedDeps[h] = true
		}
	} else {
		fmt.Println(colors.Dim("No commits yet"))
	}

	idx := index.Load(repo.MetaDir)
	if len(idx.Entries) == 0 {
		fmt.Println(colors.Dim("Nothing staged"))
	} else {
		fmt.Println("Staged:")
		for _, p := range idx.SortedPaths() {
			state, err := dryFileStatus(repo, idx.Entries[p], committedDeps)
			if err != nil {
				fmt.Printf("  %s %s (%v)\n", colors.WarningText("!"), p, err)
				continue
			}
			switch state {
			case stateModifiedSinceStaged:
				fmt.Printf("  %s %s (modified since staged)\n", colors.WarningText("~"), p)
			case stateUnmodified:
				// Already matches a blob the tip commit depends on;
				// nothing meaningful would change by committing it.
			default:
				fmt.Printf("  %s %s\n", colors.StagedPrefix(), p)
			}
		}
	}

	untracked, err := add.ResolvePaths(repo.WorkDir, []string{"."}, repo.Config.IgnoreSet())
	if err != nil {
		return fmt.Errorf("scan working directory: %w", err)
	}
	var unstaged []string
	for _, p := range untracked {
		if _, staged := idx.Entries[p]; !staged {
			unstaged = append(unstaged, p)
		}
	}
	if len(unstaged) > 0 {
		fmt.Println("Untracked:")
		for _, p := range unstaged {
			fmt.Printf("  %s %s\n", colors.UntrackedPrefix(), p)
		}
	}

	return nil
}
