package cli

import (
	"fmt"
	"time"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/gato-vcs/gato/internal/merge"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source-branch>",
	Short: "Three-way merge a branch into the current branch",
	Long:  "Finds the common base between the current branch and source, structurally merges their trees (recursing into directories, textually merging conflicting files with embedded markers), and records a Merged commit with two parents.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	source := args[0]

	repo, err := openRepo()
	if err != nil {
		return err
	}

	current, err := repo.Store.CurrentBranch()
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	if source == current {
		return fmt.Errorf("cannot merge branch %q into itself", source)
	}

	currentTip, ok, err := repo.Store.ReadRef(current)
	if err != nil {
		return fmt.Errorf("read branch %s: %w", current, err)
	}
	if !ok {
		return fmt.Errorf("branch %q has no commits yet", current)
	}
	sourceTip, ok, err := repo.Store.ReadRef(source)
	if err != nil {
		return fmt.Errorf("read branch %s: %w", source, err)
	}
	if !ok {
		return fmt.Errorf("branch %q has no commits yet", source)
	}

	base, found, err := gcommit.CommonBase(repo.Store, currentTip, sourceTip)
	if err != nil {
		return fmt.Errorf("find common base: %w", err)
	}
	if !found {
		return fmt.Errorf("branches %q and %q share no common base", current, source)
	}
	baseCommit, err := gcommit.Load(repo.Store, base)
	if err != nil {
		return fmt.Errorf("load base commit: %w", err)
	}
	baseHash := baseCommit.TreeHash

	currentCommit, err := gcommit.Load(repo.Store, currentTip)
	if err != nil {
		return fmt.Errorf("load current commit: %w", err)
	}
	sourceCommit, err := gcommit.Load(repo.Store, sourceTip)
	if err != nil {
		return fmt.Errorf("load source commit: %w", err)
	}

	result, err := merge.MergeTrees(repo.Store, repo.Codec, baseHash, currentCommit.TreeHash, sourceCommit.TreeHash)
	if err != nil {
		return fmt.Errorf("merge trees: %w", err)
	}

	c := &gcommit.Commit{
		Variant:      gcommit.VariantMerged,
		Message:      fmt.Sprintf("Merge branch %q into %q", source, current),
		Author:       repo.Config.AuthorLine(),
		Timestamp:    time.Now().Unix(),
		TreeHash:     result.TreeHash,
		ParentHash1:  currentTip,
		ParentHash2:  sourceTip,
		Dependencies: []cas.Hash{result.TreeHash},
	}
	commitHash, err := gcommit.Save(repo.Store, c)
	if err != nil {
		return fmt.Errorf("save merge commit: %w", err)
	}
	if err := repo.Store.WriteRef(current, commitHash); err != nil {
		return fmt.Errorf("advance branch %s: %w", current, err)
	}

	if len(result.ConflictedPaths) > 0 {
		fmt.Printf("%s Merged with %d conflicted file(s):\n", colors.Yellow("!"), len(result.ConflictedPaths))
		for _, p := range result.ConflictedPaths {
			fmt.Printf("  %s %s\n", colors.DeletedPrefix(), p)
		}
	} else {
		fmt.Printf("%s Merged %s into %s cleanly\n", colors.Green("✓"), colors.Bold(source), colors.Bold(current))
	}
	return nil
}
