package cli

import (
	"fmt"
	"time"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/gato-vcs/gato/internal/index"
	"github.com/gato-vcs/gato/internal/tree"
	"github.com/spf13/cobra"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record a new commit from the current index",
	Long:  "Builds a root tree from the staged index entries, creates a V1 commit with the current branch tip as parent, and advances the branch ref to the new commit.",
	RunE:  runCommit,
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message (required)")
}

func runCommit(cmd *cobra.Command, args []string) error {
	if commitMessage == "" {
		return fmt.Errorf("commit message required: use -m")
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}

	idx := index.Load(repo.MetaDir)
	if len(idx.Entries) == 0 {
		return fmt.Errorf("nothing staged; run gato add first")
	}

	paths := make(map[string]cas.Hash, len(idx.Entries))
	for p, e := range idx.Entries {
		paths[p] = e.ContentHash
	}

	rootHash, deps, err := tree.Build(repo.Store, paths)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	deps = append(deps, idx.Dependencies...)

	branch, err := repo.Store.CurrentBranch()
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	parentHash, hasParent, err := repo.Store.ReadRef(branch)
	if err != nil {
		return fmt.Errorf("read branch ref: %w", err)
	}

	c := &gcommit.Commit{
		Variant:      gcommit.VariantV1,
		Message:      commitMessage,
		Author:       repo.Config.AuthorLine(),
		Timestamp:    time.Now().Unix(),
		TreeHash:     rootHash,
		HasParent:    hasParent,
		ParentHash:   parentHash,
		Dependencies: deps,
	}

	commitHash, err := gcommit.Save(repo.Store, c)
	if err != nil {
		return fmt.Errorf("save commit: %w", err)
	}
	if err := repo.Store.WriteRef(branch, commitHash); err != nil {
		return fmt.Errorf("advance branch %s: %w", branch, err)
	}

	idx.Entries = map[string]index.Entry{}
	idx.Dependencies = nil
	if err := idx.Save(repo.MetaDir); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	engineLog.WithFields(map[string]interface{}{
		"commit": commitHash.String(),
		"branch": branch,
	}).Info("created commit")
	fmt.Printf("%s %s %s\n", colors.Green("✓"), colors.Bold(commitHash.String()[:12]), commitMessage)
	return nil
}
