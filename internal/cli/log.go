package cli

import (
	"fmt"
	"time"

	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/spf13/cobra"
)

var listCommitsCmd = &cobra.Command{
	Use:   "list-commits [branch]",
	Short: "List a branch's commits along its first-parent chain",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListCommits,
}

func runListCommits(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	branch := ""
	if len(args) == 1 {
		branch = args[0]
	} else {
		branch, err = repo.Store.CurrentBranch()
		if err != nil {
			return fmt.Errorf("read current branch: %w", err)
		}
	}

	tip, ok, err := repo.Store.ReadRef(branch)
	if err != nil {
		return fmt.Errorf("read branch %s: %w", branch, err)
	}
	if !ok {
		fmt.Println(colors.Dim("no commits yet"))
		return nil
	}

	chain, err := gcommit.Parents(repo.Store, tip)
	if err != nil {
		return fmt.Errorf("walk commit chain: %w", err)
	}

	for _, hash := range chain {
		c, err := gcommit.Load(repo.Store, hash)
		if err != nil {
			return fmt.Errorf("load commit %s: %w", hash, err)
		}
		when := time.Unix(c.Timestamp, 0).Format(time.RFC3339)
		fmt.Printf("%s  %s  %s\n", colors.Cyan(hash.String()[:12]), when, c.Message)
		fmt.Printf("    %s\n", colors.Dim(c.Author))
	}
	return nil
}
