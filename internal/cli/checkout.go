package cli

import (
	"fmt"

	"github.com/gato-vcs/gato/internal/checkout"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout [branch]",
	Short: "Materialize a commit's tree into the working directory",
	Long:  "Restores every file from the named branch's tip commit (or the current branch if none is given) into the working directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("branch %q has no commits yet", branch)
	}

	c, err := gcommit.Load(repo.Store, tip)
	if err != nil {
		return fmt.Errorf("load commit: %w", err)
	}

	if err := checkout.Restore(repo.Store, repo.Codec, c.TreeHash, repo.WorkDir); err != nil {
		return fmt.Errorf("restore tree: %w", err)
	}

	fmt.Printf("%s Checked out %s at %s\n", colors.Green("✓"), colors.Bold(branch), tip.String()[:12])
	return nil
}
