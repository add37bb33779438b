package cli

import (
	"fmt"
	"strconv"

	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/spf13/cobra"
)

var softResetCmd = &cobra.Command{
	Use:   "soft-reset <n>",
	Short: "Move the current branch's head back n commits",
	Long:  "Moves the current branch's ref to its nth first-parent ancestor, without touching the working directory or index. History rewrites beyond this are out of scope.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSoftReset,
}

func runSoftReset(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return fmt.Errorf("invalid commit count %q: expected a non-negative integer", args[0])
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}

	branch, err := repo.Store.CurrentBranch()
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	tip, ok, err := repo.Store.ReadRef(branch)
	if err != nil {
		return fmt.Errorf("read branch %s: %w", branch, err)
	}
	if !ok {
		return fmt.Errorf("branch %q has no commits yet", branch)
	}

	target, err := gcommit.GetHashFromIndex(repo.Store, tip, n)
	if err != nil {
		return fmt.Errorf("resolve ancestor: %w", err)
	}

	if err := repo.Store.WriteRef(branch, target); err != nil {
		return fmt.Errorf("move branch ref: %w", err)
	}

	fmt.Printf("%s %s now at %s\n", colors.Green("✓"), colors.Bold(branch), target.String()[:12])
	return nil
}
