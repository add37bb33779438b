package cli

import (
	"fmt"

	"github.com/gato-vcs/gato/internal/colors"
	"github.com/spf13/cobra"
)

var newBranchCmd = &cobra.Command{
	Use:   "new-branch <name>",
	Short: "Create a new branch at the current branch's tip",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewBranch,
}

var changeBranchCmd = &cobra.Command{
	Use:   "change-branch <name>",
	Short: "Switch the active branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runChangeBranch,
}

var deleteBranchCmd = &cobra.Command{
	Use:   "delete-branch <name>",
	Short: "Delete a branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteBranch,
}

func runNewBranch(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	current, err := repo.Store.CurrentBranch()
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	tip, _, err := repo.Store.ReadRef(current)
	if err != nil {
		return fmt.Errorf("read branch %s: %w", current, err)
	}
	if err := repo.Store.NewBranch(args[0], tip); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	fmt.Printf("%s Created branch %s\n", colors.Green("✓"), colors.Bold(args[0]))
	return nil
}

func runChangeBranch(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	if err := repo.Store.ChangeBranch(args[0]); err != nil {
		return fmt.Errorf("change branch: %w", err)
	}
	fmt.Printf("%s Switched to branch %s\n", colors.Green("✓"), colors.Bold(args[0]))
	return nil
}

func runDeleteBranch(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	current, err := repo.Store.CurrentBranch()
	if err != nil {
		return fmt.Errorf("read current branch: %w", err)
	}
	if current == args[0] {
		return fmt.Errorf("cannot delete the currently active branch %q", args[0])
	}
	if err := repo.Store.DeleteBranch(args[0]); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	fmt.Printf("%s Deleted branch %s\n", colors.Green("✓"), colors.Bold(args[0]))
	return nil
}
