package cli

import (
	"fmt"

	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gcommit"
	"github.com/gato-vcs/gato/internal/vfs"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mount-point> [branch]",
	Short: "Mount a branch's tip read-only at a filesystem path",
	Long:  "Mounts the working tree of a branch's tip commit as a read-only FUSE filesystem, materializing files on demand rather than checking them out. Blocks until unmounted.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMount,
}

func runMount(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	branch := ""
	if len(args) == 2 {
		branch = args[1]
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

	fmt.Printf("%s Mounting %s at %s (read-only, Ctrl-C to unmount)\n", colors.Cyan(">>"), colors.Bold(branch), args[0])
	return vfs.Mount(repo.Store, repo.Codec, c.TreeHash, args[0])
}
