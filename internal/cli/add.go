package cli

import (
	"fmt"
	"path/filepath"

	"github.com/gato-vcs/gato/internal/add"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/index"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <path> [paths...]",
	Short: "Stage files into the index",
	Long:  "Walks each path (recursing into directories), dedups and compresses new content into the object store, and records staged entries in the index. Any file's failure aborts the whole add with no partial index save.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	relPaths, err := add.ResolvePaths(repo.WorkDir, args, repo.Config.IgnoreSet())
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if len(relPaths) == 0 {
		fmt.Println(colors.Yellow("nothing to add"))
		return nil
	}

	idx := index.Load(repo.MetaDir)
	if err := add.Run(repo.Store, repo.Codec, idx, repo.WorkDir, relPaths); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if err := idx.Save(repo.MetaDir); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	engineLog.WithField("files", len(relPaths)).Info("staged files into index")
	for _, p := range relPaths {
		fmt.Printf("%s %s\n", colors.AddedPrefix(), filepath.ToSlash(p))
	}
	return nil
}
