package cli

import (
	"fmt"

	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/registry"
	"github.com/spf13/cobra"
)

var listReposCmd = &cobra.Command{
	Use:   "list-repos",
	Short: "List every repository registered for garbage collection",
	RunE:  runListRepos,
}

var deleteRepoCmd = &cobra.Command{
	Use:   "delete-repo <metadata-dir>",
	Short: "Unregister a repository from the Repos Registry",
	Long:  "Removes a repository's metadata directory from the registry so gc no longer marks it live. Does not delete the repository's own files.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteRepo,
}

func runListRepos(cmd *cobra.Command, args []string) error {
	storeRoot, err := globalStoreRoot()
	if err != nil {
		return err
	}
	reg, err := registry.Open(storeRoot)
	if err != nil {
		return fmt.Errorf("open repos registry: %w", err)
	}
	defer reg.Close()

	roots, err := reg.List()
	if err != nil {
		return fmt.Errorf("list repos: %w", err)
	}
	if len(roots) == 0 {
		fmt.Println(colors.Dim("no registered repositories"))
		return nil
	}
	for _, r := range roots {
		fmt.Println(r)
	}
	return nil
}

func runDeleteRepo(cmd *cobra.Command, args []string) error {
	storeRoot, err := globalStoreRoot()
	if err != nil {
		return err
	}
	reg, err := registry.Open(storeRoot)
	if err != nil {
		return fmt.Errorf("open repos registry: %w", err)
	}
	defer reg.Close()

	if err := reg.Unregister(args[0]); err != nil {
		return fmt.Errorf("unregister %s: %w", args[0], err)
	}
	fmt.Printf("%s Unregistered %s\n", colors.Green("✓"), args[0])
	return nil
}
