package cli

import (
	"fmt"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/gc"
	"github.com/gato-vcs/gato/internal/registry"
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Sweep unreachable objects across every registered repository",
	Long:  "Unions the commits and dependencies reachable from every branch in every repository the Repos Registry knows about, then removes any object not in that live set.",
	RunE:  runGC,
}

func runGC(cmd *cobra.Command, args []string) error {
	storeRoot, err := globalStoreRoot()
	if err != nil {
		return err
	}
	reg, err := registry.Open(storeRoot)
	if err != nil {
		return fmt.Errorf("open repos registry: %w", err)
	}
	defer reg.Close()

	objRoot := objectsRoot(storeRoot)
	result, err := gc.Sweep(reg, func(root string) (*cas.Store, error) {
		return cas.Open(root, objRoot)
	})
	if err != nil {
		return fmt.Errorf("gc: %w", err)
	}

	engineLog.WithFields(map[string]interface{}{
		"live":  result.LiveObjects,
		"swept": result.Swept,
	}).Info("gc swept objects")
	fmt.Printf("%s %d live objects, %d swept\n", colors.Green("✓"), result.LiveObjects, result.Swept)
	for _, e := range result.Errors {
		fmt.Printf("%s %v\n", colors.WarningText("warning"), e)
	}
	return nil
}
