package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/colors"
	"github.com/gato-vcs/gato/internal/config"
	"github.com/gato-vcs/gato/internal/registry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new gato repository",
	Long:  "Creates a .gato metadata directory, a gato.toml configuration file, and registers the repository for garbage collection, the way the teacher's forge command bootstraps a fresh .ivaldi directory.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("init takes no arguments, got %d", len(args))
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	metaDir := filepath.Join(workDir, metaDirName)
	if _, err := os.Stat(metaDir); err == nil {
		return fmt.Errorf("%s already exists", metaDirName)
	}

	storeRoot, err := globalStoreRoot()
	if err != nil {
		return fmt.Errorf("locate global store root: %w", err)
	}

	store, err := cas.Setup(metaDir, objectsRoot(storeRoot))
	if err != nil {
		return fmt.Errorf("initialize object store: %w", err)
	}
	_ = store

	cfg := config.Default(uuid.NewString(), filepath.Base(workDir))
	if err := config.Save(workDir, cfg); err != nil {
		return fmt.Errorf("write %s: %w", config.FileName, err)
	}

	if reg, err := registry.Open(storeRoot); err == nil {
		defer reg.Close()
		if err := reg.Register(metaDir); err != nil {
			engineLog.WithError(err).Warn("failed to register repository for garbage collection")
		}
	} else {
		engineLog.WithError(err).Warn("failed to open repos registry")
	}

	fmt.Printf("%s Initialized gato repository %s\n", colors.Green("✓"), colors.Bold(cfg.ID))
	return nil
}
