// Package cli implements Gato's command surface: one cobra subcommand
// per spec.md §6 CLI contract (init, add, commit, checkout, new-branch,
// change-branch, soft-reset, gc, list-repos, delete-repo, delete-branch,
// status, merge, verify-commit, list-commits, mount), grounded on the
// teacher's cli package — one file per command family, a root command
// in root.go wiring them together the way cli/cli.go's init() does, run
// by cmd/gato through Execute.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/config"
	"github.com/sirupsen/logrus"
)

// metaDirName is the repository metadata directory at a working
// directory's root, Gato's equivalent of the teacher's ".ivaldi".
const metaDirName = ".gato"

// globalStoreRoot returns the machine-wide directory backing both the
// Repos Registry database and the shared object store (spec.md §3: "the
// store is global, one physical location shared by all repositories on
// the machine"). Every repository's .gato metadata directory is
// registered here so a single "gato gc" invocation can enumerate and
// sweep all of them, regardless of which one the command is run from,
// and every repository's Store opens its objects directory underneath
// this same root so identical content staged anywhere is written once.
func globalStoreRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	dir := filepath.Join(home, ".gato")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create global store directory: %w", err)
	}
	return dir, nil
}

// objectsRoot returns the shared object store directory underneath the
// global store root, e.g. ~/.gato/objects.
func objectsRoot(storeRoot string) string {
	return filepath.Join(storeRoot, "objects")
}

// engineLog is the structured, engine-level logger SPEC_FULL.md's
// ambient stack threads through init/add/commit/gc independent of the
// CLI's colorized human-facing summaries.
var engineLog = logrus.New()

// repoContext bundles the handles every command operating inside an
// existing repository needs: its working directory, metadata root, the
// object store, the parsed gato.toml, and the codec it selects.
type repoContext struct {
	WorkDir string
	MetaDir string
	Store   *cas.Store
	Config  *config.Config
	Codec   codec.Codec
}

// findWorkDir walks upward from the current directory looking for
// metaDirName, the way the teacher's commands assume a fixed ".ivaldi"
// relative to the process's cwd but generalized to support invocation
// from a subdirectory.
func findWorkDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, metaDirName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a gato repository (no %s directory found)", metaDirName)
		}
		dir = parent
	}
}

// openRepo locates the enclosing repository, loads gato.toml, and opens
// its object store plus the codec gato.toml selects.
func openRepo() (*repoContext, error) {
	workDir, err := findWorkDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", config.FileName, err)
	}

	method, err := codec.ParseMethod(cfg.Compression.Method)
	if err != nil {
		return nil, err
	}
	c, err := codec.New(method, cfg.Compression.Level)
	if err != nil {
		return nil, err
	}

	metaDir := filepath.Join(workDir, metaDirName)

	storeRoot, err := globalStoreRoot()
	if err != nil {
		return nil, err
	}
	store, err := cas.Open(metaDir, objectsRoot(storeRoot))
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	return &repoContext{
		WorkDir: workDir,
		MetaDir: metaDir,
		Store:   store,
		Config:  cfg,
		Codec:   c,
	}, nil
}
