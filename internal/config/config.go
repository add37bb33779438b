// Package config loads and saves a repository's gato.toml, the
// per-repository configuration file spec.md §6 names (title, id,
// author, email, description, ignore, [compression]). Shape and the
// merge-of-defaults pattern are grounded on the teacher's own
// internal/config (DefaultConfig + LoadConfig), ported from the
// teacher's JSON encoding to TOML via pelletier/go-toml/v2 since gato
// has no separate global config scope to merge against.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file's name at a repository's working
// directory root.
const FileName = "gato.toml"

// CompressionConfig selects the codec the Add Pipeline uses for this
// repository.
type CompressionConfig struct {
	Method string `toml:"method"`
	Level  int    `toml:"level,omitempty"`
}

// Config mirrors spec.md §6's gato.toml schema exactly.
type Config struct {
	Title       string            `toml:"title"`
	ID          string            `toml:"id"`
	Author      string            `toml:"author"`
	Email       string            `toml:"email,omitempty"`
	Description string            `toml:"description"`
	Ignore      []string          `toml:"ignore"`
	Compression CompressionConfig `toml:"compression"`
}

// AlwaysIgnored lists path components never staged regardless of a
// repository's own ignore list.
var AlwaysIgnored = []string{".gato", FileName}

// Default returns a Config with sensible defaults: Zstd compression at
// level 1, no extra ignore patterns beyond the always-ignored set.
func Default(id, title string) *Config {
	return &Config{
		Title:       title,
		ID:          id,
		Description: "",
		Ignore:      nil,
		Compression: CompressionConfig{
			Method: "Zstd",
			Level:  1,
		},
	}
}

// Path returns the gato.toml path for a working directory root.
func Path(workDir string) string {
	return filepath.Join(workDir, FileName)
}

// Load reads and parses gato.toml from a working directory root.
func Load(workDir string) (*Config, error) {
	data, err := os.ReadFile(Path(workDir))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if cfg.Compression.Method == "" {
		cfg.Compression.Method = "Zstd"
	}
	if cfg.Compression.Level == 0 {
		cfg.Compression.Level = 1
	}
	return &cfg, nil
}

// Save writes cfg as gato.toml at workDir's root, atomically.
func Save(workDir string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", FileName, err)
	}
	path := Path(workDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", FileName, err)
	}
	return os.Rename(tmp, path)
}

// IgnoreSet returns cfg's ignore patterns unioned with AlwaysIgnored, as
// a set suitable for internal/add.ResolvePaths.
func (cfg *Config) IgnoreSet() []string {
	set := make([]string, 0, len(cfg.Ignore)+len(AlwaysIgnored))
	set = append(set, AlwaysIgnored...)
	set = append(set, cfg.Ignore...)
	return set
}

// AuthorLine returns the formatted author string "Name <email>", or just
// the name if no email is configured.
func (cfg *Config) AuthorLine() string {
	if cfg.Email == "" {
		return cfg.Author
	}
	return fmt.Sprintf("%s <%s>", cfg.Author, cfg.Email)
}
