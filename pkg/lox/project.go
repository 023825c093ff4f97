package lox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectConfigFile is the name of the per-project configuration file.
const ProjectConfigFile = "lox.toml"

// ProjectConfig represents a lox.toml project configuration file.
type ProjectConfig struct {
	// Prelude lists scripts (relative to lox.toml) that run before the main
	// script in the same global scope.
	Prelude []string `toml:"prelude,omitempty"`

	// Disable names built-ins to leave out of the global scope.
	Disable []string `toml:"disable,omitempty"`

	// dir is the directory containing lox.toml.
	dir string
}

// LoadProjectConfig loads a lox.toml file from the given path.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	var config ProjectConfig
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown key %q", path, undecoded[0].String())
	}
	config.dir = filepath.Dir(path)
	return &config, nil
}

// FindProjectConfig searches for lox.toml starting from dir and walking up to
// parent directories, stopping at a .git boundary. Returns ("", nil, nil) if
// none is found.
func FindProjectConfig(dir string) (string, *ProjectConfig, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			config, err := LoadProjectConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// Builtins returns the default built-ins minus the disabled ones.
func (c *ProjectConfig) Builtins() Builtins {
	if c == nil {
		return DefaultBuiltins()
	}
	return DefaultBuiltins().Without(c.Disable...)
}

// PreludePaths returns the prelude scripts as paths relative to the
// working directory.
func (c *ProjectConfig) PreludePaths() []string {
	if c == nil {
		return nil
	}
	paths := make([]string, len(c.Prelude))
	for i, p := range c.Prelude {
		if filepath.IsAbs(p) {
			paths[i] = p
		} else {
			paths[i] = filepath.Join(c.dir, p)
		}
	}
	return paths
}
