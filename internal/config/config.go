package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is discovered by walking up from the working directory.
const ConfigFileName = "postdeploy.toml"

// EnvironmentConfig describes a single named environment from postdeploy.toml.
type EnvironmentConfig struct {
	URL string `toml:"url"`
}

type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	ScriptsDir         string                       `toml:"scripts_dir"`
	LedgerTable        string                       `toml:"ledger_table"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
}

// ConfigDir returns the directory containing the discovered config file, or
// "" when no file was found.
func (c *Config) ConfigDir() string {
	if c == nil || c.ConfigFilePath == "" {
		return ""
	}
	return filepath.Dir(c.ConfigFilePath)
}

// ScriptsPath returns the scripts directory resolved relative to the config
// file location, defaulting to "scripts".
func (c *Config) ScriptsPath() string {
	dir := "scripts"
	if c != nil && c.ScriptsDir != "" {
		dir = c.ScriptsDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	if base := c.ConfigDir(); base != "" {
		return filepath.Join(base, dir)
	}
	return dir
}

// LoadConfig walks up from the working directory looking for postdeploy.toml,
// stopping at a project boundary. A missing file is not an error; callers get
// an empty config and rely on environment variables.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(startDir)
}

// LoadConfigFrom is LoadConfig starting at an explicit directory.
func LoadConfigFrom(startDir string) (*Config, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, err
			}

			var config Config
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, err
			}

			config.ConfigFilePath = configPath
			return &config, nil
		}

		// Check if we've reached a project boundary
		if isProjectRoot(dir) {
			break
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}
