package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultEnvironmentName = "dev"

// ResolvedEnvironment is a named environment with a concrete connection string.
type ResolvedEnvironment struct {
	Name        string
	DatabaseURL string
	DotenvPath  string
	FromConfig  bool
	FromDotenv  bool
}

// ResolveEnvironment resolves a named environment into a concrete connection
// string. The config file provides the base value; a .env.<name> file next to
// the config file overrides it. The name falls back to the config's
// default_environment, then to "dev".
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if config != nil && config.Environments != nil {
		if cfg, ok := config.Environments[envName]; ok {
			envConfig = cfg
			envExists = true
		}
	}

	resolved := &ResolvedEnvironment{
		Name:        envName,
		DatabaseURL: envConfig.URL,
		FromConfig:  envExists,
	}

	dotenvFileName := ".env." + envName
	baseDir := ""
	if config != nil {
		baseDir = config.ConfigDir()
	}
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	if baseDir != "" {
		resolved.DotenvPath = filepath.Join(baseDir, dotenvFileName)
	} else {
		resolved.DotenvPath = dotenvFileName
	}

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", resolved.DotenvPath, err)
		}
		resolved.FromDotenv = true

		// Check for generic DATABASE_URL first
		if value := values["DATABASE_URL"]; value != "" {
			resolved.DatabaseURL = value
		}

		// Then database-specific variables, used only when DATABASE_URL
		// wasn't set.
		if resolved.DatabaseURL == "" {
			if value := values["POSTGRES_URL"]; value != "" {
				resolved.DatabaseURL = value
			}
		}
		if resolved.DatabaseURL == "" {
			if value := values["SQLITE_DB_PATH"]; value != "" {
				resolved.DatabaseURL = value
			}
		}
		if resolved.DatabaseURL == "" {
			if value := values["LIBSQL_URL"]; value != "" {
				// Construct libSQL connection string with auth token if available
				if authToken := values["LIBSQL_AUTH_TOKEN"]; authToken != "" {
					resolved.DatabaseURL = fmt.Sprintf("%s?authToken=%s", value, authToken)
				} else {
					resolved.DatabaseURL = value
				}
			}
		}
	} else if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to access %s: %w", resolved.DotenvPath, err)
	}

	if resolved.DatabaseURL == "" {
		return nil, fmt.Errorf("environment %q has no connection string: define it in %s or in %s", envName, ConfigFileName, dotenvFileName)
	}

	return resolved, nil
}
