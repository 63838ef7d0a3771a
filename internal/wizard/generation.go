package wizard

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/inside-track/post-deploy-scripts/internal/config"
)

// GenerateFiles creates postdeploy.toml, the per-environment dotenv files,
// and the scripts directory.
func GenerateFiles(environments []EnvironmentInput, scriptsDir string) (*InitResult, error) {
	result := &InitResult{
		EnvFiles: []string{},
	}

	if scriptsDir == "" {
		scriptsDir = "scripts"
	}
	if _, err := os.Stat(scriptsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create scripts directory: %w", err)
		}
		result.ScriptsDirCreated = true
	}
	result.ScriptsDir = scriptsDir

	configPath := config.ConfigFileName
	fileExists := false
	if _, err := os.Stat(configPath); err == nil {
		fileExists = true
	}

	if err := generateConfigTOML(configPath, scriptsDir, environments); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", configPath, err)
	}
	result.ConfigPath = configPath
	if fileExists {
		result.ConfigUpdated = true
	} else {
		result.ConfigCreated = true
	}

	for _, env := range environments {
		envFilePath := fmt.Sprintf(".env.%s", env.Name)
		if err := generateEnvFile(envFilePath, env); err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", envFilePath, err)
		}
		result.EnvFiles = append(result.EnvFiles, envFilePath)
	}

	if err := updateGitignore(); err != nil {
		return nil, fmt.Errorf("failed to update .gitignore: %w", err)
	}
	result.GitignoreUpdated = true

	return result, nil
}

func generateConfigTOML(path, scriptsDir string, newEnvironments []EnvironmentInput) error {
	// Preserve environments from an existing config; new ones with the same
	// name win.
	envNames := []string{}
	seen := map[string]bool{}
	var defaultEnv string

	if data, err := os.ReadFile(path); err == nil {
		var existing struct {
			DefaultEnvironment string                               `toml:"default_environment"`
			Environments       map[string]config.EnvironmentConfig `toml:"environments"`
		}
		if err := toml.Unmarshal(data, &existing); err == nil {
			defaultEnv = existing.DefaultEnvironment
			for name := range existing.Environments {
				if !seen[name] {
					envNames = append(envNames, name)
					seen[name] = true
				}
			}
		}
	}

	for _, env := range newEnvironments {
		if !seen[env.Name] {
			envNames = append(envNames, env.Name)
			seen[env.Name] = true
		}
	}

	if defaultEnv == "" && len(newEnvironments) > 0 {
		defaultEnv = newEnvironments[0].Name
	}

	var b strings.Builder

	b.WriteString("# Generated by: postdeploy init\n")
	b.WriteString("#\n")
	b.WriteString("# Connection strings live in .env.<environment> files, never here.\n\n")

	if defaultEnv != "" {
		b.WriteString(fmt.Sprintf("default_environment = %q\n", defaultEnv))
	}
	b.WriteString(fmt.Sprintf("scripts_dir = %q\n\n", scriptsDir))

	for _, name := range envNames {
		b.WriteString(fmt.Sprintf("[environments.%s]\n", name))
		b.WriteString(fmt.Sprintf("# Connection: .env.%s\n", name))
		b.WriteString("\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func generateEnvFile(path string, env EnvironmentInput) error {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Environment: %s\n", env.Name))
	b.WriteString("# Generated by: postdeploy init\n")
	b.WriteString("#\n")
	b.WriteString("# Do not commit this file if it contains secrets!\n")
	b.WriteString("#\n")

	for _, line := range EnvVarLines(env) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Restrictive permissions: the file may hold credentials.
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

func updateGitignore() error {
	gitignorePath := ".gitignore"

	content := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		content = string(data)
	}

	if strings.Contains(content, ".env.*") || strings.Contains(content, ".env.") {
		// Already has the pattern, don't add again
		return nil
	}

	section := `
# Environment files (added by postdeploy init)
# DO NOT remove - contains database credentials
.env.*
!.env.*.example
`

	content += section

	return os.WriteFile(gitignorePath, []byte(content), 0o644)
}
