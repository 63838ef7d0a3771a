// Package scaffold generates new script files in the naming convention the
// directory source discovers.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/inside-track/post-deploy-scripts/internal/script"
)

const timestampFormat = "20060102150405"

const template = `-- %s
-- Generated %s
%s
-- Statements here run once per environment and must be idempotent.

%s
-- Statements here undo the section above. Leave empty for one-way scripts.
`

// Filename builds <timestamp>_<snake_name>.sql for the given moment.
func Filename(name string, now time.Time) string {
	return now.UTC().Format(timestampFormat) + "_" + Normalize(name) + script.FileExtension
}

// Normalize converts a human name to snake_case: lowercased, with runs of
// non-alphanumeric characters collapsed to single underscores.
func Normalize(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// Create writes a new script file into dir, creating the directory if
// needed, and returns the created path. It refuses to overwrite.
func Create(dir, name string, now time.Time) (string, error) {
	normalized := Normalize(name)
	if normalized == "" {
		return "", fmt.Errorf("script name %q contains no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scripts directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, Filename(name, now))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("script file %q already exists", path)
	}

	content := fmt.Sprintf(template,
		normalized,
		now.UTC().Format(time.RFC3339),
		script.PragmaUp,
		script.PragmaDown,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to create script at %q: %w", path, err)
	}
	return path, nil
}
