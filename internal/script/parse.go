package script

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
)

// FileExtension is the only extension the directory source considers.
const FileExtension = ".sql"

// Section pragmas recognized in script files. Everything before the first
// section pragma is treated as a header and ignored, except for the
// no_transaction pragma.
const (
	PragmaUp            = "-- postdeploy:up"
	PragmaDown          = "-- postdeploy:down"
	PragmaNoTransaction = "-- postdeploy:no_transaction"
)

// ParseFilename extracts the version and name from a script filename of the
// form <digits>_<snake_case_name>.sql. Filenames that don't match are not
// errors; stray files in the scripts directory are simply skipped.
func ParseFilename(filename string) (version int64, name string, ok bool) {
	base, found := strings.CutSuffix(filename, FileExtension)
	if !found {
		return 0, "", false
	}

	prefix, rest, found := strings.Cut(base, "_")
	if !found || prefix == "" || rest == "" {
		return 0, "", false
	}

	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return version, rest, true
}

// SQLSections is the parsed content of a script file.
type SQLSections struct {
	Up            string
	Down          string
	NoTransaction bool
}

// ParseSQLSections splits a script file into its up and down sections.
func ParseSQLSections(src string) SQLSections {
	var sections SQLSections
	var current *strings.Builder
	var up, down strings.Builder

	for _, line := range strings.Split(src, "\n") {
		switch strings.TrimSpace(line) {
		case PragmaUp:
			current = &up
			continue
		case PragmaDown:
			current = &down
			continue
		case PragmaNoTransaction:
			sections.NoTransaction = true
			continue
		}
		if current != nil {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	sections.Up = strings.TrimSpace(up.String())
	sections.Down = strings.TrimSpace(down.String())
	return sections
}

// bodyFromSections converts parsed sections into a runnable body. A section
// executes as a single batch, so multi-statement sections behave the same
// on every driver.
func bodyFromSections(path string, sections SQLSections) *Body {
	body := &Body{NoTransaction: sections.NoTransaction}
	if sections.Up != "" {
		body.Up = execSQL(path, sections.Up)
	}
	if sections.Down != "" {
		body.Down = execSQL(path, sections.Down)
	}
	return body
}

func execSQL(path, stmts string) Exec {
	return func(ctx context.Context, ex backend.Execer) error {
		if _, err := ex.ExecContext(ctx, stmts); err != nil {
			return fmt.Errorf("failed to execute %s: %w", path, err)
		}
		return nil
	}
}
