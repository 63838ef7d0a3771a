// Package sqlcheck validates the SQL inside script files using the
// PostgreSQL parser, reporting issues with file and line positions. The
// runner never interprets script contents; this is a standalone authoring
// aid wired to the validate command.
package sqlcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/inside-track/post-deploy-scripts/internal/script"
)

// Issue is one validation finding.
type Issue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// CheckFile validates one script file: it must carry at least one section,
// and every statement in its sections must parse as PostgreSQL.
func CheckFile(path string) ([]Issue, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(src)
	sections := script.ParseSQLSections(content)

	var issues []Issue
	if sections.Up == "" && sections.Down == "" {
		issues = append(issues, Issue{
			File:     path,
			Line:     1,
			Severity: "error",
			Message:  "no up or down section found (missing -- postdeploy:up / -- postdeploy:down pragmas)",
		})
		return issues, nil
	}

	issues = append(issues, checkSection(path, content, sections.Up)...)
	issues = append(issues, checkSection(path, content, sections.Down)...)
	sort.Slice(issues, func(i, j int) bool { return issues[i].Line < issues[j].Line })
	return issues, nil
}

// CheckDir validates every script file in a directory, skipping entries
// that don't match the naming convention just like the catalog scan does.
func CheckDir(dir string) ([]Issue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts directory %q: %w", dir, err)
	}

	var issues []Issue
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, _, ok := script.ParseFilename(entry.Name()); !ok {
			continue
		}
		fileIssues, err := CheckFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		issues = append(issues, fileIssues...)
	}
	return issues, nil
}

func checkSection(path, fullContent, section string) []Issue {
	if section == "" {
		return nil
	}

	// Whole-section parse first; splitting happens only to pinpoint which
	// statement is broken.
	if _, err := pg_query.Parse(section); err == nil {
		return nil
	}

	sectionStart := lineOf(fullContent, section)

	var issues []Issue
	for _, stmt := range splitStatements(section) {
		trimmed := strings.TrimSpace(stmt.sql)
		if trimmed == "" || isCommentOnly(trimmed) {
			continue
		}
		if _, err := pg_query.Parse(stmt.sql); err != nil {
			issues = append(issues, Issue{
				File:     path,
				Line:     sectionStart + stmt.startLine - 1,
				Severity: "error",
				Message:  cleanParseError(err),
			})
		}
	}
	return issues
}

// lineOf returns the 1-based line on which section begins within content.
func lineOf(content, section string) int {
	idx := strings.Index(content, section)
	if idx < 0 {
		return 1
	}
	return strings.Count(content[:idx], "\n") + 1
}

func isCommentOnly(sql string) bool {
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return false
		}
	}
	return true
}

func cleanParseError(err error) string {
	msg := err.Error()
	return strings.TrimPrefix(msg, "syntax error: ")
}

type statement struct {
	sql       string
	startLine int
}

// splitStatements splits SQL on semicolons while tracking quotes and
// comments, preserving the starting line of each statement.
func splitStatements(sql string) []statement {
	var statements []statement
	var current strings.Builder
	currentLine := 1
	stmtStartLine := 1
	seenContent := false

	inSingleQuote := false
	inDoubleQuote := false
	inLineComment := false
	inBlockComment := false

	runes := []rune(sql)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\n' {
			currentLine++
			inLineComment = false
		}

		if !inSingleQuote && !inDoubleQuote {
			if !inBlockComment && ch == '-' && i+1 < len(runes) && runes[i+1] == '-' {
				inLineComment = true
			}
			if !inLineComment && ch == '/' && i+1 < len(runes) && runes[i+1] == '*' {
				inBlockComment = true
			}
			if inBlockComment && ch == '*' && i+1 < len(runes) && runes[i+1] == '/' {
				inBlockComment = false
				current.WriteRune(ch)
				current.WriteRune(runes[i+1])
				i++
				continue
			}
		}

		if !inLineComment && !inBlockComment {
			switch ch {
			case '\'':
				if !inDoubleQuote {
					inSingleQuote = !inSingleQuote
				}
			case '"':
				if !inSingleQuote {
					inDoubleQuote = !inDoubleQuote
				}
			}
		}

		if !seenContent && !isSpaceRune(ch) {
			seenContent = true
			stmtStartLine = currentLine
		}

		current.WriteRune(ch)

		if ch == ';' && !inSingleQuote && !inDoubleQuote && !inLineComment && !inBlockComment {
			statements = append(statements, statement{sql: current.String(), startLine: stmtStartLine})
			current.Reset()
			seenContent = false
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, statement{sql: current.String(), startLine: stmtStartLine})
	}
	return statements
}

func isSpaceRune(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
