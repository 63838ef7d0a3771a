package sqlcheck

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestCheckFileValidScript(t *testing.T) {
	path := writeScript(t, t.TempDir(), "20200101000000_seed.sql", `-- postdeploy:up
INSERT INTO users (email) VALUES ('admin@example.com');
UPDATE users SET active = true WHERE email = 'admin@example.com';

-- postdeploy:down
DELETE FROM users WHERE email = 'admin@example.com';
`)

	issues, err := CheckFile(path)
	if err != nil {
		t.Fatalf("CheckFile failed: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %+v", issues)
	}
}

func TestCheckFileSyntaxErrorReportsLine(t *testing.T) {
	path := writeScript(t, t.TempDir(), "20200101000000_bad.sql", `-- postdeploy:up
INSERT INTO users (email) VALUES ('ok@example.com');
SELEC wrong FROM users;
`)

	issues, err := CheckFile(path)
	if err != nil {
		t.Fatalf("CheckFile failed: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %+v", issues)
	}
	if issues[0].Severity != "error" {
		t.Errorf("Severity = %q, want error", issues[0].Severity)
	}
	if issues[0].Line != 3 {
		t.Errorf("Line = %d, want 3", issues[0].Line)
	}
}

func TestCheckFileMissingSections(t *testing.T) {
	path := writeScript(t, t.TempDir(), "20200101000000_empty.sql", "-- no pragmas here\nSELECT 1;\n")

	issues, err := CheckFile(path)
	if err != nil {
		t.Fatalf("CheckFile failed: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %+v", issues)
	}
}

func TestCheckDirSkipsNonScripts(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "20200101000000_good.sql", "-- postdeploy:up\nSELECT 1;\n")
	writeScript(t, dir, "README.md", "not sql at all {{{")
	writeScript(t, dir, "scratch.sql", "also skipped: no version prefix")

	issues, err := CheckDir(dir)
	if err != nil {
		t.Fatalf("CheckDir failed: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %+v", issues)
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `INSERT INTO t (s) VALUES ('a;b');
-- comment with ; in it
UPDATE t SET s = 'x';`

	statements := splitStatements(sql)
	if len(statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %+v", len(statements), statements)
	}
	if statements[0].startLine != 1 {
		t.Errorf("First statement startLine = %d, want 1", statements[0].startLine)
	}
	if statements[1].startLine != 2 {
		t.Errorf("Second statement startLine = %d, want 2", statements[1].startLine)
	}
}
