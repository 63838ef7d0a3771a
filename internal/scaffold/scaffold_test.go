package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inside-track/post-deploy-scripts/internal/script"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"add users index", "add_users_index"},
		{"Backfill-Orders", "backfill_orders"},
		{"already_snake", "already_snake"},
		{"  spaces  everywhere  ", "spaces_everywhere"},
		{"drop temp!! tables??", "drop_temp_tables"},
		{"v2 cleanup", "v2_cleanup"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	got := Filename("add users index", now)
	want := "20240315093045_add_users_index.sql"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}

	version, name, ok := script.ParseFilename(got)
	if !ok {
		t.Fatalf("generated filename %q is not discoverable", got)
	}
	if version != 20240315093045 {
		t.Errorf("version = %d, want 20240315093045", version)
	}
	if name != "add_users_index" {
		t.Errorf("name = %q, want add_users_index", name)
	}
}

func TestCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scripts")
	now := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	path, err := Create(dir, "backfill orders", now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read created script: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, script.PragmaUp) {
		t.Errorf("template missing up pragma:\n%s", content)
	}
	if !strings.Contains(content, script.PragmaDown) {
		t.Errorf("template missing down pragma:\n%s", content)
	}

	sections := script.ParseSQLSections(content)
	if sections.NoTransaction {
		t.Error("template should not opt out of transactions")
	}
}

func TestCreateRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	if _, err := Create(dir, "once", now); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := Create(dir, "once", now); err == nil {
		t.Fatal("expected error creating duplicate script")
	}
}

func TestCreateEmptyName(t *testing.T) {
	if _, err := Create(t.TempDir(), "!!!", time.Now()); err == nil {
		t.Fatal("expected error for name with no usable characters")
	}
}
