package script

import (
	"context"
	"testing"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion int64
		wantName    string
		wantOK      bool
	}{
		{"standard", "20200101000000_seed_users.sql", 20200101000000, "seed_users", true},
		{"short version", "1_init.sql", 1, "init", true},
		{"multi underscore name", "20200101000000_backfill_user_emails.sql", 20200101000000, "backfill_user_emails", true},
		{"wrong extension", "20200101000000_seed_users.txt", 0, "", false},
		{"no underscore", "20200101000000.sql", 0, "", false},
		{"no version", "seed_users.sql", 0, "", false},
		{"empty name", "20200101000000_.sql", 0, "", false},
		{"readme", "README.md", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, name, ok := ParseFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ParseFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("ParseFilename(%q) = (%d, %q), want (%d, %q)",
					tt.filename, version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}

func TestParseSQLSections(t *testing.T) {
	src := `-- seed the admin user
-- postdeploy:up
INSERT INTO users (email) VALUES ('admin@example.com');

-- postdeploy:down
DELETE FROM users WHERE email = 'admin@example.com';
`
	sections := ParseSQLSections(src)
	if sections.Up != "INSERT INTO users (email) VALUES ('admin@example.com');" {
		t.Errorf("Unexpected up section: %q", sections.Up)
	}
	if sections.Down != "DELETE FROM users WHERE email = 'admin@example.com';" {
		t.Errorf("Unexpected down section: %q", sections.Down)
	}
	if sections.NoTransaction {
		t.Error("NoTransaction should default to false")
	}
}

func TestParseSQLSectionsNoTransaction(t *testing.T) {
	src := `-- postdeploy:no_transaction
-- postdeploy:up
CREATE INDEX CONCURRENTLY idx_users_email ON users (email);
`
	sections := ParseSQLSections(src)
	if !sections.NoTransaction {
		t.Error("Expected NoTransaction to be set")
	}
	if sections.Up == "" {
		t.Error("Expected up section to be populated")
	}
	if sections.Down != "" {
		t.Errorf("Expected empty down section, got %q", sections.Down)
	}
}

func TestParseSQLSectionsEmptyFile(t *testing.T) {
	sections := ParseSQLSections("-- just a comment, no pragmas\nSELECT 1;\n")
	if sections.Up != "" || sections.Down != "" {
		t.Errorf("Content outside sections should be ignored, got up=%q down=%q", sections.Up, sections.Down)
	}
}

func TestBodyEntry(t *testing.T) {
	noop := func(ctx context.Context, ex backend.Execer) error { return nil }

	upOnly := &Body{Up: noop}
	if exec, _ := upOnly.Entry(Up); exec == nil {
		t.Error("Up entry should resolve for up-only body")
	}
	if exec, _ := upOnly.Entry(Down); exec != nil {
		t.Error("Down entry should be nil for up-only body")
	}

	change := &Body{Change: func(ctx context.Context, ex backend.Execer, dir Direction) error { return nil }}
	if exec, _ := change.Entry(Up); exec == nil {
		t.Error("Up entry should fall back to change")
	}
	if exec, _ := change.Entry(Down); exec == nil {
		t.Error("Down entry should fall back to change")
	}
}

func TestResolveEmptyBodyIsNotAScript(t *testing.T) {
	desc := Descriptor{
		Version: 20200101000000,
		Name:    "broken",
		load:    func() (*Body, error) { return &Body{}, nil },
	}
	if _, err := desc.Resolve(); err == nil {
		t.Fatal("Expected NotAScriptError for empty body")
	}
}
