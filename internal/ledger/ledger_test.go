package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
)

func openTestBackend(t *testing.T) *backend.Backend {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	b, err := backend.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to open test backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	l := New(b)

	if err := l.Ensure(ctx); err != nil {
		t.Fatalf("First Ensure failed: %v", err)
	}
	if err := l.Ensure(ctx); err != nil {
		t.Fatalf("Second Ensure failed: %v", err)
	}
}

func TestRecordAndListVersions(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	l := New(b)

	if err := l.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	for _, v := range []int64{20200101000000, 20200102000000} {
		if err := l.RecordApplied(ctx, b.DB, v); err != nil {
			t.Fatalf("RecordApplied(%d) failed: %v", v, err)
		}
	}

	versions, err := l.Versions(ctx)
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if !versions[20200101000000] || !versions[20200102000000] {
		t.Errorf("Missing recorded versions: %v", versions)
	}

	has, err := l.Has(ctx, b.DB, 20200101000000)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("Has returned false for a recorded version")
	}
}

func TestDuplicateInsertFails(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	l := New(b)

	if err := l.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := l.RecordApplied(ctx, b.DB, 20200101000000); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := l.RecordApplied(ctx, b.DB, 20200101000000); err == nil {
		t.Fatal("Expected duplicate insert to fail")
	}
}

func TestRecordRevertedIsNoOpWhenAbsent(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	l := New(b)

	if err := l.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := l.RecordReverted(ctx, b.DB, 19990101000000); err != nil {
		t.Errorf("RecordReverted of absent version should be a no-op, got %v", err)
	}
}

func TestRecordRevertedRemovesVersion(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	l := New(b)

	if err := l.Ensure(ctx); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if err := l.RecordApplied(ctx, b.DB, 20200101000000); err != nil {
		t.Fatalf("RecordApplied failed: %v", err)
	}
	if err := l.RecordReverted(ctx, b.DB, 20200101000000); err != nil {
		t.Fatalf("RecordReverted failed: %v", err)
	}

	versions, err := l.Versions(ctx)
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("Expected empty ledger, got %v", versions)
	}
}

func TestVersionsWithoutTableReturnsUnavailable(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	l := New(b)

	_, err := l.Versions(ctx)
	if err == nil {
		t.Fatal("Expected error reading versions without a ledger table")
	}
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("Expected UnavailableError, got %T: %v", err, err)
	}
}

func TestCustomTableAndPrefix(t *testing.T) {
	l := New(nil, WithTable("ops_scripts"), WithPrefix("admin"))
	if got := l.Table(); got != "admin.ops_scripts" {
		t.Errorf("Table() = %q, want admin.ops_scripts", got)
	}

	l = New(nil, WithTable(""))
	if got := l.Table(); got != DefaultTable {
		t.Errorf("Empty table override should keep default, got %q", got)
	}
}
