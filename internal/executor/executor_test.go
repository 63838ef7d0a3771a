package executor

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
	"github.com/inside-track/post-deploy-scripts/internal/ledger"
	"github.com/inside-track/post-deploy-scripts/internal/script"
)

func openTestBackend(t *testing.T) (*backend.Backend, *ledger.Ledger) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	b, err := backend.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Failed to open test backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	led := ledger.New(b)
	if err := led.Ensure(context.Background()); err != nil {
		t.Fatalf("Failed to ensure ledger: %v", err)
	}
	return b, led
}

func sqlExec(stmt string) script.Exec {
	return func(ctx context.Context, ex backend.Execer) error {
		_, err := ex.ExecContext(ctx, stmt)
		return err
	}
}

func registered(t *testing.T, version int64, name string, body *script.Body) script.Descriptor {
	t.Helper()
	catalog, err := script.NewListSource(script.Registered{Version: version, Name: name, Body: body}).Catalog()
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	return catalog[0]
}

func tableExists(t *testing.T, b *backend.Backend, name string) bool {
	t.Helper()
	var count int
	err := b.DB.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return count > 0
}

func TestApplyUpRecordsAndExecutes(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	desc := registered(t, 20200101000000, "seed_users", &script.Body{
		Up:   sqlExec("CREATE TABLE users (id INTEGER PRIMARY KEY)"),
		Down: sqlExec("DROP TABLE users"),
	})

	outcome, err := Apply(ctx, b, led, desc, script.Up)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if outcome != Applied {
		t.Errorf("Outcome = %v, want Applied", outcome)
	}
	if !tableExists(t, b, "users") {
		t.Error("Script effect missing: users table not created")
	}

	has, err := led.Has(ctx, b.DB, desc.Version)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("Version not recorded in ledger")
	}
}

func TestApplyUpTwiceIsAlreadyApplied(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	executions := 0
	desc := registered(t, 20200101000000, "count_runs", &script.Body{
		Up: func(ctx context.Context, ex backend.Execer) error {
			executions++
			return nil
		},
	})

	if _, err := Apply(ctx, b, led, desc, script.Up); err != nil {
		t.Fatalf("First apply failed: %v", err)
	}
	outcome, err := Apply(ctx, b, led, desc, script.Up)
	if err != nil {
		t.Fatalf("Second apply failed: %v", err)
	}
	if outcome != AlreadyApplied {
		t.Errorf("Outcome = %v, want AlreadyApplied", outcome)
	}
	if executions != 1 {
		t.Errorf("Script executed %d times, want 1", executions)
	}
}

func TestApplyDownRevertsAndUnrecords(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	desc := registered(t, 20200101000000, "seed_users", &script.Body{
		Up:   sqlExec("CREATE TABLE users (id INTEGER PRIMARY KEY)"),
		Down: sqlExec("DROP TABLE users"),
	})

	if _, err := Apply(ctx, b, led, desc, script.Up); err != nil {
		t.Fatalf("Apply up failed: %v", err)
	}
	outcome, err := Apply(ctx, b, led, desc, script.Down)
	if err != nil {
		t.Fatalf("Apply down failed: %v", err)
	}
	if outcome != Reverted {
		t.Errorf("Outcome = %v, want Reverted", outcome)
	}
	if tableExists(t, b, "users") {
		t.Error("Down script did not drop the users table")
	}

	has, err := led.Has(ctx, b.DB, desc.Version)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("Version still recorded after revert")
	}
}

func TestApplyDownOnUnappliedIsAlreadyReverted(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	desc := registered(t, 20200101000000, "seed_users", &script.Body{
		Down: sqlExec("SELECT 1"),
	})

	outcome, err := Apply(ctx, b, led, desc, script.Down)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if outcome != AlreadyReverted {
		t.Errorf("Outcome = %v, want AlreadyReverted", outcome)
	}
}

func TestApplyChangeRunsBothDirections(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	var directions []script.Direction
	desc := registered(t, 20200101000000, "toggle_flag", &script.Body{
		Change: func(ctx context.Context, ex backend.Execer, dir script.Direction) error {
			directions = append(directions, dir)
			return nil
		},
	})

	if _, err := Apply(ctx, b, led, desc, script.Up); err != nil {
		t.Fatalf("Apply up failed: %v", err)
	}
	if _, err := Apply(ctx, b, led, desc, script.Down); err != nil {
		t.Fatalf("Apply down failed: %v", err)
	}

	if len(directions) != 2 || directions[0] != script.Up || directions[1] != script.Down {
		t.Errorf("Change invoked with %v, want [up down]", directions)
	}
}

func TestApplyMissingDirectionIsRunError(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	desc := registered(t, 20200101000000, "one_way", &script.Body{
		Up: sqlExec("SELECT 1"),
	})
	if _, err := Apply(ctx, b, led, desc, script.Up); err != nil {
		t.Fatalf("Apply up failed: %v", err)
	}

	_, err := Apply(ctx, b, led, desc, script.Down)
	var runErr *script.RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("Expected RunError, got %v", err)
	}
	if runErr.Direction != script.Down {
		t.Errorf("RunError.Direction = %v, want down", runErr.Direction)
	}
}

func TestApplyFailureRollsBackEffectAndLedger(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	desc := registered(t, 20200101000000, "bad_script", &script.Body{
		Up: func(ctx context.Context, ex backend.Execer) error {
			if _, err := ex.ExecContext(ctx, "CREATE TABLE partial (id INTEGER PRIMARY KEY)"); err != nil {
				return err
			}
			_, err := ex.ExecContext(ctx, "THIS IS NOT SQL")
			return err
		},
	})

	if _, err := Apply(ctx, b, led, desc, script.Up); err == nil {
		t.Fatal("Expected apply to fail")
	}
	if tableExists(t, b, "partial") {
		t.Error("Partial effect survived a failed transactional script")
	}

	has, err := led.Has(ctx, b.DB, desc.Version)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("Failed script must not be recorded as applied")
	}
}

func TestApplyNoTransactionSkipsWrapping(t *testing.T) {
	ctx := context.Background()
	b, led := openTestBackend(t)

	desc := registered(t, 20200101000000, "no_tx", &script.Body{
		Up: func(ctx context.Context, ex backend.Execer) error {
			// A *sql.Tx would arrive here when wrapped.
			if _, ok := ex.(*sql.DB); !ok {
				t.Error("Expected raw *sql.DB for a no_transaction script")
			}
			return nil
		},
		NoTransaction: true,
	})

	if _, err := Apply(ctx, b, led, desc, script.Up); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}
