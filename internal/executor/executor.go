// Package executor runs a single script in a direction, wrapping it in a
// transaction when the backend supports one, and records the outcome in the
// ledger within the same transactional scope.
package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
	"github.com/inside-track/post-deploy-scripts/internal/ledger"
	"github.com/inside-track/post-deploy-scripts/internal/script"
)

// Outcome is the result of applying one script.
type Outcome int

const (
	Applied Outcome = iota
	Reverted
	AlreadyApplied
	AlreadyReverted
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Reverted:
		return "reverted"
	case AlreadyApplied:
		return "already applied"
	case AlreadyReverted:
		return "already reverted"
	}
	return "unknown"
}

// Executed reports whether the outcome involved actually running the script.
func (o Outcome) Executed() bool {
	return o == Applied || o == Reverted
}

// Apply runs one script in the given direction and records the result.
//
// The ledger write happens inside the script's transaction, so on backends
// with transactional DDL a crash cannot record a script that didn't run or
// run a script that isn't recorded. Backends without that capability (and
// scripts that opt out of wrapping) keep a small window between effect and
// record; that window is accepted, not solved.
func Apply(ctx context.Context, b *backend.Backend, led *ledger.Ledger, desc script.Descriptor, dir script.Direction) (Outcome, error) {
	body, err := desc.Resolve()
	if err != nil {
		return 0, err
	}

	run, err := body.Entry(dir)
	if err != nil {
		return 0, err
	}
	if run == nil {
		return 0, &script.RunError{Version: desc.Version, Name: desc.Name, Direction: dir}
	}

	// Re-check the ledger before executing: the planner's snapshot may be
	// stale by the time this script's turn comes.
	recorded, err := led.Has(ctx, b.DB, desc.Version)
	if err != nil {
		return 0, err
	}
	if dir == script.Up && recorded {
		return AlreadyApplied, nil
	}
	if dir == script.Down && !recorded {
		return AlreadyReverted, nil
	}

	step := func(ex backend.Execer) error {
		if err := run(ctx, ex); err != nil {
			return err
		}
		if dir == script.Up {
			return led.RecordApplied(ctx, ex, desc.Version)
		}
		return led.RecordReverted(ctx, ex, desc.Version)
	}

	if b.Caps.TransactionalDDL && !body.NoTransaction {
		err = inTransaction(ctx, b.DB, step)
	} else {
		err = step(b.DB)
	}
	if err != nil {
		return 0, fmt.Errorf("script %d_%s (%s) failed: %w", desc.Version, desc.Name, dir, err)
	}

	if dir == script.Up {
		return Applied, nil
	}
	return Reverted, nil
}

// inTransaction executes fn inside a transaction, rolling back on error or
// panic.
func inTransaction(ctx context.Context, db *sql.DB, fn func(backend.Execer) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}
