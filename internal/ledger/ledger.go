// Package ledger maintains the durable record of which script versions have
// been applied to a backend. It is deliberately quiet: no logging happens at
// this layer, and every operation surfaces its error to the caller.
package ledger

import (
	"context"
	"fmt"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
)

// DefaultTable is the tracking table name used when none is configured.
const DefaultTable = "post_deploy_scripts"

// UnavailableError indicates the ledger table could not be created or read,
// usually because the database itself is missing. It is surfaced immediately
// with a provisioning hint; the runner never retries it.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("ledger unavailable: %v (the database may not exist yet; create it or run your provisioning step before applying scripts)", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Ledger reads and writes the version-tracking table of one backend.
type Ledger struct {
	backend *backend.Backend
	table   string
	prefix  string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithTable overrides the tracking table name.
func WithTable(name string) Option {
	return func(l *Ledger) {
		if name != "" {
			l.table = name
		}
	}
}

// WithPrefix sets a schema prefix for the tracking table (e.g. a PostgreSQL
// schema). Empty means the backend's default schema.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) {
		l.prefix = prefix
	}
}

// New returns a Ledger for the given backend.
func New(b *backend.Backend, options ...Option) *Ledger {
	l := &Ledger{backend: b, table: DefaultTable}
	for _, option := range options {
		option(l)
	}
	return l
}

// Table returns the qualified tracking table name.
func (l *Ledger) Table() string {
	if l.prefix != "" {
		return l.prefix + "." + l.table
	}
	return l.table
}

// Ensure creates the tracking table if it does not exist. Safe to call on
// every invocation; the table is never dropped by this package.
func (l *Ledger) Ensure(ctx context.Context) error {
	var ddl string
	switch l.backend.Dialect {
	case backend.DialectPostgres:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	version BIGINT PRIMARY KEY,
	inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`, l.Table())
	default:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	version INTEGER PRIMARY KEY,
	inserted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, l.Table())
	}

	if _, err := l.backend.DB.ExecContext(ctx, ddl); err != nil {
		return &UnavailableError{Err: err}
	}
	return nil
}

// Versions returns the set of recorded script versions.
func (l *Ledger) Versions(ctx context.Context) (map[int64]bool, error) {
	query := fmt.Sprintf("SELECT version FROM %s", l.Table())
	rows, err := l.backend.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer func() { _ = rows.Close() }()

	versions := map[int64]bool{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		versions[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger versions: %w", err)
	}
	return versions, nil
}

// Has reports whether version is recorded. It runs on ex so the executor can
// re-check inside an open transaction.
func (l *Ledger) Has(ctx context.Context, ex backend.Execer, version int64) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE version = %s", l.Table(), l.backend.Placeholder(1))
	var count int
	if err := ex.QueryRowContext(ctx, query, version).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ledger for version %d: %w", version, err)
	}
	return count > 0, nil
}

// RecordApplied inserts version into the ledger. Inserting a version twice
// fails: a duplicate here means a planning bug or a concurrent runner, and
// failing loudly is the intended conflict detection.
func (l *Ledger) RecordApplied(ctx context.Context, ex backend.Execer, version int64) error {
	query := fmt.Sprintf("INSERT INTO %s (version) VALUES (%s)", l.Table(), l.backend.Placeholder(1))
	if _, err := ex.ExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("failed to record version %d as applied: %w", version, err)
	}
	return nil
}

// RecordReverted deletes the row for version. Deleting an absent version is
// a no-op.
func (l *Ledger) RecordReverted(ctx context.Context, ex backend.Execer, version int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE version = %s", l.Table(), l.backend.Placeholder(1))
	if _, err := ex.ExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("failed to record version %d as reverted: %w", version, err)
	}
	return nil
}
