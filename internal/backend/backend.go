// Package backend wraps a database/sql connection with the dialect and
// capability information the script runner needs. Every operation receives
// an explicit *Backend; there is no process-wide registry.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect identifies the SQL flavor behind a connection string.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectLibSQL   Dialect = "libsql"
)

// Capabilities describes what the backend can guarantee. The executor
// consults flags here instead of probing a live connection.
type Capabilities struct {
	// TransactionalDDL reports whether structural changes can run inside a
	// transaction and roll back cleanly. When false, a crash between a
	// script's effect and its ledger write can leave the two out of sync;
	// that window is accepted, not solved.
	TransactionalDDL bool
}

// Execer is the subset of *sql.DB and *sql.Tx the runner uses, so ledger
// writes can join whichever transaction scope the executor opened.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Backend is an open connection plus its dialect and capabilities.
type Backend struct {
	DB      *sql.DB
	Dialect Dialect
	Caps    Capabilities
}

// DetectDialect guesses the dialect from a connection string. SQLite file
// paths (including ones that don't exist yet) are recognized by extension.
func DetectDialect(connStr string) Dialect {
	lower := strings.ToLower(connStr)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DialectPostgres
	case strings.HasPrefix(lower, "libsql://"), strings.HasPrefix(lower, "wss://"), strings.HasPrefix(lower, "ws://"):
		return DialectLibSQL
	case strings.HasPrefix(lower, "sqlite://"):
		return DialectSQLite
	case strings.HasPrefix(lower, "file:"), lower == ":memory:":
		return DialectSQLite
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return DialectSQLite
	}
	return DialectPostgres
}

// SQLDriverName maps a dialect to the registered database/sql driver name.
func SQLDriverName(d Dialect) string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectLibSQL:
		return "libsql"
	default:
		return "sqlite"
	}
}

func capabilitiesFor(d Dialect) Capabilities {
	switch d {
	case DialectPostgres, DialectSQLite:
		return Capabilities{TransactionalDDL: true}
	default:
		// libSQL over the remote protocol executes statements one at a
		// time; interactive DDL transactions are not guaranteed.
		return Capabilities{TransactionalDDL: false}
	}
}

// Open connects to the database named by connStr, detecting the dialect
// from the connection string.
func Open(ctx context.Context, connStr string) (*Backend, error) {
	dialect := DetectDialect(connStr)

	dsn := connStr
	if dialect == DialectSQLite {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open(SQLDriverName(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Backend{DB: db, Dialect: dialect, Caps: capabilitiesFor(dialect)}, nil
}

// Placeholder returns the parameter placeholder for the given 1-based
// position. PostgreSQL uses $1, $2, ...; SQLite and libSQL use ?.
func (b *Backend) Placeholder(position int) string {
	if b.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", position)
	}
	return "?"
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	return b.DB.Close()
}
