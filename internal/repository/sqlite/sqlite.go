// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// SQLite is the default store: a single file next to the binary, no server
// to run. modernc.org/sqlite is a pure Go port, so the binary still builds
// with CGO_ENABLED=0.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB      : a connection pool (NOT a single connection!)
//   - sql.Row     : a single result row
//   - sql.Rows    : multiple result rows (must be closed!)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements every repository.
type DB struct {
	conn *sql.DB
}

// connPragmas are applied by the driver to every new pooled connection.
// Foreign keys are OFF by default in SQLite; busy_timeout makes concurrent
// writers wait instead of failing with SQLITE_BUSY; WAL lets readers proceed
// while a write is in progress.
var connPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/triforge.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// An in-memory database exists per connection, so the pool is pinned to a
// single connection for ":memory:". Otherwise every new pooled connection
// would see an empty schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	return open(conn, dbPath == ":memory:")
}

// dsn appends connPragmas as modernc.org/sqlite "_pragma" query parameters.
func dsn(dbPath string) string {
	params := make([]string, len(connPragmas))
	for i, p := range connPragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(params, "&")
}

// NewFromConn wraps an existing *sql.DB without running migrations. Used by
// tests that drive the repository through sqlmock.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func open(conn *sql.DB, memory bool) (*DB, error) {
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent, so it runs on
// every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS segments (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			slug  TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating segments table: %w", err)
	}

	// tags holds a JSON array, e.g. ["go","api"].
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			segment_id INTEGER NOT NULL REFERENCES segments(id),
			category   TEXT NOT NULL,
			title      TEXT NOT NULL,
			result     TEXT NOT NULL,
			details    TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT '[]',
			image      TEXT NOT NULL,
			image_alt  TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_segment_id ON projects(segment_id);
		CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating projects table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contact_messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL,
			whatsapp   TEXT,
			message    TEXT NOT NULL,
			is_read    BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_contact_messages_created_at ON contact_messages(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating contact_messages table: %w", err)
	}

	return nil
}

// count runs a SELECT COUNT(*) on table. table is always a constant.
func (db *DB) count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting %s: %w", table, err)
	}
	return n, nil
}

// deleteByID deletes one row and reports NotFound when nothing matched.
func (db *DB) deleteByID(ctx context.Context, table, resource string, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ConflictMessage(fmt.Sprintf("%s %d is still referenced", resource, id))
		}
		return fmt.Errorf("sqlite: deleting %s %d: %w", resource, id, err)
	}
	return requireRow(result, resource, id)
}

// requireRow turns "0 rows affected" into apperror.NotFound.
func requireRow(result sql.Result, resource string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound(resource, fmt.Sprint(id))
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// limitClause renders LIMIT/OFFSET for opts. SQLite needs a LIMIT before an
// OFFSET, so -1 stands for "no limit".
func limitClause(opts repository.ListOptions) (string, []any) {
	if opts.Limit <= 0 && opts.Offset <= 0 {
		return "", nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	return " LIMIT ? OFFSET ?", []any{limit, opts.Offset}
}
