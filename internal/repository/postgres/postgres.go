// Package postgres implements the repository interfaces on PostgreSQL via a
// pgx connection pool. The schema is managed by golang-migrate with the SQL
// files embedded in the binary.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB implements every repository on a pgx pool.
type DB struct {
	pool *pgxpool.Pool
}

// New runs pending migrations and opens the pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres: DATABASE_URL is required")
	}

	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting %s: %w", table, err)
	}
	return n, nil
}

func (db *DB) deleteByID(ctx context.Context, table, resource string, id int64) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return apperror.ConflictMessage(fmt.Sprintf("%s %d is still referenced", resource, id))
		}
		return fmt.Errorf("postgres: deleting %s %d: %w", resource, id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(resource, fmt.Sprint(id))
	}
	return nil
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pgCode returns the SQLSTATE of a server error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// limitClause appends LIMIT/OFFSET placeholders starting at $next.
func limitClause(opts repository.ListOptions, next int) (string, []any) {
	if opts.Limit <= 0 && opts.Offset <= 0 {
		return "", nil
	}
	if opts.Limit <= 0 {
		return fmt.Sprintf(" OFFSET $%d", next), []any{opts.Offset}
	}
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", next, next+1), []any{opts.Limit, opts.Offset}
}
