package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, password_hash, name, created_at, updated_at`

func scanUser(row pgx.Row, u *model.User) error {
	return row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
}

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		user.Email, user.PasswordHash, user.Name, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return apperror.ConflictMessage("email already registered")
		}
		return fmt.Errorf("postgres: inserting user (email=%s): %w", user.Email, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("user", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return &u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email), &u)
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return &u, nil
}

func (db *DB) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		query += ` WHERE email ILIKE $1 OR name ILIKE $1`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit, limitArgs := limitClause(filter.ListOptions, len(args)+1)
	query += limit
	args = append(args, limitArgs...)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating user rows: %w", err)
	}
	return users, nil
}

func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET email = $1, password_hash = $2, name = $3, updated_at = $4 WHERE id = $5`,
		user.Email, user.PasswordHash, user.Name, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return apperror.ConflictMessage("email already used by another user")
		}
		return fmt.Errorf("postgres: updating user %d: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", fmt.Sprint(user.ID))
	}
	return nil
}

func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "users", "user", id)
}

func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, "users")
}

// escapeLike escapes LIKE wildcards; backslash is PostgreSQL's default escape.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
