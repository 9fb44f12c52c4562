package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

var _ repository.ContactRepository = (*DB)(nil)

const contactColumns = `id, name, email, whatsapp, message, is_read, created_at, updated_at`

func scanContact(row pgx.Row, m *model.ContactMessage) error {
	return row.Scan(&m.ID, &m.Name, &m.Email, &m.WhatsApp, &m.Message, &m.IsRead, &m.CreatedAt, &m.UpdatedAt)
}

func (db *DB) CreateContact(ctx context.Context, msg *model.ContactMessage) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	err := db.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, whatsapp, message, is_read, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		msg.Name, msg.Email, msg.WhatsApp, msg.Message, msg.IsRead, msg.CreatedAt, msg.UpdatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating contact message: %w", err)
	}
	return nil
}

func (db *DB) GetContactByID(ctx context.Context, id int64) (*model.ContactMessage, error) {
	var m model.ContactMessage
	err := scanContact(db.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contact_messages WHERE id = $1`, id), &m)
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("contact message", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("postgres: getting contact message %d: %w", id, err)
	}
	return &m, nil
}

func (db *DB) ListContacts(ctx context.Context, opts repository.ListOptions) ([]model.ContactMessage, error) {
	query := `SELECT ` + contactColumns + ` FROM contact_messages ORDER BY created_at DESC, id DESC`
	limit, args := limitClause(opts, 1)
	query += limit

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing contact messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := scanContact(rows, &m); err != nil {
			return nil, fmt.Errorf("postgres: scanning contact message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating contact message rows: %w", err)
	}
	return messages, nil
}

func (db *DB) UpdateContact(ctx context.Context, msg *model.ContactMessage) error {
	msg.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE contact_messages
		 SET name = $1, email = $2, whatsapp = $3, message = $4, is_read = $5, updated_at = $6
		 WHERE id = $7`,
		msg.Name, msg.Email, msg.WhatsApp, msg.Message, msg.IsRead, msg.UpdatedAt, msg.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating contact message %d: %w", msg.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("contact message", fmt.Sprint(msg.ID))
	}
	return nil
}

func (db *DB) DeleteContact(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "contact_messages", "contact message", id)
}

func (db *DB) CountContacts(ctx context.Context) (int64, error) {
	return db.count(ctx, "contact_messages")
}
