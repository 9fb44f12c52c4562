package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

var _ repository.ContactRepository = (*DB)(nil)

const contactColumns = `id, name, email, whatsapp, message, is_read, created_at, updated_at`

func scanContact(row rowScanner, m *model.ContactMessage) error {
	return row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.WhatsApp,
		&m.Message,
		&m.IsRead,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}

// CreateContact stores a new message. IsRead is written as given; the
// service always passes false for public submissions.
func (db *DB) CreateContact(ctx context.Context, msg *model.ContactMessage) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO contact_messages (name, email, whatsapp, message, is_read, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Name,
		msg.Email,
		msg.WhatsApp,
		msg.Message,
		msg.IsRead,
		msg.CreatedAt,
		msg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating contact message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new contact message id: %w", err)
	}
	msg.ID = id
	return nil
}

func (db *DB) GetContactByID(ctx context.Context, id int64) (*model.ContactMessage, error) {
	var m model.ContactMessage
	err := scanContact(db.conn.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contact_messages WHERE id = ?`, id,
	), &m)
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("contact message", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting contact message %d: %w", id, err)
	}
	return &m, nil
}

func (db *DB) ListContacts(ctx context.Context, opts repository.ListOptions) ([]model.ContactMessage, error) {
	query := `SELECT ` + contactColumns + ` FROM contact_messages ORDER BY created_at DESC, id DESC`
	limit, args := limitClause(opts)
	query += limit

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contact messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := scanContact(rows, &m); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating contact message rows: %w", err)
	}
	return messages, nil
}

func (db *DB) UpdateContact(ctx context.Context, msg *model.ContactMessage) error {
	msg.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE contact_messages
		 SET name = ?, email = ?, whatsapp = ?, message = ?, is_read = ?, updated_at = ?
		 WHERE id = ?`,
		msg.Name,
		msg.Email,
		msg.WhatsApp,
		msg.Message,
		msg.IsRead,
		msg.UpdatedAt,
		msg.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating contact message %d: %w", msg.ID, err)
	}
	return requireRow(result, "contact message", msg.ID)
}

func (db *DB) DeleteContact(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "contact_messages", "contact message", id)
}

func (db *DB) CountContacts(ctx context.Context) (int64, error) {
	return db.count(ctx, "contact_messages")
}
