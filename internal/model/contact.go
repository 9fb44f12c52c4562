package model

import "time"

// ContactMessage is an inquiry submitted through the public contact form.
// New messages always start unread.
type ContactMessage struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"`
	WhatsApp  *string   `json:"whatsapp"  db:"whatsapp"`
	Message   string    `json:"message"   db:"message"`
	IsRead    bool      `json:"isRead"    db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
