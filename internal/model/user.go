// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an admin account that can sign in to the dashboard.
//
// PasswordHash is a bcrypt hash and is never serialised: the json:"-" tag
// keeps it out of every response even if a handler forgets to map to a DTO.
//
// Name is a pointer because it is genuinely optional. nil means "no display
// name", which is different from an empty string in the API contract.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Name         *string   `json:"name"      db:"name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Identity is the authenticated caller attached to a request context.
// It is the "me" block of the admin dashboard.
type Identity struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

// Identity projects the user onto the fields that are safe to expose.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}
