package domain

import (
	"context"
	"time"
)

// User represents an account holder. Accounts are write-once: there are no
// update or delete operations.
type User struct {
	ID           string // UUID
	Email        string // Unique natural key
	Name         string
	PasswordHash string // Bcrypt hash, never returned in API responses
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SanitizedUser is the view of a User safe to return to callers.
type SanitizedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Sanitized returns the user without the password hash.
func (u *User) Sanitized() SanitizedUser {
	return SanitizedUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// CredentialStore defines data access for user accounts. Email is the primary
// key; id lookup may be a scan in small stores.
type CredentialStore interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
