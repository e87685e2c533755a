// Package models holds the server-side domain records persisted in
// PostgreSQL. Timestamps are set explicitly by the code that creates or
// mutates a record; there are no hidden lifecycle hooks.
package models

import "time"

// Role of an account. The set is closed; anything else is a data error.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account status values.
const (
	StatusActive  = "ACTIVE"
	StatusDormant = "DORMANT"
)

// User is an identity record. PasswordHash is a bcrypt hash and never leaves
// the repository/service layers.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Nickname     string
	Handle       string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  time.Time
}

// NewUser builds a user record with timestamps and defaults filled in at the
// call site.
func NewUser(email, passwordHash, nickname, handle string, now time.Time) *User {
	return &User{
		Email:        email,
		PasswordHash: passwordHash,
		Nickname:     nickname,
		Handle:       handle,
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
