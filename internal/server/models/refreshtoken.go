package models

import "time"

// RefreshToken is the persisted half of a token pair: one row per currently
// valid refresh token. A user may hold several rows at once (multi-device);
// the token string itself is unique. Role is stored alongside the token so
// a refresh derives identity from this row rather than re-trusting claims.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	Role      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the row is past its expiry at the given instant.
// Expired rows are rejected on validation but not proactively deleted.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
