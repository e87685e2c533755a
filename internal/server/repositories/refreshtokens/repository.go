// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID together with the role
	// the token was issued for.
	Create(ctx context.Context, userID string, role string, token string, expiresAt time.Time) error

	// Find looks up a refresh token by its opaque token string and returns its metadata.
	// Implementations should return a not-found error when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token by its token string. It returns a
	// not-found error when no row was deleted, so rotation can detect that
	// a concurrent request already consumed the token.
	Delete(ctx context.Context, token string) error

	// DeleteByUserID revokes every refresh token held by userID.
	DeleteByUserID(ctx context.Context, userID string) error
}
