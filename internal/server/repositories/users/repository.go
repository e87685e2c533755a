package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/server/models"
)

// Repository persists user identities.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
