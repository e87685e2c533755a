// Package items declares the repository contract for refrigerator items.
package items

import (
	"context"

	"github.com/dmitrijs2005/myrecipe/internal/server/models"
)

// Repository defines CRUD operations for a user's refrigerator items. Every
// operation is scoped to a user: a user can never see or touch another
// user's rows.
type Repository interface {
	Create(ctx context.Context, item *models.RefrigeratorItem) (*models.RefrigeratorItem, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.RefrigeratorItem, error)
	Get(ctx context.Context, userID string, id string) (*models.RefrigeratorItem, error)
	Update(ctx context.Context, item *models.RefrigeratorItem) error
	Delete(ctx context.Context, userID string, id string) error
}
