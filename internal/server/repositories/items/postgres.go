// Package items provides a PostgreSQL-backed repository for refrigerator
// items.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/dmitrijs2005/myrecipe/internal/dbx"
	"github.com/dmitrijs2005/myrecipe/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new item row and returns it with the generated ID.
func (r *PostgresRepository) Create(ctx context.Context, item *models.RefrigeratorItem) (*models.RefrigeratorItem, error) {
	query := `
		INSERT INTO refrigerator_items (user_id, ingredient_name, quantity, unit, expiration_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		item.UserID, item.IngredientName, item.Quantity, item.Unit,
		item.ExpirationDate, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// ListByUserID returns every item the user keeps, newest first.
func (r *PostgresRepository) ListByUserID(ctx context.Context, userID string) ([]*models.RefrigeratorItem, error) {
	query := `
		SELECT id, user_id, ingredient_name, quantity, unit, expiration_date, created_at, updated_at
		FROM refrigerator_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefrigeratorItem
	for rows.Next() {
		item := &models.RefrigeratorItem{}
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.IngredientName, &item.Quantity,
			&item.Unit, &item.ExpirationDate, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Get returns the user's item with the given ID, or common.ErrorNotFound.
// The user_id predicate keeps one user's rows invisible to another.
func (r *PostgresRepository) Get(ctx context.Context, userID string, id string) (*models.RefrigeratorItem, error) {
	query := `
		SELECT id, user_id, ingredient_name, quantity, unit, expiration_date, created_at, updated_at
		FROM refrigerator_items
		WHERE id = $1 AND user_id = $2
	`
	item := &models.RefrigeratorItem{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&item.ID, &item.UserID, &item.IngredientName, &item.Quantity,
		&item.Unit, &item.ExpirationDate, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// Update rewrites the mutable fields of the user's item. When no row matched
// it returns common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, item *models.RefrigeratorItem) error {
	query := `
		UPDATE refrigerator_items
		SET ingredient_name = $3, quantity = $4, unit = $5, expiration_date = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.IngredientName, item.Quantity,
		item.Unit, item.ExpirationDate, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete removes the user's item. When no row matched it returns
// common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, id string) error {
	query := `
		DELETE FROM refrigerator_items
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}
