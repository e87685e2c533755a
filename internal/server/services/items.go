package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/dmitrijs2005/myrecipe/internal/server/models"
	"github.com/dmitrijs2005/myrecipe/internal/server/repositories/repomanager"
)

// ItemService manages a user's refrigerator items. Every operation takes the
// caller's user ID; ownership checks happen in the repository queries.
type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewItemService wires the service to its database handle and repository
// factory.
func NewItemService(db *sql.DB, m repomanager.RepositoryManager) *ItemService {
	return &ItemService{db: db, repomanager: m}
}

// ItemInput carries the client-settable fields of a refrigerator item.
type ItemInput struct {
	IngredientName string
	Quantity       int
	Unit           string
	ExpirationDate time.Time
}

func validateItem(in *ItemInput) error {
	if in.IngredientName == "" {
		return common.E(common.KindValidation, common.CodeValidation, "ingredient name is required")
	}
	if in.Quantity < 0 {
		return common.E(common.KindValidation, common.CodeValidation, "quantity must not be negative")
	}
	return nil
}

// Add creates a new item for the user.
func (s *ItemService) Add(ctx context.Context, userID string, in *ItemInput) (*models.RefrigeratorItem, error) {
	if err := validateItem(in); err != nil {
		return nil, err
	}

	now := timeNow()
	item := &models.RefrigeratorItem{
		UserID:         userID,
		IngredientName: in.IngredientName,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		ExpirationDate: in.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	repo := s.repomanager.Items(s.db)
	item, err := repo.Create(ctx, item)
	if err != nil {
		return nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error creating item", err)
	}
	return item, nil
}

// List returns every item the user keeps.
func (s *ItemService) List(ctx context.Context, userID string) ([]*models.RefrigeratorItem, error) {
	repo := s.repomanager.Items(s.db)
	result, err := repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error listing items", err)
	}
	return result, nil
}

// Update rewrites the user's item. An item that does not exist, or that
// belongs to someone else, yields a not-found error.
func (s *ItemService) Update(ctx context.Context, userID string, id string, in *ItemInput) (*models.RefrigeratorItem, error) {
	if err := validateItem(in); err != nil {
		return nil, err
	}

	item := &models.RefrigeratorItem{
		ID:             id,
		UserID:         userID,
		IngredientName: in.IngredientName,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		ExpirationDate: in.ExpirationDate,
		UpdatedAt:      timeNow(),
	}

	repo := s.repomanager.Items(s.db)
	if err := repo.Update(ctx, item); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.Wrap(common.KindNotFound, common.CodeNotFound, "item not found", err)
		}
		return nil, common.Wrap(common.KindPersistence, common.CodePersistence, "error updating item", err)
	}
	return item, nil
}

// Remove deletes the user's item.
func (s *ItemService) Remove(ctx context.Context, userID string, id string) error {
	repo := s.repomanager.Items(s.db)
	if err := repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.Wrap(common.KindNotFound, common.CodeNotFound, "item not found", err)
		}
		return common.Wrap(common.KindPersistence, common.CodePersistence, "error deleting item", err)
	}
	return nil
}
