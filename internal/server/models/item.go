package models

import "time"

// RefrigeratorItem is an ingredient a user keeps in their refrigerator.
type RefrigeratorItem struct {
	ID             string
	UserID         string
	IngredientName string
	Quantity       int
	Unit           string
	ExpirationDate time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
