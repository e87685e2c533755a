package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/server/models"
	"github.com/dmitrijs2005/myrecipe/internal/server/services"
	"github.com/gin-gonic/gin"
)

type itemRequest struct {
	IngredientName string    `json:"ingredientName"`
	Quantity       int       `json:"quantity"`
	Unit           string    `json:"unit"`
	ExpirationDate time.Time `json:"expirationDate"`
}

type itemResponse struct {
	ID             string    `json:"id"`
	IngredientName string    `json:"ingredientName"`
	Quantity       int       `json:"quantity"`
	Unit           string    `json:"unit"`
	ExpirationDate time.Time `json:"expirationDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toItemResponse(item *models.RefrigeratorItem) itemResponse {
	return itemResponse{
		ID:             item.ID,
		IngredientName: item.IngredientName,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		ExpirationDate: item.ExpirationDate,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
}

func (r *itemRequest) toInput() *services.ItemInput {
	return &services.ItemInput{
		IngredientName: r.IngredientName,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		ExpirationDate: r.ExpirationDate,
	}
}

func (s *HTTPServer) handleListItems(c *gin.Context) {
	p, _ := principalFrom(c)

	list, err := s.items.List(c.Request.Context(), p.UserID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result := make([]itemResponse, 0, len(list))
	for _, item := range list {
		result = append(result, toItemResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

func (s *HTTPServer) handleAddItem(c *gin.Context) {
	p, _ := principalFrom(c)

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidPayload(err))
		return
	}

	item, err := s.items.Add(c.Request.Context(), p.UserID, req.toInput())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toItemResponse(item))
}

func (s *HTTPServer) handleUpdateItem(c *gin.Context) {
	p, _ := principalFrom(c)

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, invalidPayload(err))
		return
	}

	item, err := s.items.Update(c.Request.Context(), p.UserID, c.Param("id"), req.toInput())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toItemResponse(item))
}

func (s *HTTPServer) handleDeleteItem(c *gin.Context) {
	p, _ := principalFrom(c)

	if err := s.items.Remove(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
