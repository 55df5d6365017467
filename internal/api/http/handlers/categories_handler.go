package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/melee45/queueing-system/internal/api/dto"
	"github.com/melee45/queueing-system/internal/service"
)

// CategoriesHandler serves the read-only category directory.
type CategoriesHandler struct {
	service *service.TicketService
}

// NewCategoriesHandler returns a new handler instance.
func NewCategoriesHandler(svc *service.TicketService) *CategoriesHandler {
	return &CategoriesHandler{service: svc}
}

// List returns every category a kiosk can issue tickets for.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, dto.CategoryResponseFrom(category))
	}
	return c.JSON(fiber.Map{"categories": out})
}
