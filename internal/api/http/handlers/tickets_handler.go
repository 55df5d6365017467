package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/melee45/queueing-system/internal/api/dto"
	"github.com/melee45/queueing-system/internal/domain"
	"github.com/melee45/queueing-system/internal/service"
	"github.com/melee45/queueing-system/pkg/util"
)

// TicketsHandler exposes ticket issuance and lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler returns a new handler instance.
func NewTicketsHandler(svc *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: svc}
}

// Create issues the next ticket for a category. A client resubmitting after
// a timeout gets a fresh ticket; deduplication is the caller's concern.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	if strings.TrimSpace(req.Category) == "" {
		return util.NewValidationError("category is required", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), req.Category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TicketResponseFrom(*ticket))
}

// UpdateStatus moves a ticket to served or skipped.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	status := domain.TicketStatus(strings.TrimSpace(req.Status))
	if status != domain.TicketStatusServed && status != domain.TicketStatusSkipped {
		return util.NewValidationError("status must be served or skipped", map[string]any{
			"status": req.Status,
		})
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponseFrom(*ticket))
}

// List returns the queue oldest first, optionally filtered by prefix and
// status. A staff console lists status=waiting and works the result top
// down.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	status := domain.TicketStatus(strings.TrimSpace(c.Query("status")))
	if status != "" && !domain.ValidStatus(status) {
		return util.NewValidationError("unknown status filter", map[string]any{
			"status": string(status),
		})
	}

	tickets, err := h.service.Queue(c.UserContext(), c.Query("prefix"), status)
	if err != nil {
		return err
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, dto.TicketResponseFrom(ticket))
	}
	return c.JSON(fiber.Map{"tickets": out})
}

// Latest returns the most recently issued ticket, optionally filtered by
// prefix. Displays poll this as their reconciliation fallback when events
// were dropped.
func (h *TicketsHandler) Latest(c *fiber.Ctx) error {
	ticket, err := h.service.Latest(c.UserContext(), c.Query("prefix"))
	if err != nil {
		return err
	}
	if ticket == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(dto.TicketResponseFrom(*ticket))
}
