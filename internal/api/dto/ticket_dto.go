package dto

import (
	"time"

	"github.com/melee45/queueing-system/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Category string `json:"category"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the wire shape of a ticket. Display carries the
// "PREFIX-NUMBER" label kiosk screens render.
type TicketResponse struct {
	ID        string    `json:"id"`
	Number    int64     `json:"number"`
	Prefix    string    `json:"prefix"`
	Category  string    `json:"category"`
	Display   string    `json:"display"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicketResponseFrom maps a domain ticket.
func TicketResponseFrom(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		Number:    t.Number,
		Prefix:    t.Prefix,
		Category:  t.Category,
		Display:   t.Display(),
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// CategoryResponse is one entry of the category directory.
type CategoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// CategoryResponseFrom maps a domain category.
func CategoryResponseFrom(c domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Prefix: c.Prefix}
}
