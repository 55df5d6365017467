package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusWaiting TicketStatus = "waiting"
	TicketStatusServed  TicketStatus = "served"
	TicketStatusSkipped TicketStatus = "skipped"
)

// Ticket is a single issued service number. Number is unique and gap-free
// within its prefix stream.
type Ticket struct {
	ID        string       `json:"id"`
	Number    int64        `json:"number"`
	Prefix    string       `json:"prefix"`
	Category  string       `json:"category"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Display returns the label shown on kiosk screens, e.g. "CS-12".
func (t Ticket) Display() string {
	return fmt.Sprintf("%s-%d", t.Prefix, t.Number)
}

// ValidStatus reports whether s is a known ticket status.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusWaiting, TicketStatusServed, TicketStatusSkipped:
		return true
	}
	return false
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusWaiting: {TicketStatusServed, TicketStatusSkipped},
	TicketStatusServed:  {},
	TicketStatusSkipped: {},
}

// CanTransition reports whether a ticket may move from current to next.
// served and skipped are terminal.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition out of s is possible.
func IsTerminal(s TicketStatus) bool {
	return ValidStatus(s) && len(allowedTransitions[s]) == 0
}
