package notifier

import (
	"time"

	"github.com/melee45/queueing-system/internal/domain"
)

// EventType enumerates published ticket change kinds.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketSnapshot EventType = "ticket_snapshot"
)

// TopicAll subscribes to events for every prefix.
const TopicAll = "*"

// Event is one committed ticket change fanned out to subscribers. Seq is
// assigned by the hub and is globally monotonic per process; a subscriber
// that observes a gap should resynchronize via the latest-ticket endpoint.
type Event struct {
	ID         string        `json:"id"`
	Type       EventType     `json:"type"`
	Seq        uint64        `json:"seq"`
	Ticket     domain.Ticket `json:"ticket"`
	OccurredAt time.Time     `json:"occurred_at"`

	// Origin is the relay node the event arrived from; empty for events
	// produced by this process.
	Origin string `json:"origin,omitempty"`
}

// Publisher is the write-path view of the hub.
type Publisher interface {
	Publish(event Event)
}
