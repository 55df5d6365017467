package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/melee45/queueing-system/internal/domain"
	"github.com/melee45/queueing-system/internal/notifier"
	"github.com/melee45/queueing-system/internal/observability"
	"github.com/melee45/queueing-system/internal/repository"
)

// TicketService is the ticket store: it issues tickets, validates and
// applies status transitions, and publishes every committed change.
type TicketService struct {
	categories repository.CategoryRepository
	tickets    repository.TicketRepository
	publisher  notifier.Publisher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Dependencies bundles collaborators for the ticket service.
type Dependencies struct {
	CategoryRepo repository.CategoryRepository
	TicketRepo   repository.TicketRepository
	Publisher    notifier.Publisher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies) *TicketService {
	return &TicketService{
		categories: deps.CategoryRepo,
		tickets:    deps.TicketRepo,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Create issues the next ticket for a category. The caller identifies the
// category by name; the category's prefix is denormalized onto the ticket
// at creation. Retries of a timed-out call are not deduplicated here.
func (s *TicketService) Create(ctx context.Context, categoryName string) (*domain.Ticket, error) {
	category, err := s.categories.GetByName(ctx, strings.TrimSpace(categoryName))
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Prefix:   category.Prefix,
		Category: category.Name,
		Status:   domain.TicketStatusWaiting,
	}
	if err := s.createWithConflictRetry(ctx, ticket); err != nil {
		return nil, err
	}

	s.metrics.RecordTicketIssued(ticket.Prefix)
	s.publish(notifier.EventTicketCreated, *ticket)
	return ticket, nil
}

// createWithConflictRetry retries a duplicate (prefix, number) exactly once.
// The allocator makes that duplicate unreachable, so hitting it means an
// invariant broke somewhere; the retry is a safety net, not a code path.
func (s *TicketService) createWithConflictRetry(ctx context.Context, ticket *domain.Ticket) error {
	err := s.tickets.Create(ctx, ticket)
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}

	s.logger.Error("ticket number collision, retrying once",
		zap.String("prefix", ticket.Prefix),
		zap.Int64("number", ticket.Number))

	ticket.ID = ""
	ticket.Number = 0
	return s.tickets.Create(ctx, ticket)
}

// UpdateStatus moves a ticket out of waiting. Of two racing updates on the
// same ticket exactly one succeeds; the loser gets ErrInvalidTransition.
func (s *TicketService) UpdateStatus(ctx context.Context, id string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(next) {
		return nil, domain.ErrInvalidTransition
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, next) {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.tickets.UpdateStatusFromWaiting(ctx, id, next)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStatusUpdate(string(next))
	s.publish(notifier.EventTicketUpdated, *updated)
	return updated, nil
}

// Latest returns the most recently created ticket, optionally narrowed to
// one prefix. Returns nil when no ticket matches. Displays use this both
// for "now serving" and as the resync path after missed events.
func (s *TicketService) Latest(ctx context.Context, prefix string) (*domain.Ticket, error) {
	return s.tickets.Latest(ctx, strings.TrimSpace(prefix))
}

// Queue lists tickets oldest first, optionally narrowed to one prefix and
// one status. Staff consoles read the waiting queue through this to serve
// or skip entries in arrival order.
func (s *TicketService) Queue(ctx context.Context, prefix string, status domain.TicketStatus) ([]domain.Ticket, error) {
	return s.tickets.List(ctx, strings.TrimSpace(prefix), status)
}

// Categories lists the category directory for kiosk screens.
func (s *TicketService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *TicketService) publish(eventType notifier.EventType, ticket domain.Ticket) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(notifier.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Ticket:     ticket,
		OccurredAt: time.Now(),
	})
}
