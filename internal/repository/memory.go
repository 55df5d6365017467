package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/melee45/queueing-system/internal/domain"
	"github.com/melee45/queueing-system/internal/sequence"
)

// MemoryCategoryRepository serves a fixed category list. Used when no
// database is configured; the directory is seeded from config.
type MemoryCategoryRepository struct {
	categories []domain.Category
	byName     map[string]domain.Category
}

// NewMemoryCategoryRepository builds the directory from the given seed.
func NewMemoryCategoryRepository(categories []domain.Category) *MemoryCategoryRepository {
	byName := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		byName[c.Name] = c
	}
	return &MemoryCategoryRepository{categories: categories, byName: byName}
}

func (r *MemoryCategoryRepository) GetByName(_ context.Context, name string) (*domain.Category, error) {
	category, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &category, nil
}

func (r *MemoryCategoryRepository) List(_ context.Context) ([]domain.Category, error) {
	result := make([]domain.Category, len(r.categories))
	copy(result, r.categories)
	return result, nil
}

// MemoryTicketRepository keeps tickets in process memory. Allocation and
// insertion happen under one lock, which gives the same atomic unit the
// postgres repository gets from its transaction.
type MemoryTicketRepository struct {
	mu        sync.Mutex
	allocator sequence.Allocator
	tickets   map[string]*domain.Ticket
	order     []string
	now       func() time.Time
}

// NewMemoryTicketRepository builds an empty store over the given allocator.
func NewMemoryTicketRepository(allocator sequence.Allocator) *MemoryTicketRepository {
	return &MemoryTicketRepository{
		allocator: allocator,
		tickets:   make(map[string]*domain.Ticket),
		now:       time.Now,
	}
}

func (r *MemoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	number, err := r.allocator.Next(ctx, ticket.Prefix)
	if err != nil {
		return err
	}

	now := r.now()
	ticket.ID = uuid.NewString()
	ticket.Number = number
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	stored := *ticket
	r.tickets[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (r *MemoryTicketRepository) UpdateStatusFromWaiting(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	if ticket.Status != domain.TicketStatusWaiting {
		return nil, domain.ErrInvalidTransition
	}
	ticket.Status = status
	ticket.UpdatedAt = r.now()
	copied := *ticket
	return &copied, nil
}

func (r *MemoryTicketRepository) List(_ context.Context, prefix string, status domain.TicketStatus) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Ticket
	for _, id := range r.order {
		ticket := r.tickets[id]
		if prefix != "" && ticket.Prefix != prefix {
			continue
		}
		if status != "" && ticket.Status != status {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *MemoryTicketRepository) Latest(_ context.Context, prefix string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		ticket := r.tickets[r.order[i]]
		if prefix != "" && ticket.Prefix != prefix {
			continue
		}
		copied := *ticket
		return &copied, nil
	}
	return nil, nil
}
