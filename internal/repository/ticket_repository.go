package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/melee45/queueing-system/internal/domain"
	"github.com/melee45/queueing-system/internal/sequence"
)

// TicketRepository encapsulates ticket persistence. Create assigns the
// number and inserts the row as one atomic unit; UpdateStatusFromWaiting is
// a compare-and-set so racing updates on one ticket serialize.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateStatusFromWaiting(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)
	Latest(ctx context.Context, prefix string) (*domain.Ticket, error)
	List(ctx context.Context, prefix string, status domain.TicketStatus) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool      *pgxpool.Pool
	allocator *sequence.Postgres
}

// NewTicketRepository instantiates the postgres repository.
func NewTicketRepository(pool *pgxpool.Pool, allocator *sequence.Postgres) TicketRepository {
	return &ticketRepository{pool: pool, allocator: allocator}
}

const ticketColumns = `id, number, prefix, category, status, created_at, updated_at`

// Create allocates the next number for the ticket's prefix and inserts the
// row in one transaction. Either both commit or neither does, so no number
// is ever consumed without a matching record. Transient serialization
// conflicts retry the whole transaction within the allocator's budget.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	var lastErr error
	for attempt := 0; attempt < sequence.MaxAttempts; attempt++ {
		err := r.createOnce(ctx, ticket)
		if err == nil {
			return nil
		}
		if !sequence.Retryable(err) {
			return err
		}
		lastErr = err
	}
	return errors.Join(domain.ErrUnavailable, lastErr)
}

func (r *ticketRepository) createOnce(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, prefix, category, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	number, err := r.allocator.NextTx(ctx, tx, ticket.Prefix)
	if err != nil {
		return err
	}

	ticket.Number = number
	if err := tx.QueryRow(ctx, query,
		ticket.Number,
		ticket.Prefix,
		ticket.Category,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatusFromWaiting moves the ticket out of waiting. The WHERE clause
// on the current status makes the second of two racing updates miss: it
// reports ErrInvalidTransition instead of silently overwriting a terminal
// state.
func (r *ticketRepository) UpdateStatusFromWaiting(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING ` + ticketColumns
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, status, id, domain.TicketStatusWaiting), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	return &ticket, nil
}

// Latest returns the most recently created ticket, optionally filtered by
// prefix. Ties on created_at break by id for determinism. Returns nil when
// the store is empty.
func (r *ticketRepository) Latest(ctx context.Context, prefix string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC, id DESC LIMIT 1`
	args := []any{}
	if prefix != "" {
		query = `SELECT ` + ticketColumns + ` FROM tickets WHERE prefix=$1 ORDER BY created_at DESC, id DESC LIMIT 1`
		args = append(args, prefix)
	}

	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...), &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// List returns tickets oldest first, optionally filtered by prefix and
// status. Staff consoles read the waiting queue through this.
func (r *ticketRepository) List(ctx context.Context, prefix string, status domain.TicketStatus) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var (
		conds []string
		args  []any
	)
	if prefix != "" {
		args = append(args, prefix)
		conds = append(conds, fmt.Sprintf("prefix=$%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Prefix,
			&ticket.Category,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Prefix,
		&ticket.Category,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
