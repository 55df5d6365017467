package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/melee45/queueing-system/internal/domain"
)

// MaxAttempts bounds internal retries on transient write conflicts.
const MaxAttempts = 5

// The upsert is a single atomic increment-and-fetch: two concurrent callers
// for the same prefix serialize on the counter row and can never observe the
// same value. Never derive the next number from a scan of existing tickets.
const nextQuery = `
        INSERT INTO ticket_counters (prefix, last_value)
        VALUES ($1, 1)
        ON CONFLICT (prefix) DO UPDATE SET last_value = ticket_counters.last_value + 1
        RETURNING last_value`

// rowQuerier is the slice of pgxpool.Pool the allocator needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres allocates numbers from the ticket_counters table. Counters for
// different prefixes live in independent rows, so contention on one prefix
// never delays another.
type Postgres struct {
	db rowQuerier
}

// NewPostgres builds the allocator over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// Next allocates outside any caller transaction, retrying transient
// serialization conflicts up to MaxAttempts before reporting ErrUnavailable.
func (p *Postgres) Next(ctx context.Context, prefix string) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		var n int64
		err := p.db.QueryRow(ctx, nextQuery, prefix).Scan(&n)
		if err == nil {
			return n, nil
		}
		if !Retryable(err) {
			return 0, err
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: allocate %q: %v", domain.ErrUnavailable, prefix, lastErr)
}

// NextTx allocates inside an existing transaction so the number and the
// ticket row commit or roll back together. Retrying is the enclosing
// transaction's responsibility: a serialization failure aborts the whole tx.
func (p *Postgres) NextTx(ctx context.Context, tx pgx.Tx, prefix string) (int64, error) {
	var n int64
	if err := tx.QueryRow(ctx, nextQuery, prefix).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Retryable reports whether err is a transient write conflict worth another
// attempt (serialization failure or deadlock).
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
