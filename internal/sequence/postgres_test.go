package sequence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/melee45/queueing-system/internal/domain"
)

type stubRow struct {
	n   int64
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.n
	}
	return nil
}

// scriptedQuerier replays one row per call; the last row repeats once the
// script runs out.
type scriptedQuerier struct {
	rows  []stubRow
	calls int
}

func (q *scriptedQuerier) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	row := q.rows[len(q.rows)-1]
	if q.calls < len(q.rows) {
		row = q.rows[q.calls]
	}
	q.calls++
	return row
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001"}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestPostgresNextRecoversFromTransientConflict(t *testing.T) {
	t.Parallel()

	q := &scriptedQuerier{rows: []stubRow{
		{err: serializationFailure()},
		{n: 7},
	}}
	alloc := &Postgres{db: q}

	n, err := alloc.Next(context.Background(), "CS")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if n != 7 {
		t.Fatalf("allocated %d, want 7", n)
	}
	if q.calls != 2 {
		t.Fatalf("querier called %d times, want 2", q.calls)
	}
}

func TestPostgresNextExhaustsRetriesThenUnavailable(t *testing.T) {
	t.Parallel()

	q := &scriptedQuerier{rows: []stubRow{{err: serializationFailure()}}}
	alloc := &Postgres{db: q}

	_, err := alloc.Next(context.Background(), "CS")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if q.calls != MaxAttempts {
		t.Fatalf("querier called %d times, want %d", q.calls, MaxAttempts)
	}
}

func TestPostgresNextStopsOnNonRetryableError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	q := &scriptedQuerier{rows: []stubRow{{err: boom}}}
	alloc := &Postgres{db: q}

	_, err := alloc.Next(context.Background(), "CS")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the underlying error unchanged", err)
	}
	if errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("non-retryable error must not map to ErrUnavailable")
	}
	if q.calls != 1 {
		t.Fatalf("querier called %d times, want 1", q.calls)
	}
}
