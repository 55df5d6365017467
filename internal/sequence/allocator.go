package sequence

import "context"

// Allocator hands out the next ticket number for a prefix stream.
// Implementations must be safe for concurrent use and must never return the
// same number twice for one prefix; for a fresh prefix the first number is 1.
type Allocator interface {
	Next(ctx context.Context, prefix string) (int64, error)
}
