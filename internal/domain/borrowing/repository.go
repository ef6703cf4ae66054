package borrowing

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, record *Record) error
	// MarkReturned sets the return date on the patron's active record for
	// the book. ErrNoActiveBorrow when no such record exists.
	MarkReturned(ctx context.Context, patronID, bookID string, returnedAt time.Time) error
	CountActive(ctx context.Context, patronID string) (int, error)
	ListActive(ctx context.Context, patronID string) ([]*Record, error)
	// ListByPatron returns the patron's full borrow history, returned
	// records included, in insertion order.
	ListByPatron(ctx context.Context, patronID string) ([]*Record, error)
}
