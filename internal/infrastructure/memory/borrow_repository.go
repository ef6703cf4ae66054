package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/rowanvale/librarysvc/internal/domain/borrowing"
)

// BorrowRepository is the in-memory borrow-record store. Records keep
// insertion order so history reads back chronologically.
type BorrowRepository struct {
	mu      sync.RWMutex
	records []*domain.Record
}

func NewBorrowRepository() *BorrowRepository {
	return &BorrowRepository{}
}

func (r *BorrowRepository) Insert(ctx context.Context, record *domain.Record) error {
	_ = ctx
	if record == nil || record.PatronID == "" || record.BookID == "" {
		return fmt.Errorf("borrow repository: patron id and book id are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record.Clone())
	return nil
}

func (r *BorrowRepository) MarkReturned(ctx context.Context, patronID, bookID string, returnedAt time.Time) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.records {
		if record.PatronID == patronID && record.BookID == bookID && record.Active() {
			return record.MarkReturned(returnedAt)
		}
	}
	return domain.ErrNoActiveBorrow
}

func (r *BorrowRepository) CountActive(ctx context.Context, patronID string) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, record := range r.records {
		if record.PatronID == patronID && record.Active() {
			count++
		}
	}
	return count, nil
}

func (r *BorrowRepository) ListActive(ctx context.Context, patronID string) ([]*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*domain.Record
	for _, record := range r.records {
		if record.PatronID == patronID && record.Active() {
			active = append(active, record.Clone())
		}
	}
	return active, nil
}

func (r *BorrowRepository) ListByPatron(ctx context.Context, patronID string) ([]*domain.Record, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Record
	for _, record := range r.records {
		if record.PatronID == patronID {
			all = append(all, record.Clone())
		}
	}
	return all, nil
}
