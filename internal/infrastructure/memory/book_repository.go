package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/rowanvale/librarysvc/internal/domain/catalog"
)

// BookRepository is the in-memory catalog store. Values are cloned on the
// way in and out so callers never share entity pointers with the store.
type BookRepository struct {
	mu     sync.RWMutex
	books  map[string]*domain.Book
	byISBN map[string]string
}

func NewBookRepository() *BookRepository {
	return &BookRepository{
		books:  make(map[string]*domain.Book),
		byISBN: make(map[string]string),
	}
}

func (r *BookRepository) Insert(ctx context.Context, book *domain.Book) error {
	_ = ctx
	if book == nil || book.ID == "" {
		return fmt.Errorf("book repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[book.ID]; exists {
		return fmt.Errorf("book repository: duplicate id %s", book.ID)
	}
	if _, exists := r.byISBN[book.ISBN]; exists {
		return domain.ErrDuplicateISBN
	}

	r.books[book.ID] = book.Clone()
	r.byISBN[book.ISBN] = book.ID
	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return book.Clone(), nil
}

func (r *BookRepository) FindByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byISBN[isbn]
	if !ok {
		return nil, domain.ErrNotFound
	}
	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return book.Clone(), nil
}

func (r *BookRepository) List(ctx context.Context) ([]*domain.Book, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	books := make([]*domain.Book, 0, len(r.books))
	for _, book := range r.books {
		books = append(books, book.Clone())
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (r *BookRepository) AdjustAvailability(ctx context.Context, id string, delta int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok {
		return domain.ErrNotFound
	}
	return book.AdjustAvailability(delta)
}
