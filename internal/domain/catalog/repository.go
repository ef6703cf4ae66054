package catalog

import "context"

type Repository interface {
	Insert(ctx context.Context, book *Book) error
	FindByID(ctx context.Context, id string) (*Book, error)
	FindByISBN(ctx context.Context, isbn string) (*Book, error)
	List(ctx context.Context) ([]*Book, error)
	AdjustAvailability(ctx context.Context, id string, delta int) error
}
