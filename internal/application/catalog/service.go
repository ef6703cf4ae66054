package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/rowanvale/librarysvc/internal/domain/catalog"
	"github.com/rowanvale/librarysvc/internal/pkg/logging"
	"go.uber.org/zap"
)

// IDGenerator mints ids for newly cataloged books.
type IDGenerator interface {
	NewID() string
}

const (
	SearchByTitle  = "title"
	SearchByAuthor = "author"
	SearchByISBN   = "isbn"
)

var ErrRepository = errors.New("catalog: repository failure")

type Service struct {
	books       domain.Repository
	idGenerator IDGenerator
}

func NewService(books domain.Repository, idGen IDGenerator) *Service {
	return &Service{
		books:       books,
		idGenerator: idGen,
	}
}

type AddBookInput struct {
	Title       string
	Author      string
	ISBN        string
	TotalCopies int
}

type AddBookResult struct {
	BookID  string
	Message string
}

// AddBook validates the submission and persists a new Book with every copy
// available. A second book with an already-cataloged ISBN is rejected.
func (s *Service) AddBook(ctx context.Context, input AddBookInput) (*AddBookResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	book, err := domain.New(s.idGenerator.NewID(), input.Title, input.Author, input.ISBN, input.TotalCopies)
	if err != nil {
		return nil, err
	}

	if _, err := s.books.FindByISBN(ctx, book.ISBN); err == nil {
		return nil, domain.ErrDuplicateISBN
	} else if !errors.Is(err, domain.ErrNotFound) {
		logger.Error("isbn_lookup_failed", zap.String("isbn", book.ISBN), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	if err := s.books.Insert(ctx, book); err != nil {
		if errors.Is(err, domain.ErrDuplicateISBN) {
			return nil, err
		}
		logger.Error("book_insert_failed", zap.String("isbn", book.ISBN), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logger.Info("book_added",
		zap.String("book_id", book.ID),
		zap.String("isbn", book.ISBN),
		zap.Int("total_copies", book.TotalCopies),
	)
	return &AddBookResult{
		BookID:  book.ID,
		Message: fmt.Sprintf("Book %q has been successfully added to the catalog.", book.Title),
	}, nil
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return books, nil
}

// Search looks up books by title or author substring (case-insensitive) or
// by exact 13-digit ISBN. An unknown search type or a blank term yields an
// empty result rather than an error.
func (s *Service) Search(ctx context.Context, term, searchType string) ([]*domain.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	switch searchType {
	case SearchByISBN:
		if !domain.ValidISBN(term) {
			return nil, nil
		}
		book, err := s.books.FindByISBN(ctx, term)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepository, err)
		}
		return []*domain.Book{book}, nil

	case SearchByTitle, SearchByAuthor:
		all, err := s.books.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRepository, err)
		}
		needle := strings.ToLower(term)
		var matches []*domain.Book
		for _, b := range all {
			haystack := b.Title
			if searchType == SearchByAuthor {
				haystack = b.Author
			}
			if strings.Contains(strings.ToLower(haystack), needle) {
				matches = append(matches, b)
			}
		}
		return matches, nil

	default:
		return nil, nil
	}
}
