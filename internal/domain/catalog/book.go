package catalog

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength  = 200
	MaxAuthorLength = 100
	ISBNLength      = 13
)

var (
	ErrNotFound          = errors.New("catalog: book not found")
	ErrTitleRequired     = errors.New("catalog: title is required")
	ErrTitleTooLong      = errors.New("catalog: title must be at most 200 characters")
	ErrAuthorRequired    = errors.New("catalog: author is required")
	ErrAuthorTooLong     = errors.New("catalog: author must be at most 100 characters")
	ErrInvalidISBN       = errors.New("catalog: isbn must be exactly 13 digits")
	ErrInvalidCopies     = errors.New("catalog: total copies must be a positive integer")
	ErrDuplicateISBN     = errors.New("catalog: a book with this isbn already exists")
	ErrNoCopiesAvailable = errors.New("catalog: no copies of this book are available")
	ErrCopiesExceedTotal = errors.New("catalog: available copies cannot exceed total copies")
)

type Book struct {
	ID              string
	Title           string
	Author          string
	ISBN            string
	TotalCopies     int
	AvailableCopies int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New validates the catalog fields and builds a Book with every copy
// available. Title and author are trimmed before length checks.
func New(id, title, author, isbn string, totalCopies int) (*Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if author == "" {
		return nil, ErrAuthorRequired
	}
	if utf8.RuneCountInString(author) > MaxAuthorLength {
		return nil, ErrAuthorTooLong
	}
	if !ValidISBN(isbn) {
		return nil, ErrInvalidISBN
	}
	if totalCopies <= 0 {
		return nil, ErrInvalidCopies
	}

	now := time.Now().UTC()
	return &Book{
		ID:              id,
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ValidISBN reports whether s is exactly 13 ASCII digits.
func ValidISBN(s string) bool {
	if len(s) != ISBNLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AdjustAvailability applies a signed delta to the available count,
// keeping it within [0, TotalCopies].
func (b *Book) AdjustAvailability(delta int) error {
	next := b.AvailableCopies + delta
	if next < 0 {
		return ErrNoCopiesAvailable
	}
	if next > b.TotalCopies {
		return ErrCopiesExceedTotal
	}
	b.AvailableCopies = next
	b.touch()
	return nil
}

func (b *Book) touch() {
	b.UpdatedAt = time.Now().UTC()
}

func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}
