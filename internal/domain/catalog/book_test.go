package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validISBN = "9780134190440"

func TestNewValidatesFields(t *testing.T) {
	testCases := []struct {
		name        string
		title       string
		author      string
		isbn        string
		totalCopies int
		expectedErr error
	}{
		{"empty title", "", "Donovan", validISBN, 1, ErrTitleRequired},
		{"whitespace title", "   ", "Donovan", validISBN, 1, ErrTitleRequired},
		{"title too long", strings.Repeat("a", 201), "Donovan", validISBN, 1, ErrTitleTooLong},
		{"multibyte title too long", strings.Repeat("é", 201), "Donovan", validISBN, 1, ErrTitleTooLong},
		{"empty author", "The Go Programming Language", "", validISBN, 1, ErrAuthorRequired},
		{"author too long", "The Go Programming Language", strings.Repeat("a", 101), validISBN, 1, ErrAuthorTooLong},
		{"multibyte author too long", "The Go Programming Language", strings.Repeat("ü", 101), validISBN, 1, ErrAuthorTooLong},
		{"short isbn", "The Go Programming Language", "Donovan", "97801341904", 1, ErrInvalidISBN},
		{"long isbn", "The Go Programming Language", "Donovan", "97801341904401", 1, ErrInvalidISBN},
		{"non-digit isbn", "The Go Programming Language", "Donovan", "97801341904X0", 1, ErrInvalidISBN},
		{"zero copies", "The Go Programming Language", "Donovan", validISBN, 0, ErrInvalidCopies},
		{"negative copies", "The Go Programming Language", "Donovan", validISBN, -3, ErrInvalidCopies},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			book, err := New("b1", tt.title, tt.author, tt.isbn, tt.totalCopies)
			assert.Nil(t, book)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestNewCountsCharactersNotBytes(t *testing.T) {
	// 150 two-byte runes: within the 200-character title bound even
	// though the byte length is 300.
	book, err := New("b1", strings.Repeat("é", 150), strings.Repeat("ü", 60), validISBN, 1)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("é", 150), book.Title)
	assert.Equal(t, strings.Repeat("ü", 60), book.Author)
}

func TestNewTrimsAndStartsFullyAvailable(t *testing.T) {
	book, err := New("b1", "  The Go Programming Language  ", " Donovan ", validISBN, 4)
	require.NoError(t, err)

	assert.Equal(t, "The Go Programming Language", book.Title)
	assert.Equal(t, "Donovan", book.Author)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies)
}

func TestAdjustAvailabilityBounds(t *testing.T) {
	book, err := New("b1", "The Go Programming Language", "Donovan", validISBN, 2)
	require.NoError(t, err)

	require.NoError(t, book.AdjustAvailability(-1))
	require.NoError(t, book.AdjustAvailability(-1))
	assert.Equal(t, 0, book.AvailableCopies)

	assert.ErrorIs(t, book.AdjustAvailability(-1), ErrNoCopiesAvailable)
	assert.Equal(t, 0, book.AvailableCopies)

	require.NoError(t, book.AdjustAvailability(+1))
	require.NoError(t, book.AdjustAvailability(+1))
	assert.ErrorIs(t, book.AdjustAvailability(+1), ErrCopiesExceedTotal)
	assert.Equal(t, 2, book.AvailableCopies)
}

func TestValidISBN(t *testing.T) {
	assert.True(t, ValidISBN("1234567890123"))
	assert.False(t, ValidISBN(""))
	assert.False(t, ValidISBN("123456789012"))
	assert.False(t, ValidISBN("123456789012a"))
	assert.False(t, ValidISBN("123-567890123"))
}
