package borrowing

import (
	"errors"
	"time"
)

const (
	// LoanPeriodDays is the fixed loan period: due date = borrow date + 14 days.
	LoanPeriodDays = 14
	// MaxActiveBorrows is the cap on outstanding records per patron. A new
	// borrow is rejected once the patron already holds this many.
	MaxActiveBorrows = 5

	PatronIDLength = 6
)

var (
	ErrInvalidPatronID = errors.New("borrowing: patron id must be exactly 6 digits")
	ErrLimitExceeded   = errors.New("borrowing: maximum borrowing limit of 5 books reached")
	ErrNoActiveBorrow  = errors.New("borrowing: no active borrow record for this book")
	ErrCorruptRecord   = errors.New("borrowing: borrow record is missing its due date")
	ErrAlreadyReturned = errors.New("borrowing: borrow record was already returned")
)

// Record is one borrow of one book by one patron. ReturnDate is nil while
// the borrow is outstanding and is set exactly once on return.
type Record struct {
	PatronID   string
	BookID     string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

func NewRecord(patronID, bookID string, borrowedAt time.Time) (*Record, error) {
	if !ValidPatronID(patronID) {
		return nil, ErrInvalidPatronID
	}
	return &Record{
		PatronID:   patronID,
		BookID:     bookID,
		BorrowDate: borrowedAt,
		DueDate:    borrowedAt.AddDate(0, 0, LoanPeriodDays),
	}, nil
}

// ValidPatronID reports whether s is exactly 6 ASCII digits.
func ValidPatronID(s string) bool {
	if len(s) != PatronIDLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (r *Record) Active() bool {
	return r.ReturnDate == nil
}

func (r *Record) MarkReturned(at time.Time) error {
	if !r.Active() {
		return ErrAlreadyReturned
	}
	t := at
	r.ReturnDate = &t
	return nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ReturnDate != nil {
		t := *r.ReturnDate
		clone.ReturnDate = &t
	}
	return &clone
}
