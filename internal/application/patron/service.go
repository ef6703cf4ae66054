package patron

import (
	"context"
	"time"

	domborrow "github.com/rowanvale/librarysvc/internal/domain/borrowing"
	domcatalog "github.com/rowanvale/librarysvc/internal/domain/catalog"
	"github.com/rowanvale/librarysvc/internal/domain/fee"
	"github.com/rowanvale/librarysvc/internal/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"

	StatusOK              = "ok"
	StatusInvalidPatronID = "Invalid patron ID"
	StatusUnavailable     = "Unable to build patron report"
)

// Service aggregates a patron's outstanding borrows, accrued fees, and full
// borrow history into a single status view.
type Service struct {
	books   domcatalog.Repository
	records domborrow.Repository
	now     func() time.Time
}

func NewService(books domcatalog.Repository, records domborrow.Repository) *Service {
	return &Service{
		books:   books,
		records: records,
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type ActiveBorrow struct {
	BookID      string
	Title       string
	DueDate     string
	OverdueDays int
	AccruedFee  decimal.Decimal
}

type HistoryEntry struct {
	BookID     string
	Title      string
	BorrowDate *string
	DueDate    *string
	ReturnDate *string
}

type StatusReport struct {
	PatronID          string
	CurrentlyBorrowed []ActiveBorrow
	TotalLateFees     decimal.Decimal
	BorrowedCount     int
	History           []HistoryEntry
	Status            string
}

// StatusReport builds the patron's status view. A malformed patron id
// yields a zero-valued report tagged with an error status. Active records
// with a missing due date are skipped rather than failing the whole report.
func (s *Service) StatusReport(ctx context.Context, patronID string) *StatusReport {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "patron_service"),
		zap.String("patron_id", patronID),
	)

	if !domborrow.ValidPatronID(patronID) {
		return s.emptyReport(patronID, StatusInvalidPatronID)
	}

	active, err := s.records.ListActive(ctx, patronID)
	if err != nil {
		logger.Error("active_borrows_lookup_failed", zap.Error(err))
		return s.emptyReport(patronID, StatusUnavailable)
	}

	now := s.now()
	current := make([]ActiveBorrow, 0, len(active))
	total := decimal.Zero
	for _, record := range active {
		if record.DueDate.IsZero() {
			continue
		}
		quote := fee.Calculate(record.DueDate, now)
		total = total.Add(quote.Amount)
		current = append(current, ActiveBorrow{
			BookID:      record.BookID,
			Title:       s.titleOf(ctx, record.BookID),
			DueDate:     record.DueDate.Format(dateLayout),
			OverdueDays: quote.DaysOverdue,
			AccruedFee:  quote.Amount,
		})
	}

	all, err := s.records.ListByPatron(ctx, patronID)
	if err != nil {
		logger.Error("borrow_history_lookup_failed", zap.Error(err))
		return s.emptyReport(patronID, StatusUnavailable)
	}
	history := make([]HistoryEntry, 0, len(all))
	for _, record := range all {
		history = append(history, HistoryEntry{
			BookID:     record.BookID,
			Title:      s.titleOf(ctx, record.BookID),
			BorrowDate: formatDate(record.BorrowDate),
			DueDate:    formatDate(record.DueDate),
			ReturnDate: formatDatePtr(record.ReturnDate),
		})
	}

	return &StatusReport{
		PatronID:          patronID,
		CurrentlyBorrowed: current,
		TotalLateFees:     total.Round(2),
		BorrowedCount:     len(active),
		History:           history,
		Status:            StatusOK,
	}
}

func (s *Service) emptyReport(patronID, status string) *StatusReport {
	return &StatusReport{
		PatronID:          patronID,
		CurrentlyBorrowed: []ActiveBorrow{},
		TotalLateFees:     decimal.Zero.Round(2),
		History:           []HistoryEntry{},
		Status:            status,
	}
}

func (s *Service) titleOf(ctx context.Context, bookID string) string {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return ""
	}
	return book.Title
}

func formatDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}
