package borrowing

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/rowanvale/librarysvc/internal/domain/borrowing"
	domcatalog "github.com/rowanvale/librarysvc/internal/domain/catalog"
	"github.com/rowanvale/librarysvc/internal/domain/fee"
	"github.com/rowanvale/librarysvc/internal/pkg/logging"
	"github.com/rowanvale/librarysvc/internal/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName     = "borrowing-service"
	opBorrow       = "borrow"
	opReturn       = "return"
	dateLayout     = "2006-01-02"
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// ErrRepository marks a persistence write or read that did not take effect.
// A partial write that already landed is not rolled back.
var ErrRepository = errors.New("borrowing: repository failure")

// Service orchestrates the borrow and return lifecycle against the catalog
// and borrow-record repositories. Each operation runs to completion
// synchronously; the two persistence writes per operation are sequential
// and a failure of the second is surfaced without compensating the first.
type Service struct {
	books   domcatalog.Repository
	records domain.Repository
	met     *metrics.Operations
	tracer  trace.Tracer

	// now is the clock used for borrow dates and overdue comparison.
	now func() time.Time
}

func NewService(books domcatalog.Repository, records domain.Repository, met *metrics.Operations) *Service {
	return &Service{
		books:   books,
		records: records,
		met:     met,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type BorrowInput struct {
	PatronID string
	BookID   string
}

type BorrowResult struct {
	DueDate time.Time
	Message string
}

// Borrow checks availability and the active-borrow cap, then creates a
// record due in 14 days and decrements the book's available copies.
func (s *Service) Borrow(ctx context.Context, input BorrowInput) (_ *BorrowResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "borrowing_service"),
		zap.String("patron_id", input.PatronID),
		zap.String("book_id", input.BookID),
	)

	ctx, span := s.tracer.Start(ctx, "Borrow",
		trace.WithAttributes(
			attribute.String("library.patron_id", input.PatronID),
			attribute.String("library.book_id", input.BookID),
		),
	)
	start := s.now()
	defer func() { s.finish(span, opBorrow, start, err) }()

	if !domain.ValidPatronID(input.PatronID) {
		return nil, domain.ErrInvalidPatronID
	}

	book, err := s.books.FindByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return nil, domcatalog.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if book.AvailableCopies <= 0 {
		return nil, domcatalog.ErrNoCopiesAvailable
	}

	active, err := s.records.CountActive(ctx, input.PatronID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if active >= domain.MaxActiveBorrows {
		return nil, domain.ErrLimitExceeded
	}

	record, err := domain.NewRecord(input.PatronID, input.BookID, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.records.Insert(ctx, record); err != nil {
		logger.Error("borrow_record_insert_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if err := s.books.AdjustAvailability(ctx, book.ID, -1); err != nil {
		logger.Error("availability_decrement_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	logger.Info("book_borrowed", zap.Time("due_date", record.DueDate))
	return &BorrowResult{
		DueDate: record.DueDate,
		Message: fmt.Sprintf("Successfully borrowed %q. Due date: %s.", book.Title, record.DueDate.Format(dateLayout)),
	}, nil
}

type ReturnInput struct {
	PatronID string
	BookID   string
}

type ReturnResult struct {
	Quote   fee.Quote
	Message string
}

// Return closes the patron's active record for the book, computes the late
// fee owed as of now, and increments the book's available copies.
func (s *Service) Return(ctx context.Context, input ReturnInput) (_ *ReturnResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "borrowing_service"),
		zap.String("patron_id", input.PatronID),
		zap.String("book_id", input.BookID),
	)

	ctx, span := s.tracer.Start(ctx, "Return",
		trace.WithAttributes(
			attribute.String("library.patron_id", input.PatronID),
			attribute.String("library.book_id", input.BookID),
		),
	)
	start := s.now()
	defer func() { s.finish(span, opReturn, start, err) }()

	if !domain.ValidPatronID(input.PatronID) {
		return nil, domain.ErrInvalidPatronID
	}

	book, err := s.books.FindByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return nil, domcatalog.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	record, err := s.findActive(ctx, input.PatronID, input.BookID)
	if err != nil {
		return nil, err
	}
	if record.DueDate.IsZero() {
		return nil, domain.ErrCorruptRecord
	}

	quote := fee.Calculate(record.DueDate, s.now())

	if err := s.records.MarkReturned(ctx, input.PatronID, input.BookID, s.now()); err != nil {
		if errors.Is(err, domain.ErrNoActiveBorrow) {
			return nil, domain.ErrNoActiveBorrow
		}
		logger.Error("return_update_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if err := s.books.AdjustAvailability(ctx, book.ID, +1); err != nil {
		logger.Error("availability_increment_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	message := fmt.Sprintf("Return processed. %q was returned on time. No late fee.", book.Title)
	if quote.DaysOverdue > 0 && quote.Amount.IsPositive() {
		message = fmt.Sprintf("Return processed. %q was %d day(s) overdue. Late fee: $%s.",
			book.Title, quote.DaysOverdue, quote.Amount.StringFixed(2))
	}

	logger.Info("book_returned",
		zap.Int("days_overdue", quote.DaysOverdue),
		zap.String("late_fee", quote.Amount.StringFixed(2)),
	)
	return &ReturnResult{Quote: quote, Message: message}, nil
}

// ActiveFeeQuote recomputes the late fee for the patron's active borrow of
// the book. It never trusts a caller-supplied amount and is the single fee
// path for both return processing and payment charging.
func (s *Service) ActiveFeeQuote(ctx context.Context, patronID, bookID string) (fee.Quote, error) {
	if !domain.ValidPatronID(patronID) {
		return fee.ZeroQuote(""), domain.ErrInvalidPatronID
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return fee.ZeroQuote(""), domcatalog.ErrNotFound
		}
		return fee.ZeroQuote(""), fmt.Errorf("%w: %w", ErrRepository, err)
	}
	record, err := s.findActive(ctx, patronID, bookID)
	if err != nil {
		return fee.ZeroQuote(""), err
	}
	if record.DueDate.IsZero() {
		return fee.ZeroQuote(""), domain.ErrCorruptRecord
	}
	return fee.Calculate(record.DueDate, s.now()), nil
}

// LateFeeQuote is the report-friendly variant of ActiveFeeQuote: every
// failure becomes a zero-valued quote with an explanatory status instead of
// an error.
func (s *Service) LateFeeQuote(ctx context.Context, patronID, bookID string) fee.Quote {
	quote, err := s.ActiveFeeQuote(ctx, patronID, bookID)
	switch {
	case err == nil:
		return quote
	case errors.Is(err, domain.ErrInvalidPatronID):
		return fee.ZeroQuote("Invalid patron ID")
	case errors.Is(err, domcatalog.ErrNotFound):
		return fee.ZeroQuote("Book not found")
	case errors.Is(err, domain.ErrNoActiveBorrow):
		return fee.ZeroQuote("No active borrow record found for this book")
	case errors.Is(err, domain.ErrCorruptRecord):
		return fee.ZeroQuote("Corrupt borrow record")
	default:
		return fee.ZeroQuote("Unable to calculate late fees")
	}
}

func (s *Service) findActive(ctx context.Context, patronID, bookID string) (*domain.Record, error) {
	active, err := s.records.ListActive(ctx, patronID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	for _, record := range active {
		if record.BookID == bookID {
			return record, nil
		}
	}
	return nil, domain.ErrNoActiveBorrow
}

func (s *Service) finish(span trace.Span, operation string, start time.Time, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "OK")
	}
	span.End()
	s.met.Observe(operation, outcome, s.now().Sub(start).Seconds())
}
