package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domborrow "github.com/rowanvale/librarysvc/internal/domain/borrowing"
	domcatalog "github.com/rowanvale/librarysvc/internal/domain/catalog"
	"github.com/rowanvale/librarysvc/internal/domain/fee"
	domain "github.com/rowanvale/librarysvc/internal/domain/payment"
	"github.com/rowanvale/librarysvc/internal/pkg/logging"
	"github.com/rowanvale/librarysvc/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "payment-service"
	opCharge   = "pay_late_fees"
	opRefund   = "refund"

	outcomeSuccess  = "success"
	outcomeDeclined = "declined"
	outcomeFault    = "gateway_fault"
	outcomeError    = "error"
)

var ErrRepository = errors.New("payment: repository failure")

// FeeSource recomputes the fee owed for a patron's active borrow. The
// orchestrator never trusts a caller-supplied amount.
type FeeSource interface {
	ActiveFeeQuote(ctx context.Context, patronID, bookID string) (fee.Quote, error)
}

// Service bridges the fee calculator with the external payment gateway.
// The gateway is fault-isolated: any error it returns is converted into a
// failed result at this boundary and never propagated to the caller.
type Service struct {
	books   domcatalog.Repository
	fees    FeeSource
	gateway domain.Gateway
	met     *metrics.Operations
	tracer  trace.Tracer
}

func NewService(books domcatalog.Repository, fees FeeSource, gateway domain.Gateway, met *metrics.Operations) *Service {
	return &Service{
		books:   books,
		fees:    fees,
		gateway: gateway,
		met:     met,
		tracer:  otel.Tracer(tracerName),
	}
}

type PayLateFeesInput struct {
	PatronID string
	BookID   string
}

type PayLateFeesResult struct {
	Success       bool
	TransactionID string
	Amount        decimal.Decimal
	Message       string

	// Fault distinguishes a gateway transport failure from a decline.
	// Only meaningful when Success is false.
	Fault bool
}

// PayLateFees recomputes the late fee for the patron's active borrow and
// charges it through the gateway. Declines and gateway faults both come
// back as unsuccessful results; only validation and lookup failures are
// returned as errors.
func (s *Service) PayLateFees(ctx context.Context, input PayLateFeesInput) (_ *PayLateFeesResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "payment_service"),
		zap.String("patron_id", input.PatronID),
		zap.String("book_id", input.BookID),
	)

	ctx, span := s.tracer.Start(ctx, "PayLateFees",
		trace.WithAttributes(
			attribute.String("library.patron_id", input.PatronID),
			attribute.String("library.book_id", input.BookID),
		),
	)
	start := time.Now()
	outcome := outcomeSuccess
	defer func() { s.finish(span, opCharge, start, &outcome, err) }()

	if !domborrow.ValidPatronID(input.PatronID) {
		outcome = outcomeError
		return nil, domborrow.ErrInvalidPatronID
	}

	quote, err := s.fees.ActiveFeeQuote(ctx, input.PatronID, input.BookID)
	switch {
	case err == nil:
	case errors.Is(err, domcatalog.ErrNotFound):
		outcome = outcomeError
		return nil, domcatalog.ErrNotFound
	case errors.Is(err, domborrow.ErrNoActiveBorrow), errors.Is(err, domborrow.ErrCorruptRecord):
		// Nothing chargeable without a priced active record.
		outcome = outcomeError
		return nil, domain.ErrNoFee
	default:
		outcome = outcomeError
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if !quote.Amount.IsPositive() {
		outcome = outcomeError
		return nil, domain.ErrNoFee
	}

	book, err := s.books.FindByID(ctx, input.BookID)
	if err != nil {
		outcome = outcomeError
		if errors.Is(err, domcatalog.ErrNotFound) {
			return nil, domcatalog.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	description := fmt.Sprintf("Late fees for '%s'", book.Title)
	result, gwErr := s.gateway.Charge(ctx, input.PatronID, quote.Amount, description)
	if gwErr != nil {
		outcome = outcomeFault
		logger.Error("payment_gateway_fault", zap.Error(gwErr))
		return &PayLateFeesResult{
			Success: false,
			Fault:   true,
			Amount:  quote.Amount,
			Message: fmt.Sprintf("Payment processing error: %s", gwErr.Error()),
		}, nil
	}

	if !result.Success {
		outcome = outcomeDeclined
		logger.Info("payment_declined", zap.String("reason", result.Message))
		return &PayLateFeesResult{
			Success: false,
			Amount:  quote.Amount,
			Message: fmt.Sprintf("Payment failed: %s", result.Message),
		}, nil
	}

	logger.Info("payment_success",
		zap.String("transaction_id", result.TransactionID),
		zap.String("amount", quote.Amount.StringFixed(2)),
	)
	return &PayLateFeesResult{
		Success:       true,
		TransactionID: result.TransactionID,
		Amount:        quote.Amount,
		Message:       fmt.Sprintf("Payment successful! %s", result.Message),
	}, nil
}

type RefundInput struct {
	TransactionID string
	Amount        decimal.Decimal
}

type RefundResult struct {
	Success bool
	Message string

	// Fault distinguishes a gateway transport failure from a decline.
	// Only meaningful when Success is false.
	Fault bool
}

// Refund sends a refund for a previous late-fee charge through the gateway.
// The amount must be positive and no larger than the maximum possible
// per-book fee; out-of-range requests never reach the gateway.
func (s *Service) Refund(ctx context.Context, input RefundInput) (_ *RefundResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "payment_service"),
		zap.String("transaction_id", input.TransactionID),
	)

	ctx, span := s.tracer.Start(ctx, "Refund",
		trace.WithAttributes(attribute.String("library.transaction_id", input.TransactionID)),
	)
	start := time.Now()
	outcome := outcomeSuccess
	defer func() { s.finish(span, opRefund, start, &outcome, err) }()

	if !domain.ValidTransactionID(input.TransactionID) {
		outcome = outcomeError
		return nil, domain.ErrInvalidTransactionID
	}
	if !input.Amount.IsPositive() {
		outcome = outcomeError
		return nil, domain.ErrInvalidAmount
	}
	if input.Amount.GreaterThan(domain.MaxRefund) {
		outcome = outcomeError
		return nil, domain.ErrRefundTooLarge
	}

	result, gwErr := s.gateway.Refund(ctx, input.TransactionID, input.Amount)
	if gwErr != nil {
		outcome = outcomeFault
		logger.Error("refund_gateway_fault", zap.Error(gwErr))
		return &RefundResult{
			Success: false,
			Fault:   true,
			Message: fmt.Sprintf("Refund processing error: %s", gwErr.Error()),
		}, nil
	}

	if !result.Success {
		outcome = outcomeDeclined
		logger.Info("refund_declined", zap.String("reason", result.Message))
		return &RefundResult{
			Success: false,
			Message: fmt.Sprintf("Refund failed: %s", result.Message),
		}, nil
	}

	logger.Info("refund_success", zap.String("amount", input.Amount.StringFixed(2)))
	return &RefundResult{Success: true, Message: result.Message}, nil
}

// Verify looks up the state of a previous transaction. Gateway faults are
// converted to an "unknown" result, consistent with the charge and refund
// isolation contract.
func (s *Service) Verify(ctx context.Context, transactionID string) domain.VerifyResult {
	result, err := s.gateway.Verify(ctx, transactionID)
	if err != nil {
		logging.FromContext(ctx).Error("verify_gateway_fault",
			zap.String("component", "payment_service"),
			zap.String("transaction_id", transactionID),
			zap.Error(err),
		)
		return domain.VerifyResult{
			TransactionID: transactionID,
			State:         "unknown",
			Message:       fmt.Sprintf("Verification error: %s", err.Error()),
		}
	}
	return result
}

func (s *Service) finish(span trace.Span, operation string, start time.Time, outcome *string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, *outcome)
	}
	span.End()
	s.met.Observe(operation, *outcome, time.Since(start).Seconds())
}
