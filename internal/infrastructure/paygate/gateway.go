package paygate

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/rowanvale/librarysvc/internal/domain/payment"

	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.payment-gateway.example.com"

// chargeLimit is the processor's documented per-charge ceiling.
var chargeLimit = decimal.NewFromInt(1000)

// Gateway is the production implementation of the payment port. It stands
// in for the external processor API and reproduces its documented contract:
// charge limits, "txn_"-prefixed transaction ids, and refund id minting.
// A real deployment would swap the simulated decisions for HTTP calls
// against BaseURL without touching the interface.
type Gateway struct {
	apiKey  string
	baseURL string
	now     func() time.Time
}

func New(apiKey string) *Gateway {
	return &Gateway{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for transaction id minting. Intended
// for tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

func (g *Gateway) Charge(ctx context.Context, patronID string, amount decimal.Decimal, description string) (domain.ChargeResult, error) {
	_ = ctx
	_ = description

	if !amount.IsPositive() {
		return domain.ChargeResult{Message: "Invalid amount: must be greater than 0"}, nil
	}
	if amount.GreaterThan(chargeLimit) {
		return domain.ChargeResult{Message: "Payment declined: amount exceeds limit"}, nil
	}
	if len(patronID) != 6 {
		return domain.ChargeResult{Message: "Invalid patron ID format"}, nil
	}

	transactionID := fmt.Sprintf("%s%s_%d", domain.TransactionIDPrefix, patronID, g.now().Unix())
	return domain.ChargeResult{
		Success:       true,
		TransactionID: transactionID,
		Message:       fmt.Sprintf("Payment of $%s processed successfully", amount.StringFixed(2)),
	}, nil
}

func (g *Gateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (domain.RefundResult, error) {
	_ = ctx

	if !strings.HasPrefix(transactionID, domain.TransactionIDPrefix) {
		return domain.RefundResult{Message: "Invalid transaction ID"}, nil
	}
	if !amount.IsPositive() {
		return domain.RefundResult{Message: "Invalid refund amount"}, nil
	}

	refundID := fmt.Sprintf("refund_%s_%d", transactionID, g.now().Unix())
	return domain.RefundResult{
		Success: true,
		Message: fmt.Sprintf("Refund of $%s processed successfully. Refund ID: %s", amount.StringFixed(2), refundID),
	}, nil
}

func (g *Gateway) Verify(ctx context.Context, transactionID string) (domain.VerifyResult, error) {
	_ = ctx

	if !strings.HasPrefix(transactionID, domain.TransactionIDPrefix) {
		return domain.VerifyResult{
			TransactionID: transactionID,
			State:         "not_found",
			Message:       "Transaction not found",
		}, nil
	}

	return domain.VerifyResult{
		TransactionID: transactionID,
		State:         "completed",
		CheckedAt:     g.now(),
		Message:       "Transaction completed",
	}, nil
}
