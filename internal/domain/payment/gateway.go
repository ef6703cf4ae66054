package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionIDPrefix is the token convention the external processor uses
// for charge transaction ids.
const TransactionIDPrefix = "txn_"

var (
	ErrNoFee                = errors.New("payment: no late fees to pay for this book")
	ErrInvalidTransactionID = errors.New("payment: invalid transaction id")
	ErrInvalidAmount        = errors.New("payment: refund amount must be greater than zero")
	ErrRefundTooLarge       = errors.New("payment: refund amount exceeds the maximum late fee")
)

// MaxRefund is the sanity ceiling on a single refund: the largest fee a
// single borrow can ever accrue.
var MaxRefund = decimal.NewFromFloat(15.00)

// ChargeResult is the processor's answer to a charge attempt. Success false
// means the processor declined; transport faults are reported as errors by
// the Gateway instead.
type ChargeResult struct {
	Success       bool
	TransactionID string
	Message       string
}

type RefundResult struct {
	Success bool
	Message string
}

type VerifyResult struct {
	TransactionID string
	State         string
	Amount        decimal.Decimal
	CheckedAt     time.Time
	Message       string
}

// Gateway is the outbound port for the external payment processor. It is
// treated as untrusted: callers must be prepared for any call to return an
// error and must not let that error escape the operation boundary.
type Gateway interface {
	Charge(ctx context.Context, patronID string, amount decimal.Decimal, description string) (ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (RefundResult, error)
	Verify(ctx context.Context, transactionID string) (VerifyResult, error)
}

// ValidTransactionID reports whether id follows the processor's "txn_"
// token convention.
func ValidTransactionID(id string) bool {
	return id != "" && strings.HasPrefix(id, TransactionIDPrefix)
}
