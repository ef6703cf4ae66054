package fee

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusOverdue    = "Overdue"
	StatusNotOverdue = "Not overdue"

	// firstTierDays is how many overdue days accrue at the lower rate
	// before the daily rate doubles.
	firstTierDays = 7
)

var (
	firstTierRate  = decimal.NewFromFloat(0.50)
	secondTierRate = decimal.NewFromFloat(1.00)

	// MaxFee caps the total late fee per book, per borrow.
	MaxFee = decimal.NewFromFloat(15.00)
)

// Quote is the accrued late fee for one borrow record at a point in time.
// It is derived on demand and never persisted.
type Quote struct {
	Amount      decimal.Decimal
	DaysOverdue int
	Status      string
}

func ZeroQuote(status string) Quote {
	return Quote{Amount: decimal.Zero.Round(2), Status: status}
}

// Calculate produces the fee owed for a record due at dueDate as of now.
// The first 7 overdue days accrue at $0.50/day, every day after at
// $1.00/day, capped at $15.00. Amounts are rounded to cents.
func Calculate(dueDate, now time.Time) Quote {
	days := DaysOverdue(dueDate, now)
	if days <= 0 {
		return Quote{Amount: decimal.Zero.Round(2), DaysOverdue: days, Status: StatusNotOverdue}
	}

	firstTier := decimal.NewFromInt(int64(min(days, firstTierDays))).Mul(firstTierRate)
	secondTier := decimal.NewFromInt(int64(max(days-firstTierDays, 0))).Mul(secondTierRate)

	amount := firstTier.Add(secondTier)
	if amount.GreaterThan(MaxFee) {
		amount = MaxFee
	}

	return Quote{Amount: amount.Round(2), DaysOverdue: days, Status: StatusOverdue}
}

// DaysOverdue counts whole calendar days between now and dueDate, never
// negative. Time of day is ignored on both sides.
func DaysOverdue(dueDate, now time.Time) int {
	days := int(toDate(now).Sub(toDate(dueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func toDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
