package fee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstTierChargesFiftyCentsPerDay(t *testing.T) {
	now := date(2026, time.March, 20)

	for days := 0; days <= 7; days++ {
		quote := Calculate(now.AddDate(0, 0, -days), now)

		assert.Equal(t, days, quote.DaysOverdue)
		expected := float64(days) * 0.50
		amount, _ := quote.Amount.Float64()
		assert.InDelta(t, expected, amount, 0.001, "days=%d", days)
	}
}

func TestSecondTierChargesOneDollarPerDay(t *testing.T) {
	now := date(2026, time.March, 20)

	testCases := []struct {
		days     int
		expected string
	}{
		{8, "4.50"},
		{10, "6.50"},
		{14, "10.50"},
		{18, "14.50"},
	}

	for _, tt := range testCases {
		quote := Calculate(now.AddDate(0, 0, -tt.days), now)

		assert.Equal(t, tt.days, quote.DaysOverdue)
		assert.Equal(t, tt.expected, quote.Amount.StringFixed(2))
		assert.Equal(t, StatusOverdue, quote.Status)
	}
}

func TestFeeIsCappedAtFifteenDollars(t *testing.T) {
	now := date(2026, time.March, 20)

	for _, days := range []int{19, 40, 365, 10000} {
		quote := Calculate(now.AddDate(0, 0, -days), now)

		assert.Equal(t, "15.00", quote.Amount.StringFixed(2), "days=%d", days)
		assert.Equal(t, StatusOverdue, quote.Status)
	}
}

func TestNotOverdueProducesZeroFee(t *testing.T) {
	now := date(2026, time.March, 20)

	testCases := []struct {
		name    string
		dueDate time.Time
	}{
		{"due today", now},
		{"due tomorrow", now.AddDate(0, 0, 1)},
		{"due next month", now.AddDate(0, 1, 0)},
	}

	for _, tt := range testCases {
		quote := Calculate(tt.dueDate, now)

		assert.Equal(t, 0, quote.DaysOverdue, tt.name)
		assert.Equal(t, "0.00", quote.Amount.StringFixed(2), tt.name)
		assert.Equal(t, StatusNotOverdue, quote.Status, tt.name)
	}
}

func TestDaysOverdueIgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2026, time.March, 19, 23, 59, 0, 0, time.UTC)
	now := time.Date(2026, time.March, 20, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysOverdue(due, now))

	sameDay := time.Date(2026, time.March, 19, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysOverdue(due, sameDay))
}
