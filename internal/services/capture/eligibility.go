package capture

import (
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CapturedAmount sums the amounts of prior captures
func CapturedAmount(prior []*domain.CaptureRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range prior {
		total = total.Add(rec.TotalAmount)
	}
	return total
}

// CanCapture checks whether a further capture (partial or full) is allowed.
// With no prior captures it is always allowed. Otherwise it is allowed when
// nothing is recorded as paid or the captured sum is still below the paid total.
func CanCapture(totalPaid *decimal.Decimal, prior []*domain.CaptureRecord) bool {
	if len(prior) == 0 {
		return true
	}
	if totalPaid == nil || totalPaid.IsZero() {
		return true
	}
	return CapturedAmount(prior).LessThan(*totalPaid)
}

// RemainingCapturable returns what may still be captured against totalPaid.
// bounded is false when no paid total is recorded.
func RemainingCapturable(totalPaid *decimal.Decimal, prior []*domain.CaptureRecord) (remaining decimal.Decimal, bounded bool) {
	if totalPaid == nil || totalPaid.IsZero() {
		return decimal.Zero, false
	}
	remaining = totalPaid.Sub(CapturedAmount(prior))
	if remaining.IsNegative() {
		return decimal.Zero, true
	}
	return remaining, true
}
