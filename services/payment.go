package services

import (
	"math"
	"time"

	"pathology-lab-server/models"
)

// ComputeBalance returns the outstanding amount, clamped at zero so an
// over-collection never produces a negative balance.
func ComputeBalance(total, collected float64) float64 {
	balance := total - collected
	if balance < 0 {
		return 0
	}
	return roundMoney(balance)
}

// ResolvePaymentStatus derives the payment status from the stored amounts.
// Online payment is modeled as instantaneous full settlement; cash resolves
// from what has actually been collected.
func ResolvePaymentStatus(mode models.PaymentMode, total, collected float64) models.PaymentStatus {
	if mode == models.PaymentModeOnline {
		return models.PaymentPaid
	}
	switch {
	case collected <= 0:
		return models.PaymentUnpaid
	case collected >= total:
		return models.PaymentPaid
	default:
		return models.PaymentPartial
	}
}

// DiscountedTotal applies a usable discount code to the total. A nil or
// unusable code returns the total unchanged together with a validation error
// the caller may surface without aborting the booking.
func DiscountedTotal(total float64, code *models.DiscountCode, now time.Time) (float64, error) {
	if code == nil {
		return total, Errorf(KindValidation, "discount code not found")
	}
	if !code.IsUsable(now) {
		return total, Errorf(KindValidation, "discount code %s is inactive or expired", code.Code)
	}
	discounted := total * (1 - code.Percent/100)
	if discounted < 0 {
		discounted = 0
	}
	return roundMoney(discounted), nil
}

// ApplyCollection records a new collected total on the booking and
// recomputes the dependent fields from the stored total. The client-supplied
// balance is never trusted.
func ApplyCollection(b *models.Booking, collected float64) error {
	if collected < 0 {
		return Errorf(KindValidation, "collected amount cannot be negative")
	}
	b.AmountCollected = collected
	b.BalanceAmount = ComputeBalance(b.TotalAmount, collected)
	b.PaymentStatus = ResolvePaymentStatus(b.PaymentMode, b.TotalAmount, collected)
	return nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
