// Package ledger derives payment state from a booking's append-only receipt
// set. Nothing here is stored; every value is recomputed from the receipts
// and the booking's locked-in amount.
package ledger

import (
	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/shopspring/decimal"
)

type Summary struct {
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal
	Status    domain.PaymentStatus
}

// TotalPaid sums the successful receipts.
func TotalPaid(receipts []domain.Receipt) decimal.Decimal {
	paid := decimal.Zero
	for _, r := range receipts {
		if r.Status == domain.ReceiptSucceeded {
			paid = paid.Add(r.Amount)
		}
	}
	return paid
}

// RemainingBalance never reports a negative balance.
func RemainingBalance(total decimal.Decimal, receipts []domain.Receipt) decimal.Decimal {
	remaining := total.Sub(TotalPaid(receipts))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func PaymentStatus(total decimal.Decimal, receipts []domain.Receipt) domain.PaymentStatus {
	paid := TotalPaid(receipts)
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return domain.PaymentPaid
	case paid.IsPositive():
		return domain.PaymentPartial
	case hasFailure(receipts):
		return domain.PaymentFailed
	default:
		return domain.PaymentPending
	}
}

func Summarize(b *domain.Booking, receipts []domain.Receipt) Summary {
	return Summary{
		Total:     b.Amount,
		Paid:      TotalPaid(receipts),
		Remaining: RemainingBalance(b.Amount, receipts),
		Status:    PaymentStatus(b.Amount, receipts),
	}
}

func hasFailure(receipts []domain.Receipt) bool {
	for _, r := range receipts {
		if r.Status == domain.ReceiptFailed {
			return true
		}
	}
	return false
}

// ValidateReceipt checks a new successful receipt against the booking and
// the receipts already posted. Ambiguity is rejected.
func ValidateReceipt(b *domain.Booking, prior []domain.Receipt, amount decimal.Decimal, typ domain.ReceiptType, minFirstPayment decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Validationf("payment amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.Validationf("payment amount %s has more than two decimal places", amount)
	}
	if !typ.Valid() {
		return domain.Validationf("unknown payment type %q", typ)
	}
	if b.Approval != domain.ApprovalApproved {
		return domain.Preconditionf("payments are only accepted for approved bookings, approval is %s", b.Approval)
	}
	if b.Execution == domain.ExecutionCancelled {
		return domain.Preconditionf("payments are not accepted for cancelled bookings")
	}

	remaining := RemainingBalance(b.Amount, prior)
	if !remaining.IsPositive() {
		return domain.Preconditionf("booking %d is already fully paid", b.ID)
	}
	if amount.GreaterThan(remaining) {
		return domain.Preconditionf("payment %s exceeds remaining balance %s", amount.StringFixed(2), remaining.StringFixed(2))
	}
	if typ.SettlesBalance() && !amount.Equal(remaining) {
		return domain.Preconditionf("%s must equal the remaining balance %s", typ, remaining.StringFixed(2))
	}

	if TotalPaid(prior).IsZero() {
		floor := decimal.Min(minFirstPayment, remaining)
		if amount.LessThan(floor) {
			return domain.Preconditionf("first payment must be at least %s", floor.StringFixed(2))
		}
	}
	return nil
}
