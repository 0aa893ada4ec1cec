package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

// RefundRequest references a booking by id. Amount is fixed when the request
// is created.
type RefundRequest struct {
	ID         int64
	BookingID  int64
	Reason     string
	Amount     decimal.Decimal
	Status     RefundStatus
	AdminNotes string
	CreatedAt  time.Time
	DecidedAt  *time.Time
}

// Decide applies a terminal admin decision to a pending request.
func (r *RefundRequest) Decide(status RefundStatus, notes string, at time.Time) error {
	if status != RefundApproved && status != RefundRejected {
		return Validationf("refund can only be approved or rejected, got %q", status)
	}
	if r.Status != RefundPending {
		return &TransitionError{Axis: "refund", From: string(r.Status), To: string(status)}
	}
	r.Status = status
	r.AdminNotes = notes
	r.DecidedAt = &at
	return nil
}
