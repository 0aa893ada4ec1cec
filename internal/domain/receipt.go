package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReceiptType string

const (
	ReceiptDownPayment  ReceiptType = "down_payment"
	ReceiptPartial      ReceiptType = "partial"
	ReceiptFullPayment  ReceiptType = "full_payment"
	ReceiptFinalPayment ReceiptType = "final_payment"
)

func (t ReceiptType) Valid() bool {
	switch t {
	case ReceiptDownPayment, ReceiptPartial, ReceiptFullPayment, ReceiptFinalPayment:
		return true
	}
	return false
}

// SettlesBalance reports whether the receipt must equal the remaining balance.
func (t ReceiptType) SettlesBalance() bool {
	return t == ReceiptFullPayment || t == ReceiptFinalPayment
}

type ReceiptStatus string

const (
	ReceiptSucceeded ReceiptStatus = "succeeded"
	ReceiptFailed    ReceiptStatus = "failed"
)

// Receipt is one append-only payment event against a booking. Failed
// attempts are kept for audit and never count toward the paid total.
type Receipt struct {
	ID        int64
	BookingID int64
	Amount    decimal.Decimal
	Type      ReceiptType
	Method    string
	PaidAt    time.Time
	ProofRef  string
	Status    ReceiptStatus
	CreatedAt time.Time
}
