package kafka

import (
	"strconv"
	"time"
)

type EventType string

const (
	EventBookingSubmitted        EventType = "booking_submitted"
	EventBookingApproved         EventType = "booking_approved"
	EventBookingDeclined         EventType = "booking_declined"
	EventTutorAssigned           EventType = "tutor_assigned"
	EventBookingExecutionChanged EventType = "booking_execution_changed"
	EventBookingCancelled        EventType = "booking_cancelled"
	EventReceiptRecorded         EventType = "receipt_recorded"
	EventPaymentFailed           EventType = "payment_failed"
	EventRefundRequested         EventType = "refund_requested"
	EventRefundApproved          EventType = "refund_approved"
	EventRefundRejected          EventType = "refund_rejected"
)

// BookingEvent is the wire format of every domain event. Amounts are decimal
// strings.
type BookingEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	BookingID  int64     `json:"booking_id"`
	ParentID   int64     `json:"parent_id,omitempty"`
	RefundID   int64     `json:"refund_id,omitempty"`
	ReceiptID  int64     `json:"receipt_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Key partitions events by booking so consumers see them in order.
func (e BookingEvent) Key() string {
	return strconv.FormatInt(e.BookingID, 10)
}
