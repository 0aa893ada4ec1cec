package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tutorbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender turns domain events into parent/admin notifications. Delivery is a
// log line until a mail or push channel is configured.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Message(event)
	if !ok {
		s.logger.Debug("no notification for event", zap.String("type", string(event.Type)))
		return nil
	}
	s.logger.Info("notification",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("booking_id", event.BookingID),
		zap.Int64("parent_id", event.ParentID),
		zap.String("message", msg),
	)
	return nil
}

// Message renders the text for the events parents are told about.
func Message(event kafka.BookingEvent) (string, bool) {
	switch event.Type {
	case kafka.EventBookingApproved:
		return fmt.Sprintf("Your booking #%d has been approved.", event.BookingID), true
	case kafka.EventBookingDeclined:
		return fmt.Sprintf("Your booking #%d was declined: %s", event.BookingID, event.Reason), true
	case kafka.EventReceiptRecorded:
		return fmt.Sprintf("Payment of %s received for booking #%d, status %s.", event.Amount, event.BookingID, event.Status), true
	case kafka.EventRefundApproved:
		return fmt.Sprintf("Your refund request #%d for booking #%d (%s) was approved.", event.RefundID, event.BookingID, event.Amount), true
	case kafka.EventRefundRejected:
		return fmt.Sprintf("Your refund request #%d for booking #%d was rejected.", event.RefundID, event.BookingID), true
	}
	return "", false
}
