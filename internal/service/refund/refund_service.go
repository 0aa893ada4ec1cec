package refund

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/kafka"
	"github.com/Domenick1991/tutorbooking/internal/ledger"
	"github.com/Domenick1991/tutorbooking/internal/repository"
	"github.com/Domenick1991/tutorbooking/internal/service/booking"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RefundUseCase interface {
	Eligibility(ctx context.Context, bookingID int64) (Eligibility, error)
	RequestRefund(ctx context.Context, bookingID int64, reason string) (*domain.RefundRequest, error)
	ApproveRefund(ctx context.Context, refundID int64, notes string) (*domain.RefundRequest, error)
	RejectRefund(ctx context.Context, refundID int64, notes string) (*domain.RefundRequest, error)
	ListRefunds(ctx context.Context, bookingID int64) ([]domain.RefundRequest, error)
}

// Eligibility explains a refund decision. Reasons is empty when Eligible.
type Eligibility struct {
	Eligible  bool
	Reasons   []string
	TotalPaid decimal.Decimal
}

type RefundService struct {
	refunds         repository.RefundRepository
	bookings        repository.BookingRepository
	receipts        repository.ReceiptRepository
	locker          booking.Locker
	producer        booking.Producer
	eventsTopic     string
	lockTTL         time.Duration
	reasonMinLength int
	location        *time.Location
	logger          *zap.Logger
	now             func() time.Time
}

type RefundServiceOption func(*RefundService)

func WithLocker(locker booking.Locker, ttl time.Duration) RefundServiceOption {
	return func(s *RefundService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithProducer(producer booking.Producer, topic string) RefundServiceOption {
	return func(s *RefundService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func WithLogger(logger *zap.Logger) RefundServiceOption {
	return func(s *RefundService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) RefundServiceOption {
	return func(s *RefundService) {
		s.now = now
	}
}

// WithLocation sets the timezone whose calendar day counts as "today".
func WithLocation(loc *time.Location) RefundServiceOption {
	return func(s *RefundService) {
		s.location = loc
	}
}

func WithReasonMinLength(n int) RefundServiceOption {
	return func(s *RefundService) {
		s.reasonMinLength = n
	}
}

func NewRefundService(
	refunds repository.RefundRepository,
	bookings repository.BookingRepository,
	receipts repository.ReceiptRepository,
	opts ...RefundServiceOption,
) *RefundService {
	service := &RefundService{
		refunds:         refunds,
		bookings:        bookings,
		receipts:        receipts,
		lockTTL:         10 * time.Second,
		reasonMinLength: 10,
		location:        time.UTC,
		logger:          zap.NewNop(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// IsRefundEligible reports whether a refund may be requested: the booked date
// is still ahead of today, the booking has not finished or been cancelled,
// something has been paid and no refund has been approved yet. Dates compare
// as calendar days.
func IsRefundEligible(b *domain.Booking, receipts []domain.Receipt, refunds []domain.RefundRequest, today time.Time) Eligibility {
	result := Eligibility{TotalPaid: ledger.TotalPaid(receipts)}

	if !dayOf(b.BookDate).After(dayOf(today)) {
		result.Reasons = append(result.Reasons, "booking date has already passed")
	}
	if b.Execution.Terminal() {
		result.Reasons = append(result.Reasons, "booking is "+string(b.Execution))
	}
	if !result.TotalPaid.IsPositive() {
		result.Reasons = append(result.Reasons, "nothing has been paid")
	}
	if approved := findRefund(refunds, domain.RefundApproved, 0); approved != nil {
		result.Reasons = append(result.Reasons, fmt.Sprintf("refund %d has already been approved", approved.ID))
	}
	result.Eligible = len(result.Reasons) == 0
	return result
}

func (s *RefundService) Eligibility(ctx context.Context, bookingID int64) (Eligibility, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return Eligibility{}, err
	}
	receipts, err := s.receipts.ListByBooking(ctx, bookingID)
	if err != nil {
		return Eligibility{}, err
	}
	refunds, err := s.refunds.ListByBooking(ctx, bookingID)
	if err != nil {
		return Eligibility{}, err
	}
	return IsRefundEligible(b, receipts, refunds, s.today()), nil
}

func (s *RefundService) RequestRefund(ctx context.Context, bookingID int64, reason string) (*domain.RefundRequest, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < s.reasonMinLength {
		return nil, domain.Validationf("refund reason must be at least %d characters", s.reasonMinLength)
	}

	release, err := s.lock(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer release()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	receipts, err := s.receipts.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	existing, err := s.refunds.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	eligibility := IsRefundEligible(b, receipts, existing, s.today())
	if !eligibility.Eligible {
		return nil, domain.Validationf("booking %d is not eligible for a refund: %s", bookingID, strings.Join(eligibility.Reasons, "; "))
	}
	if findRefund(existing, domain.RefundPending, 0) != nil {
		return nil, domain.Preconditionf("booking %d already has a pending refund request", bookingID)
	}

	refund := &domain.RefundRequest{
		BookingID: bookingID,
		Reason:    reason,
		Amount:    eligibility.TotalPaid,
		Status:    domain.RefundPending,
	}
	if err := s.refunds.Create(ctx, refund); err != nil {
		return nil, err
	}

	s.logger.Info("refund requested",
		zap.Int64("booking_id", bookingID),
		zap.Int64("refund_id", refund.ID),
		zap.String("amount", refund.Amount.StringFixed(2)))
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventRefundRequested,
		BookingID: bookingID,
		ParentID:  b.ParentID,
		RefundID:  refund.ID,
		Status:    string(refund.Status),
		Amount:    refund.Amount.StringFixed(2),
		Reason:    refund.Reason,
	})
	return refund, nil
}

// ApproveRefund records the decision only. Paying the money back happens
// outside this system.
func (s *RefundService) ApproveRefund(ctx context.Context, refundID int64, notes string) (*domain.RefundRequest, error) {
	return s.decide(ctx, refundID, domain.RefundApproved, notes)
}

func (s *RefundService) RejectRefund(ctx context.Context, refundID int64, notes string) (*domain.RefundRequest, error) {
	return s.decide(ctx, refundID, domain.RefundRejected, notes)
}

func (s *RefundService) ListRefunds(ctx context.Context, bookingID int64) ([]domain.RefundRequest, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.refunds.ListByBooking(ctx, bookingID)
}

func (s *RefundService) decide(ctx context.Context, refundID int64, status domain.RefundStatus, notes string) (*domain.RefundRequest, error) {
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if err := refund.Decide(status, strings.TrimSpace(notes), s.now().UTC()); err != nil {
		return nil, err
	}
	if status == domain.RefundApproved {
		siblings, err := s.refunds.ListByBooking(ctx, refund.BookingID)
		if err != nil {
			return nil, err
		}
		if prior := findRefund(siblings, domain.RefundApproved, refund.ID); prior != nil {
			return nil, domain.Preconditionf("booking %d already has approved refund %d", refund.BookingID, prior.ID)
		}
	}
	if err := s.refunds.Decide(ctx, refund); err != nil {
		return nil, err
	}

	eventType := kafka.EventRefundApproved
	if status == domain.RefundRejected {
		eventType = kafka.EventRefundRejected
	}
	var parentID int64
	if b, err := s.bookings.GetByID(ctx, refund.BookingID); err != nil {
		s.logger.Warn("load booking for refund event",
			zap.Int64("refund_id", refund.ID),
			zap.Int64("booking_id", refund.BookingID),
			zap.Error(err))
	} else {
		parentID = b.ParentID
	}

	s.logger.Info("refund decided",
		zap.Int64("refund_id", refund.ID),
		zap.String("status", string(refund.Status)))
	s.publish(ctx, kafka.BookingEvent{
		Type:      eventType,
		BookingID: refund.BookingID,
		ParentID:  parentID,
		RefundID:  refund.ID,
		Status:    string(refund.Status),
		Amount:    refund.Amount.StringFixed(2),
		Reason:    refund.AdminNotes,
	})
	return refund, nil
}

func (s *RefundService) today() time.Time {
	return s.now().In(s.location)
}

func (s *RefundService) lock(ctx context.Context, bookingID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.AcquireBookingLock(ctx, bookingID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release booking lock", zap.Int64("booking_id", bookingID), zap.Error(err))
		}
	}, nil
}

func (s *RefundService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.now().UTC()
	if err := s.producer.Publish(ctx, s.eventsTopic, event.Key(), event); err != nil {
		s.logger.Warn("publish event",
			zap.String("type", string(event.Type)),
			zap.Int64("booking_id", event.BookingID),
			zap.Error(err))
	}
}

// findRefund returns the first request in status other than the one with
// id skip.
func findRefund(refunds []domain.RefundRequest, status domain.RefundStatus, skip int64) *domain.RefundRequest {
	for i := range refunds {
		if refunds[i].Status == status && refunds[i].ID != skip {
			return &refunds[i]
		}
	}
	return nil
}

// dayOf drops the clock so only the calendar date in t's own location counts.
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ RefundUseCase = (*RefundService)(nil)
