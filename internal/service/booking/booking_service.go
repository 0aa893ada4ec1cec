package booking

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/kafka"
	"github.com/Domenick1991/tutorbooking/internal/ledger"
	"github.com/Domenick1991/tutorbooking/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Quote(ctx context.Context, programID int64, sessionCount int, targetDate *time.Time) (domain.PriceQuote, error)
	SubmitBooking(ctx context.Context, input SubmitBookingInput) (*Submission, error)
	GetBooking(ctx context.Context, id int64) (*BookingView, error)
	Approve(ctx context.Context, id int64) (*domain.Booking, error)
	Decline(ctx context.Context, id int64, reason string) (*domain.Booking, error)
	AssignTutor(ctx context.Context, id, tutorID int64) (*domain.Booking, error)
	AdvanceExecution(ctx context.Context, id int64, target domain.ExecutionStatus) (*domain.Booking, error)
	Cancel(ctx context.Context, id int64) (*domain.Booking, error)
	RecordReceipt(ctx context.Context, id int64, input ReceiptInput) (*domain.Receipt, ledger.Summary, error)
	RecordFailedPayment(ctx context.Context, id int64, input FailedPaymentInput) (*domain.Receipt, error)
	ListReceipts(ctx context.Context, id int64) ([]domain.Receipt, error)
}

type ProgramProvider interface {
	GetByID(ctx context.Context, id int64) (*domain.Program, error)
}

type Quoter interface {
	Quote(ctx context.Context, program domain.Program, sessionCount int, targetDate *time.Time) (domain.PriceQuote, error)
}

// Locker serialises writers of one booking. The returned func releases it.
type Locker interface {
	AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (func(context.Context) error, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings        repository.BookingRepository
	receipts        repository.ReceiptRepository
	tutors          repository.TutorRepository
	programs        ProgramProvider
	quoter          Quoter
	locker          Locker
	producer        Producer
	eventsTopic     string
	lockTTL         time.Duration
	minFirstPayment decimal.Decimal
	logger          *zap.Logger
	now             func() time.Time
	validate        *validator.Validate
}

type SubmitBookingInput struct {
	ProgramID    int64     `json:"program_id" validate:"required,gt=0"`
	LearnerID    int64     `json:"learner_id" validate:"required,gt=0"`
	ParentID     int64     `json:"parent_id" validate:"required,gt=0"`
	BookDate     time.Time `json:"book_date" validate:"required"`
	SessionCount int       `json:"session_count" validate:"required,gt=0"`
	Notes        string    `json:"notes" validate:"max=2000"`
}

// Submission is a created booking together with the quote its amount was
// locked from.
type Submission struct {
	Booking *domain.Booking
	Quote   domain.PriceQuote
}

type BookingView struct {
	Booking *domain.Booking
	Payment ledger.Summary
}

type ReceiptInput struct {
	Amount   decimal.Decimal
	Type     domain.ReceiptType
	Method   string
	PaidAt   time.Time
	ProofRef string
}

type FailedPaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Reason    string
}

type BookingServiceOption func(*BookingService)

func WithLocker(locker Locker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithProducer(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithMinFirstPayment(amount decimal.Decimal) BookingServiceOption {
	return func(s *BookingService) {
		s.minFirstPayment = amount
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	receipts repository.ReceiptRepository,
	tutors repository.TutorRepository,
	programs ProgramProvider,
	quoter Quoter,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		receipts:        receipts,
		tutors:          tutors,
		programs:        programs,
		quoter:          quoter,
		lockTTL:         10 * time.Second,
		minFirstPayment: decimal.NewFromInt(500),
		logger:          zap.NewNop(),
		now:             time.Now,
		validate:        NewValidator(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// NewValidator reports field errors under their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func (s *BookingService) Quote(ctx context.Context, programID int64, sessionCount int, targetDate *time.Time) (domain.PriceQuote, error) {
	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		return domain.PriceQuote{}, err
	}
	return s.quoter.Quote(ctx, *program, sessionCount, targetDate)
}

func (s *BookingService) SubmitBooking(ctx context.Context, input SubmitBookingInput) (*Submission, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	bookDate := calendarDay(input.BookDate)
	quote, err := s.Quote(ctx, input.ProgramID, input.SessionCount, &bookDate)
	if err != nil {
		return nil, err
	}
	if !quote.Authoritative {
		s.logger.Warn("booking priced from fallback quote",
			zap.Int64("program_id", input.ProgramID),
			zap.Int("session_count", input.SessionCount))
	}

	booking := &domain.Booking{
		ProgramID:    input.ProgramID,
		LearnerID:    input.LearnerID,
		ParentID:     input.ParentID,
		BookDate:     bookDate,
		SessionCount: input.SessionCount,
		Amount:       quote.FinalTotal,
		Approval:     domain.ApprovalPending,
		Execution:    domain.ExecutionProcessing,
		Notes:        strings.TrimSpace(input.Notes),
	}
	if err := booking.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info("booking submitted",
		zap.Int64("booking_id", booking.ID),
		zap.String("amount", booking.Amount.StringFixed(2)))
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventBookingSubmitted,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		Amount:    booking.Amount.StringFixed(2),
	})
	return &Submission{Booking: booking, Quote: quote}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*BookingView, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	receipts, err := s.receipts.ListByBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: booking, Payment: ledger.Summarize(booking, receipts)}, nil
}

func (s *BookingService) Approve(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.mutate(ctx, id, func(b *domain.Booking) error {
		return b.Approve()
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventBookingApproved,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		Status:    string(booking.Approval),
	})
	return booking, nil
}

func (s *BookingService) Decline(ctx context.Context, id int64, reason string) (*domain.Booking, error) {
	booking, err := s.mutate(ctx, id, func(b *domain.Booking) error {
		return b.Decline(reason)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventBookingDeclined,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		Status:    string(booking.Approval),
		Reason:    booking.DeclineReason,
	})
	return booking, nil
}

func (s *BookingService) AssignTutor(ctx context.Context, id, tutorID int64) (*domain.Booking, error) {
	if tutorID <= 0 {
		return nil, domain.Validationf("tutor id must be positive")
	}
	exists, err := s.tutors.Exists(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFoundf("tutor %d not found", tutorID)
	}

	booking, err := s.mutate(ctx, id, func(b *domain.Booking) error {
		return b.AssignTutor(tutorID)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventTutorAssigned,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
	})
	return booking, nil
}

func (s *BookingService) AdvanceExecution(ctx context.Context, id int64, target domain.ExecutionStatus) (*domain.Booking, error) {
	booking, err := s.mutate(ctx, id, func(b *domain.Booking) error {
		return b.Advance(target)
	})
	if err != nil {
		return nil, err
	}

	eventType := kafka.EventBookingExecutionChanged
	if booking.Execution == domain.ExecutionCancelled {
		eventType = kafka.EventBookingCancelled
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		Status:    string(booking.Execution),
	})
	return booking, nil
}

func (s *BookingService) Cancel(ctx context.Context, id int64) (*domain.Booking, error) {
	booking, err := s.mutate(ctx, id, func(b *domain.Booking) error {
		return b.Cancel()
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventBookingCancelled,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		Status:    string(booking.Execution),
	})
	return booking, nil
}

func (s *BookingService) RecordReceipt(ctx context.Context, id int64, input ReceiptInput) (*domain.Receipt, ledger.Summary, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	defer release()

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	prior, err := s.receipts.ListByBooking(ctx, id)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	if err := ledger.ValidateReceipt(booking, prior, input.Amount, input.Type, s.minFirstPayment); err != nil {
		return nil, ledger.Summary{}, err
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	receipt := &domain.Receipt{
		BookingID: booking.ID,
		Amount:    input.Amount,
		Type:      input.Type,
		Method:    strings.TrimSpace(input.Method),
		PaidAt:    paidAt.UTC(),
		ProofRef:  strings.TrimSpace(input.ProofRef),
		Status:    domain.ReceiptSucceeded,
	}
	version, err := s.receipts.Append(ctx, booking.Version, receipt)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	booking.Version = version

	summary := ledger.Summarize(booking, append(prior, *receipt))
	s.logger.Info("receipt recorded",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("receipt_id", receipt.ID),
		zap.String("amount", receipt.Amount.StringFixed(2)),
		zap.String("payment_status", string(summary.Status)))
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventReceiptRecorded,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		ReceiptID: receipt.ID,
		Status:    string(summary.Status),
		Amount:    receipt.Amount.StringFixed(2),
	})
	return receipt, summary, nil
}

// RecordFailedPayment keeps a failed attempt for audit. It never changes the
// paid total.
func (s *BookingService) RecordFailedPayment(ctx context.Context, id int64, input FailedPaymentInput) (*domain.Receipt, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.Validationf("payment amount must be positive")
	}
	if !input.Amount.Equal(input.Amount.Round(2)) {
		return nil, domain.Validationf("payment amount %s has more than two decimal places", input.Amount)
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Approval != domain.ApprovalApproved {
		return nil, domain.Preconditionf("payments are only accepted for approved bookings, approval is %s", booking.Approval)
	}

	receipt := &domain.Receipt{
		BookingID: booking.ID,
		Amount:    input.Amount,
		Type:      domain.ReceiptPartial,
		Method:    strings.TrimSpace(input.Method),
		PaidAt:    s.now().UTC(),
		ProofRef:  strings.TrimSpace(input.Reference),
		Status:    domain.ReceiptFailed,
	}
	if _, err := s.receipts.Append(ctx, booking.Version, receipt); err != nil {
		return nil, err
	}

	s.logger.Warn("payment attempt failed",
		zap.Int64("booking_id", booking.ID),
		zap.String("amount", receipt.Amount.StringFixed(2)),
		zap.String("reason", input.Reason))
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventPaymentFailed,
		BookingID: booking.ID,
		ParentID:  booking.ParentID,
		ReceiptID: receipt.ID,
		Amount:    receipt.Amount.StringFixed(2),
		Reason:    input.Reason,
	})
	return receipt, nil
}

func (s *BookingService) ListReceipts(ctx context.Context, id int64) ([]domain.Receipt, error) {
	if _, err := s.bookings.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.receipts.ListByBooking(ctx, id)
}

// mutate applies change to a fresh copy of the booking under the booking lock
// and stores it with a version check. A failed change leaves storage as is.
func (s *BookingService) mutate(ctx context.Context, id int64, change func(*domain.Booking) error) (*domain.Booking, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(booking); err != nil {
		return nil, err
	}
	if err := booking.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) lock(ctx context.Context, id int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.AcquireBookingLock(ctx, id, s.lockTTL)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release booking lock", zap.Int64("booking_id", id), zap.Error(err))
		}
	}, nil
}

func (s *BookingService) publish(ctx context.Context, event kafka.BookingEvent) {
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

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Validationf("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "gt":
			msgs = append(msgs, fe.Field()+" must be greater than "+fe.Param())
		default:
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
	}
	return domain.Validationf("%s", strings.Join(msgs, "; "))
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ BookingUseCase = (*BookingService)(nil)
