package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/kafka"
	"github.com/Domenick1991/tutorbooking/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, int64) *domain.Booking); ok {
		return fn(ctx, id), args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

type MockTutorRepository struct {
	mock.Mock
}

func (m *MockTutorRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockProgramProvider struct {
	mock.Mock
}

func (m *MockProgramProvider) GetByID(ctx context.Context, id int64) (*domain.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, bookingID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// memReceipts is an in-memory append-only receipt store.
type memReceipts struct {
	items   []domain.Receipt
	version int64
}

func (r *memReceipts) Append(ctx context.Context, bookingVersion int64, receipt *domain.Receipt) (int64, error) {
	if bookingVersion != r.version {
		return 0, domain.ErrConcurrentModification
	}
	receipt.ID = int64(len(r.items) + 1)
	receipt.CreatedAt = receipt.PaidAt
	r.items = append(r.items, *receipt)
	r.version++
	return r.version, nil
}

func (r *memReceipts) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Receipt, error) {
	out := make([]domain.Receipt, 0, len(r.items))
	for _, item := range r.items {
		if item.BookingID == bookingID {
			out = append(out, item)
		}
	}
	return out, nil
}

func testProgram() *domain.Program {
	return &domain.Program{
		ID:          7,
		Name:        "Reading Club",
		BasePrice:   decimal.NewFromInt(1000),
		MinSessions: 4,
		Setting:     domain.SettingHub,
		StartTime:   9 * time.Hour,
		EndTime:     10 * time.Hour,
	}
}

func testBooking(approval domain.ApprovalStatus, execution domain.ExecutionStatus) *domain.Booking {
	b := &domain.Booking{
		ID:           1,
		ProgramID:    7,
		LearnerID:    3,
		ParentID:     2,
		BookDate:     time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		SessionCount: 4,
		Amount:       decimal.NewFromInt(5000),
		Approval:     approval,
		Execution:    execution,
		Version:      1,
	}
	if approval == domain.ApprovalDeclined {
		b.DeclineReason = "no tutor available"
	}
	return b
}

func eventOfType(t kafka.EventType) interface{} {
	return mock.MatchedBy(func(e kafka.BookingEvent) bool { return e.Type == t })
}

func newService(bookings *MockBookingRepository, receipts *memReceipts, opts ...BookingServiceOption) *BookingService {
	quoter := pricing.NewQuoter(pricing.NewRulesSource(pricing.DefaultRules()), time.Second, nil)
	programs := &MockProgramProvider{}
	programs.On("GetByID", mock.Anything, int64(7)).Return(testProgram(), nil).Maybe()
	programs.On("GetByID", mock.Anything, mock.Anything).Return(nil, domain.NotFoundf("program not found")).Maybe()
	return NewBookingService(bookings, receipts, &MockTutorRepository{}, programs, quoter, opts...)
}

func TestBookingService_SubmitBooking_Success(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &memReceipts{version: 1}, WithProducer(producer, "booking_events"))

	bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.ID = 11
			b.Version = 1
		}).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking_events", "11", eventOfType(kafka.EventBookingSubmitted)).Return(nil).Once()

	sub, err := service.SubmitBooking(context.Background(), SubmitBookingInput{
		ProgramID:    7,
		LearnerID:    3,
		ParentID:     2,
		BookDate:     time.Date(2026, 12, 1, 15, 30, 0, 0, time.UTC),
		SessionCount: 8,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), sub.Booking.ID)
	assert.Equal(t, domain.ApprovalPending, sub.Booking.Approval)
	assert.Equal(t, domain.ExecutionProcessing, sub.Booking.Execution)
	assert.True(t, sub.Booking.Amount.Equal(decimal.NewFromInt(7760)), sub.Booking.Amount.String())
	assert.True(t, sub.Booking.Amount.Equal(sub.Quote.FinalTotal))
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), sub.Booking.BookDate)
	assert.Equal(t, domain.TierDouble, sub.Quote.Tier)
	assert.True(t, sub.Quote.Authoritative)
	bookings.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_SubmitBooking_Rejected(t *testing.T) {
	testCases := []struct {
		name    string
		input   SubmitBookingInput
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing fields",
			input:   SubmitBookingInput{SessionCount: 4},
			wantErr: domain.ErrValidation,
			wantMsg: "program_id is required",
		},
		{
			name: "below program minimum",
			input: SubmitBookingInput{
				ProgramID: 7, LearnerID: 3, ParentID: 2,
				BookDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), SessionCount: 3,
			},
			wantErr: domain.ErrValidation,
			wantMsg: "below program minimum",
		},
		{
			name: "unknown program",
			input: SubmitBookingInput{
				ProgramID: 99, LearnerID: 3, ParentID: 2,
				BookDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), SessionCount: 4,
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &MockBookingRepository{}
			service := newService(bookings, &memReceipts{})

			sub, err := service.SubmitBooking(context.Background(), tc.input)

			assert.Nil(t, sub)
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
			bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_Quote(t *testing.T) {
	service := newService(&MockBookingRepository{}, &memReceipts{})

	q, err := service.Quote(context.Background(), 7, 12, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TierTriplePlus, q.Tier)
	assert.True(t, q.FinalTotal.Equal(decimal.NewFromInt(11400)))

	_, err = service.Quote(context.Background(), 99, 12, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_Approve(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &memReceipts{}, WithProducer(producer, "booking_events"))

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()
	bookings.On("Update", mock.Anything, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.Approval == domain.ApprovalApproved && b.Version == 1
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Booking).Version = 2
	}).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking_events", "1", eventOfType(kafka.EventBookingApproved)).Return(nil).Once()

	b, err := service.Approve(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, b.Approval)
	assert.Equal(t, int64(2), b.Version)
	bookings.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_ApprovalIsOneShot(t *testing.T) {
	for _, approval := range []domain.ApprovalStatus{domain.ApprovalApproved, domain.ApprovalDeclined} {
		t.Run(string(approval), func(t *testing.T) {
			bookings := &MockBookingRepository{}
			service := newService(bookings, &memReceipts{})
			bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(approval, domain.ExecutionProcessing), nil)

			_, err := service.Approve(context.Background(), 1)
			assert.ErrorIs(t, err, domain.ErrIllegalTransition)

			_, err = service.Decline(context.Background(), 1, "schedule conflict")
			assert.ErrorIs(t, err, domain.ErrIllegalTransition)

			bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_Decline(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &memReceipts{})

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()
	_, err := service.Decline(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()
	bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	b, err := service.Decline(context.Background(), 1, "no tutor available")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalDeclined, b.Approval)
	assert.Equal(t, "no tutor available", b.DeclineReason)
	bookings.AssertExpectations(t)
}

// A cancel attempt on an active booking is rejected and nothing is stored.
func TestBookingService_Cancel_ActiveRejected(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &memReceipts{})
	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalApproved, domain.ExecutionActive), nil).Once()

	b, err := service.Cancel(context.Background(), 1)

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestBookingService_Cancel_Processing(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &memReceipts{}, WithProducer(producer, "booking_events"))

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()
	bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking_events", "1", eventOfType(kafka.EventBookingCancelled)).Return(nil).Once()

	b, err := service.Cancel(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionCancelled, b.Execution)
	producer.AssertExpectations(t)
}

func TestBookingService_AdvanceExecution(t *testing.T) {
	testCases := []struct {
		name     string
		approval domain.ApprovalStatus
		from     domain.ExecutionStatus
		target   domain.ExecutionStatus
		wantErr  error
	}{
		{"approved processing to active", domain.ApprovalApproved, domain.ExecutionProcessing, domain.ExecutionActive, nil},
		{"active to completed", domain.ApprovalApproved, domain.ExecutionActive, domain.ExecutionCompleted, nil},
		{"pending cannot start", domain.ApprovalPending, domain.ExecutionProcessing, domain.ExecutionActive, domain.ErrIllegalTransition},
		{"declined cannot start", domain.ApprovalDeclined, domain.ExecutionProcessing, domain.ExecutionActive, domain.ErrIllegalTransition},
		{"completed is terminal", domain.ApprovalApproved, domain.ExecutionCompleted, domain.ExecutionActive, domain.ErrIllegalTransition},
		{"no skipping", domain.ApprovalApproved, domain.ExecutionProcessing, domain.ExecutionCompleted, domain.ErrIllegalTransition},
		{"cancel active", domain.ApprovalApproved, domain.ExecutionActive, domain.ExecutionCancelled, domain.ErrPreconditionFailed},
		{"unknown target", domain.ApprovalApproved, domain.ExecutionProcessing, "paused", domain.ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &MockBookingRepository{}
			service := newService(bookings, &memReceipts{})
			bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(tc.approval, tc.from), nil).Once()
			if tc.wantErr == nil {
				bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
			}

			b, err := service.AdvanceExecution(context.Background(), 1, tc.target)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.target, b.Execution)
			bookings.AssertExpectations(t)
		})
	}
}

func TestBookingService_AssignTutor(t *testing.T) {
	t.Run("unknown tutor", func(t *testing.T) {
		bookings := &MockBookingRepository{}
		tutors := &MockTutorRepository{}
		service := newService(bookings, &memReceipts{})
		service.tutors = tutors
		tutors.On("Exists", mock.Anything, int64(5)).Return(false, nil).Once()

		_, err := service.AssignTutor(context.Background(), 1, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		bookings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("pending booking", func(t *testing.T) {
		bookings := &MockBookingRepository{}
		tutors := &MockTutorRepository{}
		service := newService(bookings, &memReceipts{})
		service.tutors = tutors
		tutors.On("Exists", mock.Anything, int64(5)).Return(true, nil).Once()
		bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()

		_, err := service.AssignTutor(context.Background(), 1, 5)
		assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
		bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("approved booking", func(t *testing.T) {
		bookings := &MockBookingRepository{}
		tutors := &MockTutorRepository{}
		service := newService(bookings, &memReceipts{})
		service.tutors = tutors
		tutors.On("Exists", mock.Anything, int64(5)).Return(true, nil).Once()
		bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalApproved, domain.ExecutionProcessing), nil).Once()
		bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

		b, err := service.AssignTutor(context.Background(), 1, 5)
		require.NoError(t, err)
		require.NotNil(t, b.TutorID)
		assert.Equal(t, int64(5), *b.TutorID)
	})
}

func TestBookingService_ConcurrentModification(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := newService(bookings, &memReceipts{})
	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()
	bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(domain.ErrConcurrentModification).Once()

	_, err := service.Approve(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestBookingService_Lock(t *testing.T) {
	t.Run("held by another writer", func(t *testing.T) {
		bookings := &MockBookingRepository{}
		locker := &MockLocker{}
		service := newService(bookings, &memReceipts{}, WithLocker(locker, 5*time.Second))
		locker.On("AcquireBookingLock", mock.Anything, int64(1), 5*time.Second).Return(nil, domain.ErrConcurrentModification).Once()

		_, err := service.Approve(context.Background(), 1)

		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
		bookings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("released after a failed change", func(t *testing.T) {
		bookings := &MockBookingRepository{}
		locker := &MockLocker{}
		service := newService(bookings, &memReceipts{}, WithLocker(locker, 5*time.Second))

		released := 0
		release := func(context.Context) error {
			released++
			return nil
		}
		locker.On("AcquireBookingLock", mock.Anything, int64(1), 5*time.Second).Return(release, nil).Once()
		bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalApproved, domain.ExecutionActive), nil).Once()

		_, err := service.Cancel(context.Background(), 1)

		assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
		assert.Equal(t, 1, released)
		locker.AssertExpectations(t)
	})
}

// A 5000 booking paid 500 then 4500 is settled; any further receipt is
// rejected.
func TestBookingService_RecordReceipt_Sequence(t *testing.T) {
	bookings := &MockBookingRepository{}
	receipts := &memReceipts{version: 1}
	producer := &MockProducer{}
	service := newService(bookings, receipts, WithProducer(producer, "booking_events"))
	ctx := context.Background()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(func(context.Context, int64) *domain.Booking {
		b := testBooking(domain.ApprovalApproved, domain.ExecutionProcessing)
		b.Version = receipts.version
		return b
	}, nil)
	producer.On("Publish", mock.Anything, "booking_events", "1", eventOfType(kafka.EventReceiptRecorded)).Return(nil).Twice()

	r, summary, err := service.RecordReceipt(ctx, 1, ReceiptInput{Amount: decimal.NewFromInt(500), Type: domain.ReceiptDownPayment, Method: "gcash"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiptSucceeded, r.Status)
	assert.Equal(t, domain.PaymentPartial, summary.Status)
	assert.True(t, summary.Remaining.Equal(decimal.NewFromInt(4500)))

	_, summary, err = service.RecordReceipt(ctx, 1, ReceiptInput{Amount: decimal.NewFromInt(4500), Type: domain.ReceiptFinalPayment})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, summary.Status)
	assert.True(t, summary.Remaining.IsZero())

	_, _, err = service.RecordReceipt(ctx, 1, ReceiptInput{Amount: decimal.NewFromInt(1), Type: domain.ReceiptPartial})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Len(t, receipts.items, 2)

	view, err := service.GetBooking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, view.Payment.Status)
	assert.True(t, view.Payment.Paid.Equal(decimal.NewFromInt(5000)))
	producer.AssertExpectations(t)
}

func TestBookingService_RecordReceipt_Rules(t *testing.T) {
	testCases := []struct {
		name     string
		approval domain.ApprovalStatus
		input    ReceiptInput
		wantErr  error
	}{
		{"pending booking", domain.ApprovalPending, ReceiptInput{Amount: decimal.NewFromInt(500), Type: domain.ReceiptDownPayment}, domain.ErrPreconditionFailed},
		{"zero amount", domain.ApprovalApproved, ReceiptInput{Amount: decimal.Zero, Type: domain.ReceiptPartial}, domain.ErrValidation},
		{"unknown type", domain.ApprovalApproved, ReceiptInput{Amount: decimal.NewFromInt(500), Type: "voucher"}, domain.ErrValidation},
		{"over balance", domain.ApprovalApproved, ReceiptInput{Amount: decimal.NewFromInt(5001), Type: domain.ReceiptPartial}, domain.ErrPreconditionFailed},
		{"first payment too small", domain.ApprovalApproved, ReceiptInput{Amount: decimal.NewFromInt(100), Type: domain.ReceiptDownPayment}, domain.ErrPreconditionFailed},
		{"full payment short", domain.ApprovalApproved, ReceiptInput{Amount: decimal.NewFromInt(4000), Type: domain.ReceiptFullPayment}, domain.ErrPreconditionFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &MockBookingRepository{}
			receipts := &memReceipts{version: 1}
			service := newService(bookings, receipts)
			bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(tc.approval, domain.ExecutionProcessing), nil).Once()

			_, _, err := service.RecordReceipt(context.Background(), 1, tc.input)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, receipts.items)
		})
	}
}

func TestBookingService_RecordReceipt_StaleVersion(t *testing.T) {
	bookings := &MockBookingRepository{}
	receipts := &memReceipts{version: 2}
	service := newService(bookings, receipts)
	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalApproved, domain.ExecutionProcessing), nil).Once()

	_, _, err := service.RecordReceipt(context.Background(), 1, ReceiptInput{Amount: decimal.NewFromInt(5000), Type: domain.ReceiptFullPayment})

	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Empty(t, receipts.items)
}

func TestBookingService_RecordFailedPayment(t *testing.T) {
	bookings := &MockBookingRepository{}
	receipts := &memReceipts{version: 1}
	producer := &MockProducer{}
	service := newService(bookings, receipts, WithProducer(producer, "booking_events"))
	ctx := context.Background()

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalApproved, domain.ExecutionProcessing), nil)
	producer.On("Publish", mock.Anything, "booking_events", "1", eventOfType(kafka.EventPaymentFailed)).Return(nil).Once()

	r, err := service.RecordFailedPayment(ctx, 1, FailedPaymentInput{Amount: decimal.NewFromInt(500), Method: "card", Reason: "insufficient funds"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiptFailed, r.Status)

	view, err := service.GetBooking(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, view.Payment.Status)
	assert.True(t, view.Payment.Paid.IsZero())
	assert.True(t, view.Payment.Remaining.Equal(decimal.NewFromInt(5000)))

	_, err = service.RecordFailedPayment(ctx, 1, FailedPaymentInput{Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	producer.AssertExpectations(t)
}

func TestBookingService_PublishFailureDoesNotFailWrite(t *testing.T) {
	bookings := &MockBookingRepository{}
	producer := &MockProducer{}
	service := newService(bookings, &memReceipts{}, WithProducer(producer, "booking_events"))

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalPending, domain.ExecutionProcessing), nil).Once()
	bookings.On("Update", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	b, err := service.Approve(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, b.Approval)
}

func TestBookingService_ListReceipts(t *testing.T) {
	bookings := &MockBookingRepository{}
	receipts := &memReceipts{items: []domain.Receipt{{ID: 1, BookingID: 1, Amount: decimal.NewFromInt(500), Status: domain.ReceiptSucceeded}}}
	service := newService(bookings, receipts)

	bookings.On("GetByID", mock.Anything, int64(1)).Return(testBooking(domain.ApprovalApproved, domain.ExecutionProcessing), nil).Once()
	got, err := service.ListReceipts(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	bookings.On("GetByID", mock.Anything, int64(2)).Return(nil, domain.NotFoundf("booking 2 not found")).Once()
	_, err = service.ListReceipts(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
