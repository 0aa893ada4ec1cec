package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDeclined ApprovalStatus = "declined"
)

type ExecutionStatus string

const (
	ExecutionProcessing ExecutionStatus = "processing"
	ExecutionActive     ExecutionStatus = "active"
	ExecutionCompleted  ExecutionStatus = "completed"
	ExecutionCancelled  ExecutionStatus = "cancelled"
)

func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionProcessing, ExecutionActive, ExecutionCompleted, ExecutionCancelled:
		return true
	}
	return false
}

func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionCancelled
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking is a parent's reservation of a program. Payment status is never
// stored on it; see the ledger package.
type Booking struct {
	ID            int64
	ProgramID     int64
	LearnerID     int64
	ParentID      int64
	TutorID       *int64
	BookDate      time.Time
	SessionCount  int
	Amount        decimal.Decimal
	Approval      ApprovalStatus
	Execution     ExecutionStatus
	DeclineReason string
	Notes         string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Approve moves the approval axis from pending to approved.
func (b *Booking) Approve() error {
	if b.Approval != ApprovalPending {
		return &TransitionError{Axis: "approval", From: string(b.Approval), To: string(ApprovalApproved)}
	}
	b.Approval = ApprovalApproved
	return nil
}

// Decline is terminal on the approval axis and needs a reason.
func (b *Booking) Decline(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Validationf("decline reason is required")
	}
	if b.Approval != ApprovalPending {
		return &TransitionError{Axis: "approval", From: string(b.Approval), To: string(ApprovalDeclined)}
	}
	b.Approval = ApprovalDeclined
	b.DeclineReason = reason
	return nil
}

func (b *Booking) AssignTutor(tutorID int64) error {
	if tutorID <= 0 {
		return Validationf("tutor id must be positive")
	}
	if b.Approval != ApprovalApproved {
		return Preconditionf("tutor can only be assigned to an approved booking, approval is %s", b.Approval)
	}
	if b.Execution.Terminal() {
		return Preconditionf("tutor cannot be assigned to a %s booking", b.Execution)
	}
	b.TutorID = &tutorID
	return nil
}

// Advance moves the execution axis forward. Cancellation goes through Cancel.
func (b *Booking) Advance(target ExecutionStatus) error {
	if !target.Valid() {
		return Validationf("unknown execution status %q", target)
	}
	if target == ExecutionCancelled {
		return b.Cancel()
	}

	illegal := &TransitionError{Axis: "execution", From: string(b.Execution), To: string(target)}
	if b.Approval == ApprovalDeclined {
		return illegal
	}
	switch {
	case b.Execution == ExecutionProcessing && target == ExecutionActive:
		if b.Approval != ApprovalApproved {
			return illegal
		}
	case b.Execution == ExecutionActive && target == ExecutionCompleted:
	default:
		return illegal
	}
	b.Execution = target
	return nil
}

// Cancel is only possible while the booking is still processing.
func (b *Booking) Cancel() error {
	if b.Execution != ExecutionProcessing {
		return Preconditionf("only processing bookings can be cancelled, booking is %s", b.Execution)
	}
	if b.Approval == ApprovalDeclined {
		return &TransitionError{Axis: "execution", From: string(b.Execution), To: string(ExecutionCancelled)}
	}
	b.Execution = ExecutionCancelled
	return nil
}

// Validate checks the composite state. It runs before every write so an
// illegal combination is never persisted.
func (b *Booking) Validate() error {
	switch b.Approval {
	case ApprovalPending, ApprovalApproved, ApprovalDeclined:
	default:
		return Validationf("unknown approval status %q", b.Approval)
	}
	if !b.Execution.Valid() {
		return Validationf("unknown execution status %q", b.Execution)
	}
	if b.SessionCount < 1 {
		return Validationf("session count must be positive")
	}
	if !b.Amount.IsPositive() {
		return Validationf("booking amount must be positive")
	}

	started := b.Execution == ExecutionActive || b.Execution == ExecutionCompleted
	if started && b.Approval != ApprovalApproved {
		return &TransitionError{Axis: "composite", From: string(b.Approval), To: string(b.Execution)}
	}
	if b.Approval == ApprovalDeclined && b.DeclineReason == "" {
		return Validationf("declined booking must carry a reason")
	}
	if b.TutorID != nil && b.Approval != ApprovalApproved {
		return &TransitionError{Axis: "composite", From: string(b.Approval), To: "tutor_assigned"}
	}
	return nil
}
