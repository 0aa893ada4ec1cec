package api

import (
	"fmt"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/ledger"
)

const dateLayout = "2006-01-02"

type programResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	BasePrice   string   `json:"base_price"`
	MinSessions int      `json:"min_sessions"`
	Setting     string   `json:"setting"`
	Days        []string `json:"days"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
}

type quoteResponse struct {
	ProgramID            int64   `json:"program_id"`
	SessionCount         int     `json:"session_count"`
	BasePricePerSession  string  `json:"base_price_per_session"`
	FinalPricePerSession string  `json:"final_price_per_session"`
	SessionTierDiscount  string  `json:"session_tier_discount"`
	SettingDiscount      string  `json:"setting_discount"`
	TimeOfDayDiscount    string  `json:"time_of_day_discount"`
	DayOfWeekDiscount    string  `json:"day_of_week_discount"`
	TotalDiscount        string  `json:"total_discount"`
	FinalTotal           string  `json:"final_total"`
	DiscountTier         string  `json:"discount_tier"`
	Breakdown            string  `json:"breakdown"`
	TargetDate           *string `json:"target_date,omitempty"`
	Authoritative        bool    `json:"authoritative"`
}

type bookingResponse struct {
	ID              int64  `json:"id"`
	ProgramID       int64  `json:"program_id"`
	LearnerID       int64  `json:"learner_id"`
	ParentID        int64  `json:"parent_id"`
	TutorID         *int64 `json:"tutor_id,omitempty"`
	BookDate        string `json:"book_date"`
	SessionCount    int    `json:"session_count"`
	Amount          string `json:"amount"`
	ApprovalStatus  string `json:"approval_status"`
	ExecutionStatus string `json:"execution_status"`
	DeclineReason   string `json:"decline_reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Version         int64  `json:"version"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type paymentResponse struct {
	Status    string `json:"payment_status"`
	Total     string `json:"total"`
	Paid      string `json:"paid"`
	Remaining string `json:"remaining"`
}

type bookingViewResponse struct {
	bookingResponse
	Payment paymentResponse `json:"payment"`
}

type submissionResponse struct {
	Booking bookingResponse `json:"booking"`
	Quote   quoteResponse   `json:"quote"`
}

type receiptResponse struct {
	ID        int64  `json:"id"`
	BookingID int64  `json:"booking_id"`
	Amount    string `json:"amount"`
	Type      string `json:"type"`
	Method    string `json:"method,omitempty"`
	PaidAt    string `json:"paid_at"`
	ProofRef  string `json:"proof_ref,omitempty"`
	Status    string `json:"status"`
}

type receiptRecordedResponse struct {
	Receipt receiptResponse `json:"receipt"`
	Payment paymentResponse `json:"payment"`
}

type refundResponse struct {
	ID         int64   `json:"id"`
	BookingID  int64   `json:"booking_id"`
	Reason     string  `json:"reason"`
	Amount     string  `json:"amount"`
	Status     string  `json:"status"`
	AdminNotes string  `json:"admin_notes,omitempty"`
	CreatedAt  string  `json:"created_at"`
	DecidedAt  *string `json:"decided_at,omitempty"`
}

type eligibilityResponse struct {
	Eligible  bool     `json:"eligible"`
	Reasons   []string `json:"reasons"`
	TotalPaid string   `json:"total_paid"`
}

func newProgramResponse(p domain.Program) programResponse {
	days := p.Days
	if days == nil {
		days = []string{}
	}
	return programResponse{
		ID:          p.ID,
		Name:        p.Name,
		BasePrice:   p.BasePrice.StringFixed(2),
		MinSessions: p.MinSessions,
		Setting:     string(p.Setting),
		Days:        days,
		StartTime:   clock(p.StartTime),
		EndTime:     clock(p.EndTime),
	}
}

func newQuoteResponse(q domain.PriceQuote) quoteResponse {
	resp := quoteResponse{
		ProgramID:            q.ProgramID,
		SessionCount:         q.SessionCount,
		BasePricePerSession:  q.BasePricePerSession.StringFixed(2),
		FinalPricePerSession: q.FinalPricePerSession.StringFixed(2),
		SessionTierDiscount:  q.SessionTierDiscount.String(),
		SettingDiscount:      q.SettingDiscount.String(),
		TimeOfDayDiscount:    q.TimeOfDayDiscount.String(),
		DayOfWeekDiscount:    q.DayOfWeekDiscount.String(),
		TotalDiscount:        q.TotalDiscount.String(),
		FinalTotal:           q.FinalTotal.StringFixed(2),
		DiscountTier:         string(q.Tier),
		Breakdown:            q.Breakdown,
		Authoritative:        q.Authoritative,
	}
	if q.TargetDate != nil {
		d := q.TargetDate.Format(dateLayout)
		resp.TargetDate = &d
	}
	return resp
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		ProgramID:       b.ProgramID,
		LearnerID:       b.LearnerID,
		ParentID:        b.ParentID,
		TutorID:         b.TutorID,
		BookDate:        b.BookDate.Format(dateLayout),
		SessionCount:    b.SessionCount,
		Amount:          b.Amount.StringFixed(2),
		ApprovalStatus:  string(b.Approval),
		ExecutionStatus: string(b.Execution),
		DeclineReason:   b.DeclineReason,
		Notes:           b.Notes,
		Version:         b.Version,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
}

func newPaymentResponse(s ledger.Summary) paymentResponse {
	return paymentResponse{
		Status:    string(s.Status),
		Total:     s.Total.StringFixed(2),
		Paid:      s.Paid.StringFixed(2),
		Remaining: s.Remaining.StringFixed(2),
	}
}

func newReceiptResponse(r domain.Receipt) receiptResponse {
	return receiptResponse{
		ID:        r.ID,
		BookingID: r.BookingID,
		Amount:    r.Amount.StringFixed(2),
		Type:      string(r.Type),
		Method:    r.Method,
		PaidAt:    r.PaidAt.Format(time.RFC3339),
		ProofRef:  r.ProofRef,
		Status:    string(r.Status),
	}
}

func newRefundResponse(r domain.RefundRequest) refundResponse {
	resp := refundResponse{
		ID:         r.ID,
		BookingID:  r.BookingID,
		Reason:     r.Reason,
		Amount:     r.Amount.StringFixed(2),
		Status:     string(r.Status),
		AdminNotes: r.AdminNotes,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		d := r.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &d
	}
	return resp
}

func clock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
