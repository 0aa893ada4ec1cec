package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type submitBookingRequest struct {
	ProgramID    int64  `json:"program_id"`
	LearnerID    int64  `json:"learner_id"`
	ParentID     int64  `json:"parent_id"`
	BookDate     string `json:"book_date"`
	SessionCount int    `json:"session_count"`
	Notes        string `json:"notes"`
}

type declineRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type assignTutorRequest struct {
	TutorID int64 `json:"tutor_id" binding:"required,gt=0"`
}

type executionRequest struct {
	Status string `json:"status" binding:"required"`
}

type receiptRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type" binding:"required"`
	Method   string          `json:"method"`
	PaidAt   *time.Time      `json:"paid_at"`
	ProofRef string          `json:"proof_ref"`
}

type failedPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Reason    string          `json:"reason"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.submit)
	router.GET("/:id", h.get)
	router.POST("/:id/approve", h.approve)
	router.POST("/:id/decline", h.decline)
	router.PUT("/:id/tutor", h.assignTutor)
	router.PUT("/:id/execution", h.advance)
	router.POST("/:id/cancel", h.cancel)
	router.GET("/:id/receipts", h.listReceipts)
	router.POST("/:id/receipts", h.recordReceipt)
	router.POST("/:id/payment-failures", h.recordFailedPayment)
}

func (h *BookingHandler) submit(c *gin.Context) {
	var req submitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var bookDate time.Time
	if req.BookDate != "" {
		parsed, err := time.Parse(dateLayout, req.BookDate)
		if err != nil {
			writeError(c, domain.Validationf("book_date must be formatted as %s", dateLayout))
			return
		}
		bookDate = parsed
	}

	sub, err := h.service.SubmitBooking(c.Request.Context(), booking.SubmitBookingInput{
		ProgramID:    req.ProgramID,
		LearnerID:    req.LearnerID,
		ParentID:     req.ParentID,
		BookDate:     bookDate,
		SessionCount: req.SessionCount,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submissionResponse{
		Booking: newBookingResponse(sub.Booking),
		Quote:   newQuoteResponse(sub.Quote),
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingViewResponse{
		bookingResponse: newBookingResponse(view.Booking),
		Payment:         newPaymentResponse(view.Payment),
	})
}

func (h *BookingHandler) approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func() (*domain.Booking, error) {
		return h.service.Approve(c.Request.Context(), id)
	})
}

func (h *BookingHandler) decline(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req declineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.respond(c, func() (*domain.Booking, error) {
		return h.service.Decline(c.Request.Context(), id, req.Reason)
	})
}

func (h *BookingHandler) assignTutor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.respond(c, func() (*domain.Booking, error) {
		return h.service.AssignTutor(c.Request.Context(), id, req.TutorID)
	})
}

func (h *BookingHandler) advance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req executionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.respond(c, func() (*domain.Booking, error) {
		return h.service.AdvanceExecution(c.Request.Context(), id, domain.ExecutionStatus(req.Status))
	})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c, func() (*domain.Booking, error) {
		return h.service.Cancel(c.Request.Context(), id)
	})
}

func (h *BookingHandler) listReceipts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	receipts, err := h.service.ListReceipts(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]receiptResponse, 0, len(receipts))
	for _, r := range receipts {
		resp = append(resp, newReceiptResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) recordReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req receiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := booking.ReceiptInput{
		Amount:   req.Amount,
		Type:     domain.ReceiptType(req.Type),
		Method:   req.Method,
		ProofRef: req.ProofRef,
	}
	if req.PaidAt != nil {
		input.PaidAt = *req.PaidAt
	}

	receipt, summary, err := h.service.RecordReceipt(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receiptRecordedResponse{
		Receipt: newReceiptResponse(*receipt),
		Payment: newPaymentResponse(summary),
	})
}

func (h *BookingHandler) recordFailedPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req failedPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.service.RecordFailedPayment(c.Request.Context(), id, booking.FailedPaymentInput{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReceiptResponse(*receipt))
}

func (h *BookingHandler) respond(c *gin.Context, op func() (*domain.Booking, error)) {
	b, err := op()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}
