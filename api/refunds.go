package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/Domenick1991/tutorbooking/internal/service/refund"
	"github.com/gin-gonic/gin"
)

type RefundHandler struct {
	service refund.RefundUseCase
}

type refundRequest struct {
	Reason string `json:"reason"`
}

type decisionRequest struct {
	Notes string `json:"notes"`
}

func NewRefundHandler(service refund.RefundUseCase) *RefundHandler {
	return &RefundHandler{service: service}
}

// Register mounts the per-booking refund routes on bookings and the admin
// decisions on refunds.
func (h *RefundHandler) Register(bookings, refunds *gin.RouterGroup) {
	bookings.GET("/:id/refund-eligibility", h.eligibility)
	bookings.GET("/:id/refunds", h.list)
	bookings.POST("/:id/refunds", h.request)
	refunds.POST("/:id/approve", h.approve)
	refunds.POST("/:id/reject", h.reject)
}

func (h *RefundHandler) eligibility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.Eligibility(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	reasons := e.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	c.JSON(http.StatusOK, eligibilityResponse{
		Eligible:  e.Eligible,
		Reasons:   reasons,
		TotalPaid: e.TotalPaid.StringFixed(2),
	})
}

func (h *RefundHandler) list(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	refunds, err := h.service.ListRefunds(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]refundResponse, 0, len(refunds))
	for _, r := range refunds {
		resp = append(resp, newRefundResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RefundHandler) request(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	r, err := h.service.RequestRefund(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRefundResponse(*r))
}

func (h *RefundHandler) approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notes, ok := decisionNotes(c)
	if !ok {
		return
	}
	r, err := h.service.ApproveRefund(c.Request.Context(), id, notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRefundResponse(*r))
}

func (h *RefundHandler) reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notes, ok := decisionNotes(c)
	if !ok {
		return
	}
	r, err := h.service.RejectRefund(c.Request.Context(), id, notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRefundResponse(*r))
}

// decisionNotes reads the optional admin notes; an empty body is allowed.
func decisionNotes(c *gin.Context) (string, bool) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return "", false
	}
	return req.Notes, true
}
