package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/service/booking"
	"github.com/Domenick1991/tutorbooking/internal/service/programs"
	"github.com/gin-gonic/gin"
)

type ProgramHandler struct {
	programs programs.ProgramUseCase
	bookings booking.BookingUseCase
}

func NewProgramHandler(programs programs.ProgramUseCase, bookings booking.BookingUseCase) *ProgramHandler {
	return &ProgramHandler{programs: programs, bookings: bookings}
}

func (h *ProgramHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/quote", h.quote)
}

func (h *ProgramHandler) list(c *gin.Context) {
	list, err := h.programs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]programResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, newProgramResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProgramHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	program, err := h.programs.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProgramResponse(*program))
}

// quote prices a program: GET /programs/:id/quote?sessions=8&date=2026-12-01.
// Without a date, time-dependent factors are left out.
func (h *ProgramHandler) quote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sessions, err := strconv.Atoi(c.Query("sessions"))
	if err != nil {
		writeError(c, domain.Validationf("sessions must be an integer"))
		return
	}

	var target *time.Time
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(c, domain.Validationf("date must be formatted as %s", dateLayout))
			return
		}
		target = &date
	}

	q, err := h.bookings.Quote(c.Request.Context(), id, sessions, target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteResponse(q))
}
