package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightdesk/internal/auth"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     logrus.FieldLogger
}

type createBookingRequest struct {
	FlightID   string `json:"flight_id" binding:"required"`
	PassportNo string `json:"passport_no"`
	SeatNo     string `json:"seat_no" binding:"required,seatno"`
	Class      string `json:"class" binding:"omitempty,oneof=Economy Business economy business"`
	Name       string `json:"name" binding:"required,max=120"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone" binding:"max=32"`
	Address    string `json:"address" binding:"max=255"`
	Gender     string `json:"gender" binding:"max=16"`
	DOB        string `json:"dob" binding:"omitempty,isodate"`
}

type createBookingResponse struct {
	OK bool `json:"ok"`
	*booking.CreateBookingResult
	Price string `json:"price"`
}

type cancelResponse struct {
	OK bool `json:"ok"`
	*booking.CancelResult
}

type undoResponse struct {
	OK bool `json:"ok"`
	*booking.UndoResult
}

type rescheduleRequest struct {
	NewDate     string `json:"new_date" binding:"required,isodate"`
	NewFlightID string `json:"new_flight_id"`
	NewSeat     string `json:"new_seat" binding:"omitempty,seatno"`
	Reason      string `json:"reason" binding:"max=500"`
	AutoProcess bool   `json:"auto_process"`
}

type rescheduleResponse struct {
	OK bool `json:"ok"`
	*booking.RescheduleResult
}

type bookingResponse struct {
	OK      bool            `json:"ok"`
	Booking *domain.Booking `json:"booking"`
}

type bookingListResponse struct {
	OK       bool             `json:"ok"`
	Bookings []domain.Booking `json:"bookings"`
}

func NewBookingHandler(service booking.BookingUseCase, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.listMine)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
	router.POST("/:id/undo-cancel", h.undoCancel)
	router.POST("/:id/reschedule", h.reschedule)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	input := booking.CreateBookingInput{
		FlightID:   req.FlightID,
		PassportNo: req.PassportNo,
		SeatNo:     req.SeatNo,
		Class:      req.Class,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		Gender:     req.Gender,
	}
	if req.DOB != "" {
		dob, _ := time.Parse("2006-01-02", req.DOB)
		input.DOB = &dob
	}

	result, err := h.service.CreateBooking(c.Request.Context(), auth.CallerFrom(c), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, createBookingResponse{OK: true, CreateBookingResult: result, Price: formatCents(result.PriceCents)})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	result, err := h.service.CancelBooking(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cancelResponse{OK: true, CancelResult: result})
}

func (h *BookingHandler) undoCancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	result, err := h.service.UndoCancel(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, undoResponse{OK: true, UndoResult: result})
}

func (h *BookingHandler) reschedule(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.service.Reschedule(c.Request.Context(), auth.CallerFrom(c), booking.RescheduleInput{
		BookingID:   id,
		NewDate:     req.NewDate,
		NewFlightID: req.NewFlightID,
		NewSeat:     req.NewSeat,
		Reason:      req.Reason,
		AutoProcess: req.AutoProcess,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rescheduleResponse{OK: true, RescheduleResult: result})
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bookingResponse{OK: true, Booking: b})
}

func (h *BookingHandler) listMine(c *gin.Context) {
	list, err := h.service.ListMyBookings(c.Request.Context(), auth.CallerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bookingListResponse{OK: true, Bookings: list})
}

func bookingID(c *gin.Context) (int64, bool) {
	return pathID(c, "id", "booking id")
}

func pathID(c *gin.Context, param, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid " + what})
		return 0, false
	}
	return id, true
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
