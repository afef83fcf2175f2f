package api

import (
	"net/http"

	"github.com/Domenick1991/flightdesk/internal/auth"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves operator endpoints. Routes are expected behind auth.AdminOnly;
// the service checks the role again.
type AdminHandler struct {
	service booking.BookingUseCase
	log     logrus.FieldLogger
}

type rescheduleListResponse struct {
	OK          bool                           `json:"ok"`
	Reschedules []domain.RescheduleTransaction `json:"reschedules"`
}

func NewAdminHandler(service booking.BookingUseCase, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{service: service, log: log}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights/:id/bookings", h.flightBookings)
	router.GET("/reschedules", h.pendingReschedules)
	router.POST("/reschedules/:id/process", h.processReschedule)
}

func (h *AdminHandler) flightBookings(c *gin.Context) {
	list, err := h.service.ListFlightBookings(c.Request.Context(), auth.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bookingListResponse{OK: true, Bookings: list})
}

func (h *AdminHandler) pendingReschedules(c *gin.Context) {
	list, err := h.service.ListPendingReschedules(c.Request.Context(), auth.CallerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rescheduleListResponse{OK: true, Reschedules: list})
}

func (h *AdminHandler) processReschedule(c *gin.Context) {
	id, ok := pathID(c, "id", "reschedule id")
	if !ok {
		return
	}

	result, err := h.service.ProcessReschedule(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rescheduleResponse{OK: true, RescheduleResult: result})
}
