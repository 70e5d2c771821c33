package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/internal/services"
)

// BookingHandler serves the reservation lifecycle endpoints.
type BookingHandler struct {
	bookings *services.BookingService
	queries  *services.BookingQueryService
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookings *services.BookingService, queries *services.BookingQueryService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, queries: queries, logger: logger}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.bookings.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondCreated(c, "Booking created successfully", resp)
}

// ConfirmPayment handles POST /api/v1/bookings/confirm.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.bookings.ConfirmPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Payment confirmed successfully", resp)
}

// ActiveBookings handles GET /api/v1/bookings/active?user_id=....
func (h *BookingHandler) ActiveBookings(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}
	views, err := h.queries.ActiveBookings(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Active bookings retrieved successfully", views)
}

// BookingHistory handles GET /api/v1/bookings/history?user_id=....
func (h *BookingHandler) BookingHistory(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}
	views, err := h.queries.BookingHistory(userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Booking history retrieved successfully", views)
}

func (h *BookingHandler) userIDParam(c *gin.Context) (uuid.UUID, bool) {
	userIDStr := c.Query("user_id")
	if userIDStr == "" {
		respondValidation(c, "user_id is required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		respondValidation(c, "user_id must be a valid UUID")
		return uuid.Nil, false
	}
	return userID, true
}
