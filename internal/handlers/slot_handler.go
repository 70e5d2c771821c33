package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/services"
)

// SlotHandler serves the availability grid.
type SlotHandler struct {
	slots  *services.SlotService
	logger *logrus.Logger
}

// NewSlotHandler creates a new slot handler.
func NewSlotHandler(slots *services.SlotService, logger *logrus.Logger) *SlotHandler {
	return &SlotHandler{slots: slots, logger: logger}
}

// GenerateSlots handles GET /api/v1/slots?venue_id=...&date=YYYY-MM-DD.
func (h *SlotHandler) GenerateSlots(c *gin.Context) {
	venueIDStr := c.Query("venue_id")
	dateStr := c.Query("date")
	if venueIDStr == "" || dateStr == "" {
		respondValidation(c, "venue_id and date are required")
		return
	}

	venueID, err := uuid.Parse(venueIDStr)
	if err != nil {
		respondValidation(c, "venue_id must be a valid UUID")
		return
	}

	grid, err := h.slots.GenerateSlots(venueID, dateStr)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Slots generated successfully", grid)
}
