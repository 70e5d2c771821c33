package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/internal/services"
)

// VenueHandler serves venue listings and bookmarks.
type VenueHandler struct {
	venues *services.VenueService
	logger *logrus.Logger
}

// NewVenueHandler creates a new venue handler.
func NewVenueHandler(venues *services.VenueService, logger *logrus.Logger) *VenueHandler {
	return &VenueHandler{venues: venues, logger: logger}
}

// ListVenues handles GET /api/v1/venues?city=...&user_id=....
func (h *VenueHandler) ListVenues(c *gin.Context) {
	var userID *uuid.UUID
	if s := c.Query("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respondValidation(c, "user_id must be a valid UUID")
			return
		}
		userID = &id
	}

	venues, err := h.venues.ListVenues(c.Query("city"), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Venues retrieved successfully", venues)
}

// GetVenue handles GET /api/v1/venues/:id.
func (h *VenueHandler) GetVenue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondValidation(c, "venue id must be a valid UUID")
		return
	}

	venue, err := h.venues.GetVenue(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Venue retrieved successfully", venue)
}

// SaveVenue handles POST /api/v1/venues/save.
func (h *VenueHandler) SaveVenue(c *gin.Context) {
	var req models.SaveVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.venues.SaveVenue(&req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Venue saved successfully", nil)
}

// UnsaveVenue handles DELETE /api/v1/venues/save.
func (h *VenueHandler) UnsaveVenue(c *gin.Context) {
	var req models.SaveVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.venues.UnsaveVenue(&req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Venue removed from saved list", nil)
}

// SavedVenues handles GET /api/v1/venues/saved?user_id=....
func (h *VenueHandler) SavedVenues(c *gin.Context) {
	idStr := c.Query("user_id")
	if idStr == "" {
		respondValidation(c, "user_id is required")
		return
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		respondValidation(c, "user_id must be a valid UUID")
		return
	}

	venues, err := h.venues.ListVenues("", &userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	saved := []models.VenueResponse{}
	for _, v := range venues {
		if v.IsSaved {
			saved = append(saved, v)
		}
	}
	respondOK(c, "Saved venues retrieved successfully", saved)
}
