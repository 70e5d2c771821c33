package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
)

// VenueService serves venue listings and saved-venue bookmarks.
type VenueService struct {
	venues *database.VenueRepository
	logger *logrus.Logger
}

// NewVenueService creates a new venue service.
func NewVenueService(venues *database.VenueRepository, logger *logrus.Logger) *VenueService {
	return &VenueService{venues: venues, logger: logger}
}

// ListVenues returns all venues with their galleries. When userID is
// non-nil the saved flag reflects that user's bookmarks.
func (s *VenueService) ListVenues(city string, userID *uuid.UUID) ([]models.VenueResponse, error) {
	venues, err := s.venues.ListVenues(city)
	if err != nil {
		return nil, apperrors.Internal("failed to list venues", err)
	}
	if len(venues) == 0 {
		return []models.VenueResponse{}, nil
	}

	ids := make([]uuid.UUID, len(venues))
	for i, v := range venues {
		ids[i] = v.ID
	}
	images, err := s.venues.GetVenueImages(ids)
	if err != nil {
		return nil, apperrors.Internal("failed to load venue images", err)
	}
	imagesByVenue := make(map[uuid.UUID][]string)
	for _, img := range images {
		imagesByVenue[img.VenueID] = append(imagesByVenue[img.VenueID], img.ImageURL)
	}

	saved := map[uuid.UUID]bool{}
	if userID != nil {
		saved, err = s.venues.SavedVenueIDs(*userID)
		if err != nil {
			return nil, apperrors.Internal("failed to load saved venues", err)
		}
	}

	out := make([]models.VenueResponse, len(venues))
	for i, v := range venues {
		gallery := imagesByVenue[v.ID]
		if gallery == nil {
			gallery = []string{}
		}
		out[i] = models.VenueResponse{Venue: v, Images: gallery, IsSaved: saved[v.ID]}
	}
	return out, nil
}

// GetVenue returns one venue with its gallery.
func (s *VenueService) GetVenue(id uuid.UUID) (*models.VenueResponse, error) {
	venue, err := s.venues.GetVenueByID(id)
	if err != nil {
		return nil, apperrors.Internal("failed to load venue", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue")
	}

	images, err := s.venues.GetVenueImages([]uuid.UUID{id})
	if err != nil {
		return nil, apperrors.Internal("failed to load venue images", err)
	}
	gallery := make([]string, 0, len(images))
	for _, img := range images {
		gallery = append(gallery, img.ImageURL)
	}
	return &models.VenueResponse{Venue: *venue, Images: gallery}, nil
}

// SaveVenue bookmarks a venue for a user.
func (s *VenueService) SaveVenue(req *models.SaveVenueRequest) error {
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}
	venue, err := s.venues.GetVenueByID(req.VenueID)
	if err != nil {
		return apperrors.Internal("failed to load venue", err)
	}
	if venue == nil {
		return apperrors.NotFound("venue")
	}
	if err := s.venues.SaveVenue(req.UserID, req.VenueID); err != nil {
		return apperrors.Internal("failed to save venue", err)
	}
	return nil
}

// UnsaveVenue removes a bookmark.
func (s *VenueService) UnsaveVenue(req *models.SaveVenueRequest) error {
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}
	removed, err := s.venues.UnsaveVenue(req.UserID, req.VenueID)
	if err != nil {
		return apperrors.Internal("failed to unsave venue", err)
	}
	if !removed {
		return apperrors.NotFound("saved venue")
	}
	return nil
}
