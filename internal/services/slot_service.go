package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
)

// SlotService computes availability grids from venue operating hours and
// the persisted slot calendar. Nothing is written; slot rows appear only
// when a booking claims them.
type SlotService struct {
	venues       *database.VenueRepository
	slots        *database.SlotRepository
	slotDuration time.Duration
	logger       *logrus.Logger
}

// NewSlotService creates a new slot service.
func NewSlotService(venues *database.VenueRepository, slots *database.SlotRepository, slotDuration time.Duration, logger *logrus.Logger) *SlotService {
	return &SlotService{
		venues:       venues,
		slots:        slots,
		slotDuration: slotDuration,
		logger:       logger,
	}
}

// GenerateSlots builds the availability grid for a venue on a date. A slot
// is reported booked when a persisted row holds it or when its end is not
// in the future anymore.
func (s *SlotService) GenerateSlots(venueID uuid.UUID, dateStr string) (*models.SlotGrid, error) {
	date, err := time.ParseInLocation(models.DateLayout, dateStr, time.Local)
	if err != nil {
		return nil, apperrors.Validation("invalid date format, use YYYY-MM-DD")
	}

	venue, err := s.venues.GetVenueByID(venueID)
	if err != nil {
		return nil, apperrors.Internal("failed to load venue", err)
	}
	if venue == nil {
		return nil, apperrors.NotFound("venue")
	}
	if venue.OpeningTime == nil || venue.ClosingTime == nil {
		return nil, apperrors.Configuration("venue operating hours are not configured")
	}

	opening, err := time.Parse(models.TimeLayout, *venue.OpeningTime)
	if err != nil {
		return nil, apperrors.Configuration(fmt.Sprintf("venue has an invalid opening time %q", *venue.OpeningTime))
	}
	closing, err := time.Parse(models.TimeLayout, *venue.ClosingTime)
	if err != nil {
		return nil, apperrors.Configuration(fmt.Sprintf("venue has an invalid closing time %q", *venue.ClosingTime))
	}

	bookedRows, err := s.slots.GetBookedSlots(venueID, date)
	if err != nil {
		return nil, apperrors.Internal("failed to load booked slots", err)
	}
	booked := make(map[string]bool, len(bookedRows))
	for _, row := range bookedRows {
		booked[row.StartTime+"-"+row.EndTime] = true
	}

	now := time.Now()
	grid := &models.SlotGrid{
		VenueID: venueID,
		Date:    dateStr,
		Slots:   []models.GeneratedSlot{},
	}
	for current := opening; current.Before(closing); current = current.Add(s.slotDuration) {
		end := current.Add(s.slotDuration)
		startStr := current.Format(models.TimeLayout)
		endStr := end.Format(models.TimeLayout)

		y, m, d := date.Date()
		endAt := time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, now.Location())

		grid.Slots = append(grid.Slots, models.GeneratedSlot{
			StartTime: current.Format(models.DisplayTimeLayout),
			EndTime:   end.Format(models.DisplayTimeLayout),
			IsBooked:  booked[startStr+"-"+endStr] || !endAt.After(now),
			Price:     venue.Price,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"venue_id": venueID,
		"date":     dateStr,
		"slots":    len(grid.Slots),
	}).Debug("Generated slot grid")
	return grid, nil
}
