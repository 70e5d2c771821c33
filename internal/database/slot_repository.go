package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AnandNexkites/citypattle/internal/models"
)

// SlotRepository reads the persisted slot calendar. Writes happen inside
// booking transactions in BookingRepository.
type SlotRepository struct {
	db DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// GetBookedSlots returns the booked slot rows for a venue on a date.
func (r *SlotRepository) GetBookedSlots(venueID uuid.UUID, date time.Time) ([]models.Slot, error) {
	query := `
		SELECT id, venue_id, date, start_time, end_time, price, is_booked
		FROM slots
		WHERE venue_id = $1 AND date = $2 AND is_booked = TRUE
		ORDER BY start_time`

	var slots []models.Slot
	if err := r.db.Select(&slots, query, venueID, date.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("failed to get booked slots: %w", err)
	}
	return slots, nil
}
