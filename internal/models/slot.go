package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Time layouts used across the booking domain. Slot times are persisted in
// 24-hour form so that lexicographic ordering matches chronological
// ordering; the 12-hour form is presentation only.
const (
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04"
	DisplayTimeLayout = "03:04 PM"
)

// Slot is a persisted one-hour interval on a venue's calendar. Rows are
// created lazily when a slot is first claimed by a booking.
type Slot struct {
	ID        uuid.UUID `json:"id" db:"id"`
	VenueID   uuid.UUID `json:"venue_id" db:"venue_id"`
	Date      time.Time `json:"date" db:"date"`
	StartTime string    `json:"start_time" db:"start_time"`
	EndTime   string    `json:"end_time" db:"end_time"`
	Price     float64   `json:"price" db:"price"`
	IsBooked  bool      `json:"is_booked" db:"is_booked"`
}

// EndsAfter reports whether the slot's end instant is strictly after ref.
func (s *Slot) EndsAfter(ref time.Time) bool {
	end, err := time.ParseInLocation(TimeLayout, s.EndTime, ref.Location())
	if err != nil {
		return false
	}
	y, m, d := s.Date.Date()
	endAt := time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, ref.Location())
	return endAt.After(ref)
}

// SlotRange is a requested slot interval in 24-hour "HH:MM" form.
type SlotRange struct {
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// Validate parses both endpoints and checks ordering.
func (r *SlotRange) Validate() error {
	start, err := time.Parse(TimeLayout, r.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time %q, use HH:MM", r.StartTime)
	}
	end, err := time.Parse(TimeLayout, r.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time %q, use HH:MM", r.EndTime)
	}
	if !end.After(start) {
		return fmt.Errorf("end_time %q must be after start_time %q", r.EndTime, r.StartTime)
	}
	return nil
}

// GeneratedSlot is one entry in a computed availability grid.
type GeneratedSlot struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	IsBooked  bool    `json:"is_booked"`
	Price     float64 `json:"price"`
}

// SlotGrid is the availability response for a venue on a date.
type SlotGrid struct {
	VenueID uuid.UUID       `json:"venue_id"`
	Date    string          `json:"date"`
	Slots   []GeneratedSlot `json:"slots"`
}
