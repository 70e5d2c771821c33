package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Venue is a bookable sports venue. Opening and closing times are stored as
// 24-hour "HH:MM" strings and may be unset for venues that have not been
// configured yet.
type Venue struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Address     string    `json:"address" db:"address"`
	City        string    `json:"city" db:"city"`
	Club        string    `json:"club" db:"club"`
	Contact     string    `json:"contact" db:"contact"`
	MapURL      string    `json:"map_url" db:"map_url"`
	OpeningTime *string   `json:"opening_time" db:"opening_time"`
	ClosingTime *string   `json:"closing_time" db:"closing_time"`
	Price       float64   `json:"price" db:"price"`
	Ratings     float64   `json:"ratings" db:"ratings"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// VenueImage is a gallery image attached to a venue.
type VenueImage struct {
	ID       uuid.UUID `json:"id" db:"id"`
	VenueID  uuid.UUID `json:"venue_id" db:"venue_id"`
	ImageURL string    `json:"image_url" db:"image_url"`
}

// VenueResponse is a venue with its image gallery and saved flag.
type VenueResponse struct {
	Venue
	Images  []string `json:"images"`
	IsSaved bool     `json:"is_saved"`
}

// VenueSummary is the venue projection embedded in booking listings.
type VenueSummary struct {
	ID           uuid.UUID `json:"id" db:"venue_id"`
	Name         string    `json:"name" db:"venue_name"`
	Contact      string    `json:"contact" db:"venue_contact"`
	Club         string    `json:"club" db:"venue_club"`
	Address      string    `json:"address" db:"venue_address"`
	PricePerSlot float64   `json:"price_per_slot" db:"venue_price"`
}

// SavedVenue is a user's bookmarked venue.
type SavedVenue struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	VenueID   uuid.UUID `json:"venue_id" db:"venue_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SaveVenueRequest bookmarks or removes a venue for a user.
type SaveVenueRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	VenueID uuid.UUID `json:"venue_id" binding:"required"`
}

// Validate checks both identifiers are present.
func (r *SaveVenueRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if r.VenueID == uuid.Nil {
		return fmt.Errorf("venue_id is required")
	}
	return nil
}
