package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AnandNexkites/citypattle/internal/models"
)

// VenueRepository handles venue, image and saved-venue persistence.
type VenueRepository struct {
	db DB
}

// NewVenueRepository creates a new venue repository.
func NewVenueRepository(db DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// GetVenueByID retrieves a venue by ID. Returns nil when no venue exists.
func (r *VenueRepository) GetVenueByID(id uuid.UUID) (*models.Venue, error) {
	var venue models.Venue
	query := `
		SELECT id, name, address, city, club, contact, map_url,
		       opening_time, closing_time, price, ratings, created_at
		FROM venues
		WHERE id = $1`

	err := r.db.Get(&venue, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get venue by id: %w", err)
	}
	return &venue, nil
}

// ListVenues returns all venues ordered by rating, optionally filtered to a
// city.
func (r *VenueRepository) ListVenues(city string) ([]models.Venue, error) {
	query := `
		SELECT id, name, address, city, club, contact, map_url,
		       opening_time, closing_time, price, ratings, created_at
		FROM venues`
	args := []interface{}{}
	if city != "" {
		query += ` WHERE city = $1`
		args = append(args, city)
	}
	query += ` ORDER BY ratings DESC, name ASC`

	var venues []models.Venue
	if err := r.db.Select(&venues, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	return venues, nil
}

// GetVenueImages returns the gallery images for a set of venues.
func (r *VenueRepository) GetVenueImages(venueIDs []uuid.UUID) ([]models.VenueImage, error) {
	if len(venueIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, venue_id, image_url
		FROM venue_images
		WHERE venue_id IN (?)
		ORDER BY venue_id, id`, venueIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build venue images query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var images []models.VenueImage
	if err := r.db.Select(&images, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get venue images: %w", err)
	}
	return images, nil
}

// SaveVenue bookmarks a venue for a user. Saving twice is a no-op.
func (r *VenueRepository) SaveVenue(userID, venueID uuid.UUID) error {
	query := `
		INSERT INTO saved_venues (id, user_id, venue_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, venue_id) DO NOTHING`

	if _, err := r.db.Exec(query, uuid.New(), userID, venueID); err != nil {
		return fmt.Errorf("failed to save venue: %w", err)
	}
	return nil
}

// UnsaveVenue removes a bookmark. Returns false when nothing was saved.
func (r *VenueRepository) UnsaveVenue(userID, venueID uuid.UUID) (bool, error) {
	query := `DELETE FROM saved_venues WHERE user_id = $1 AND venue_id = $2`

	result, err := r.db.Exec(query, userID, venueID)
	if err != nil {
		return false, fmt.Errorf("failed to unsave venue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// SavedVenueIDs returns the set of venue IDs a user has bookmarked.
func (r *VenueRepository) SavedVenueIDs(userID uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT venue_id FROM saved_venues WHERE user_id = $1`

	var ids []uuid.UUID
	if err := r.db.Select(&ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get saved venue ids: %w", err)
	}

	saved := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		saved[id] = true
	}
	return saved, nil
}
