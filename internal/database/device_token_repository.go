package database

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AnandNexkites/citypattle/internal/models"
)

// DeviceTokenRepository handles push notification token persistence.
type DeviceTokenRepository struct {
	db DB
}

// NewDeviceTokenRepository creates a new device token repository.
func NewDeviceTokenRepository(db DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// UpsertToken registers a token for a user. A token seen before is rebound
// to the registering user and reactivated.
func (r *DeviceTokenRepository) UpsertToken(userID uuid.UUID, token, deviceType string) (*models.DeviceToken, error) {
	query := `
		INSERT INTO device_tokens (id, user_id, token, device_type, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    device_type = EXCLUDED.device_type,
		    is_active = TRUE,
		    updated_at = NOW()
		RETURNING id, user_id, token, device_type, is_active, created_at, updated_at`

	var dt models.DeviceToken
	err := r.db.Get(&dt, query, uuid.New(), userID, token, deviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}
	return &dt, nil
}

// GetActiveTokens returns the active tokens registered to a user.
func (r *DeviceTokenRepository) GetActiveTokens(userID uuid.UUID) ([]models.DeviceToken, error) {
	query := `
		SELECT id, user_id, token, device_type, is_active, created_at, updated_at
		FROM device_tokens
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY updated_at DESC`

	var tokens []models.DeviceToken
	if err := r.db.Select(&tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get active tokens: %w", err)
	}
	return tokens, nil
}

// DeactivateToken marks a token inactive, typically after the push gateway
// reports it as no longer registered.
func (r *DeviceTokenRepository) DeactivateToken(token string) error {
	query := `UPDATE device_tokens SET is_active = FALSE, updated_at = NOW() WHERE token = $1`
	if _, err := r.db.Exec(query, token); err != nil {
		return fmt.Errorf("failed to deactivate token: %w", err)
	}
	return nil
}
