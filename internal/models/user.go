package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Device types accepted for push notification tokens.
const (
	DeviceTypeAndroid = "android"
	DeviceTypeIOS     = "ios"
	DeviceTypeWeb     = "web"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	City         string    `json:"city" db:"city"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DeviceToken is a push notification token bound to a user.
type DeviceToken struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Token      string    `json:"token" db:"token"`
	DeviceType string    `json:"device_type" db:"device_type"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	City     string `json:"city"`
}

// Validate checks the registration fields beyond what binding covers.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(r.Phone) < 10 {
		return fmt.Errorf("phone number is too short")
	}
	return nil
}

// LoginRequest is the payload for email/password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// RegisterDeviceRequest registers or reactivates an FCM device token.
type RegisterDeviceRequest struct {
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	Token      string    `json:"token" binding:"required"`
	DeviceType string    `json:"device_type"`
}

// Validate ensures the device type, when provided, is a known one.
func (r *RegisterDeviceRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(r.Token) == "" {
		return fmt.Errorf("token is required")
	}
	switch r.DeviceType {
	case "", DeviceTypeAndroid, DeviceTypeIOS, DeviceTypeWeb:
		return nil
	}
	return fmt.Errorf("device_type must be one of android, ios, web")
}
