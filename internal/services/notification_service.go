package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
	"github.com/AnandNexkites/citypattle/pkg/push"
)

// Notifier is the notification capability booking flows depend on.
// Deliveries never block a state transition; callers dispatch in a
// goroutine.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, title, body string) error
}

// NotificationService fans a notification out over a user's active device
// tokens, routing each token to the channel registered for its device
// type.
type NotificationService struct {
	tokens         *database.DeviceTokenRepository
	defaultChannel push.Channel
	channels       map[string]push.Channel
	logger         *logrus.Logger
}

// NewNotificationService creates a notification service that sends
// everything through the default channel until variants are registered.
func NewNotificationService(tokens *database.DeviceTokenRepository, defaultChannel push.Channel, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		tokens:         tokens,
		defaultChannel: defaultChannel,
		channels:       make(map[string]push.Channel),
		logger:         logger,
	}
}

// RegisterChannel routes a device type to a specific channel.
func (s *NotificationService) RegisterChannel(deviceType string, channel push.Channel) {
	s.channels[deviceType] = channel
}

// NotifyUser sends a notification to every active token the user has.
// Tokens the provider reports as dead are deactivated. Per-token delivery
// failures are logged, not returned.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uuid.UUID, title, body string) error {
	tokens, err := s.tokens.GetActiveTokens(userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		s.logger.WithField("user_id", userID).Debug("No active device tokens")
		return nil
	}

	for _, dt := range tokens {
		channel := s.channelFor(dt.DeviceType)
		if err := channel.Send(ctx, dt.Token, title, body); err != nil {
			var notRegistered *push.NotRegisteredError
			if errors.As(err, &notRegistered) {
				if derr := s.tokens.DeactivateToken(dt.Token); derr != nil {
					s.logger.WithError(derr).Warn("Failed to deactivate dead token")
				}
				continue
			}
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"channel": channel.Name(),
			}).Warn("Push delivery failed")
		}
	}
	return nil
}

func (s *NotificationService) channelFor(deviceType string) push.Channel {
	if ch, ok := s.channels[deviceType]; ok {
		return ch
	}
	return s.defaultChannel
}

// RegisterDevice stores or reactivates a device token for a user. An empty
// device type falls back to web.
func (s *NotificationService) RegisterDevice(req *models.RegisterDeviceRequest) (*models.DeviceToken, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	deviceType := req.DeviceType
	if deviceType == "" {
		deviceType = models.DeviceTypeWeb
	}
	dt, err := s.tokens.UpsertToken(req.UserID, req.Token, deviceType)
	if err != nil {
		return nil, apperrors.Internal("failed to register device token", err)
	}
	return dt, nil
}
