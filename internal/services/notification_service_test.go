package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
	"github.com/AnandNexkites/citypattle/pkg/push"
)

type fakeChannel struct {
	mu      sync.Mutex
	name    string
	sent    []string
	nextErr error
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, token, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nextErr != nil {
		err := c.nextErr
		c.nextErr = nil
		return err
	}
	c.sent = append(c.sent, token)
	return nil
}

func (c *fakeChannel) tokens() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

var deviceTokenColumns = []string{"id", "user_id", "token", "device_type", "is_active", "created_at", "updated_at"}

func TestNotifyUser(t *testing.T) {
	userID := uuid.New()

	t.Run("Fans Out Over Active Tokens", func(t *testing.T) {
		db, mock := newMockDB(t)
		channel := &fakeChannel{name: "fake"}
		svc := NewNotificationService(database.NewDeviceTokenRepository(db), channel, testLogger())

		rows := sqlmock.NewRows(deviceTokenColumns).
			AddRow(uuid.New(), userID, "token-a", models.DeviceTypeAndroid, true, time.Now(), time.Now()).
			AddRow(uuid.New(), userID, "token-b", models.DeviceTypeWeb, true, time.Now(), time.Now())
		mock.ExpectQuery(`SELECT (.+) FROM device_tokens`).WillReturnRows(rows)

		err := svc.NotifyUser(context.Background(), userID, "Title", "Body")
		assert.NoError(t, err)
		assert.Equal(t, []string{"token-a", "token-b"}, channel.tokens())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Routes Device Types To Registered Channels", func(t *testing.T) {
		db, mock := newMockDB(t)
		defaultChannel := &fakeChannel{name: "default"}
		iosChannel := &fakeChannel{name: "ios"}
		svc := NewNotificationService(database.NewDeviceTokenRepository(db), defaultChannel, testLogger())
		svc.RegisterChannel(models.DeviceTypeIOS, iosChannel)

		rows := sqlmock.NewRows(deviceTokenColumns).
			AddRow(uuid.New(), userID, "token-ios", models.DeviceTypeIOS, true, time.Now(), time.Now()).
			AddRow(uuid.New(), userID, "token-web", models.DeviceTypeWeb, true, time.Now(), time.Now())
		mock.ExpectQuery(`SELECT (.+) FROM device_tokens`).WillReturnRows(rows)

		err := svc.NotifyUser(context.Background(), userID, "Title", "Body")
		assert.NoError(t, err)
		assert.Equal(t, []string{"token-ios"}, iosChannel.tokens())
		assert.Equal(t, []string{"token-web"}, defaultChannel.tokens())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deactivates Dead Tokens", func(t *testing.T) {
		db, mock := newMockDB(t)
		channel := &fakeChannel{name: "fake", nextErr: &push.NotRegisteredError{Token: "dead-token"}}
		svc := NewNotificationService(database.NewDeviceTokenRepository(db), channel, testLogger())

		rows := sqlmock.NewRows(deviceTokenColumns).
			AddRow(uuid.New(), userID, "dead-token", models.DeviceTypeAndroid, true, time.Now(), time.Now())
		mock.ExpectQuery(`SELECT (.+) FROM device_tokens`).WillReturnRows(rows)
		mock.ExpectExec(`UPDATE device_tokens SET is_active = FALSE`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := svc.NotifyUser(context.Background(), userID, "Title", "Body")
		assert.NoError(t, err)
		assert.Empty(t, channel.tokens())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Tokens Is A No-Op", func(t *testing.T) {
		db, mock := newMockDB(t)
		channel := &fakeChannel{name: "fake"}
		svc := NewNotificationService(database.NewDeviceTokenRepository(db), channel, testLogger())

		mock.ExpectQuery(`SELECT (.+) FROM device_tokens`).
			WillReturnRows(sqlmock.NewRows(deviceTokenColumns))

		err := svc.NotifyUser(context.Background(), userID, "Title", "Body")
		assert.NoError(t, err)
		assert.Empty(t, channel.tokens())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegisterDevice(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewNotificationService(database.NewDeviceTokenRepository(db), &fakeChannel{name: "fake"}, testLogger())

		rows := sqlmock.NewRows(deviceTokenColumns).
			AddRow(uuid.New(), userID, "token-a", models.DeviceTypeAndroid, true, time.Now(), time.Now())
		mock.ExpectQuery(`INSERT INTO device_tokens`).WillReturnRows(rows)

		dt, err := svc.RegisterDevice(&models.RegisterDeviceRequest{
			UserID:     userID,
			Token:      "token-a",
			DeviceType: models.DeviceTypeAndroid,
		})
		assert.NoError(t, err)
		require.NotNil(t, dt)
		assert.True(t, dt.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Device Type", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := NewNotificationService(database.NewDeviceTokenRepository(db), &fakeChannel{name: "fake"}, testLogger())

		dt, err := svc.RegisterDevice(&models.RegisterDeviceRequest{
			UserID:     userID,
			Token:      "token-a",
			DeviceType: "blackberry",
		})
		assert.Nil(t, dt)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	})
}
