package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/internal/services"
)

// NotificationHandler serves device token registration and a test push
// endpoint.
type NotificationHandler struct {
	notifications *services.NotificationService
	logger        *logrus.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notifications *services.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// RegisterDevice handles POST /api/v1/devices. When the client omits the
// device type it is inferred from the User-Agent header.
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	var req models.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}

	if req.DeviceType == "" {
		req.DeviceType = inferDeviceType(c.GetHeader("User-Agent"))
	}

	dt, err := h.notifications.RegisterDevice(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Device registered successfully", dt)
}

// TestNotification handles POST /api/v1/notifications/test.
func (h *NotificationHandler) TestNotification(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.notifications.NotifyUser(c.Request.Context(), req.UserID,
		"Test Notification", "Push notifications are working."); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Test notification dispatched", nil)
}

func inferDeviceType(uaHeader string) string {
	ua := user_agent.New(uaHeader)
	osInfo := strings.ToLower(ua.OSInfo().Name)
	switch {
	case strings.Contains(osInfo, "android"):
		return models.DeviceTypeAndroid
	case strings.Contains(osInfo, "iphone"), strings.Contains(osInfo, "ios"),
		strings.Contains(osInfo, "ipad"):
		return models.DeviceTypeIOS
	default:
		return models.DeviceTypeWeb
	}
}
