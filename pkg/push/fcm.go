package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// FCMChannel delivers notifications through the Firebase Cloud Messaging
// HTTP endpoint.
type FCMChannel struct {
	serverKey  string
	endpoint   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewFCMChannel creates an FCM channel.
func NewFCMChannel(serverKey, endpoint string, logger *logrus.Logger) *FCMChannel {
	return &FCMChannel{
		serverKey: serverKey,
		endpoint:  endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *FCMChannel) Name() string {
	return "fcm"
}

type fcmMessage struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send pushes one notification to one token.
func (c *FCMChannel) Send(ctx context.Context, token, title, body string) error {
	msg := fcmMessage{
		To:           token,
		Notification: fcmNotification{Title: title, Body: body},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal fcm message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read fcm response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm returned status %d: %s", resp.StatusCode, string(respData))
	}

	var result fcmResponse
	if err := json.Unmarshal(respData, &result); err != nil {
		return fmt.Errorf("failed to decode fcm response: %w", err)
	}
	if result.Failure > 0 {
		for _, r := range result.Results {
			if r.Error == "NotRegistered" || r.Error == "InvalidRegistration" {
				return &NotRegisteredError{Token: token}
			}
		}
		return fmt.Errorf("fcm delivery failed: %s", string(respData))
	}
	return nil
}
