package push

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Channel delivers a push notification to a single device token.
// Implementations must be safe for concurrent use.
type Channel interface {
	Send(ctx context.Context, token, title, body string) error
	Name() string
}

// NotRegisteredError marks tokens the provider no longer recognizes, so
// the caller can deactivate them.
type NotRegisteredError struct {
	Token string
}

func (e *NotRegisteredError) Error() string {
	return "token is not registered: " + e.Token
}

// LogChannel logs notifications instead of delivering them. Used in
// development and tests.
type LogChannel struct {
	logger *logrus.Logger
}

// NewLogChannel creates a log-only channel.
func NewLogChannel(logger *logrus.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string {
	return "log"
}

func (c *LogChannel) Send(_ context.Context, token, title, body string) error {
	c.logger.WithFields(logrus.Fields{
		"token": token,
		"title": title,
		"body":  body,
	}).Info("Push notification (log channel)")
	return nil
}
