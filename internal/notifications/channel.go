// Package notifications formats task messages and delivers them through an
// external messaging channel. Delivery is best effort: failures are logged and
// reported as false, never returned to the workflow.
package notifications

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrRecipientUnavailable = errors.New("recipient is not reachable on this channel")

// Channel delivers one formatted message to one recipient identity.
type Channel interface {
	Send(ctx context.Context, recipient, message string) error
}

// LogChannel writes messages to the log instead of delivering them.
type LogChannel struct {
	logger *logrus.Logger
}

func NewLogChannel(logger *logrus.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Send(_ context.Context, recipient, message string) error {
	c.logger.WithField("recipient", recipient).Info("notification: " + message)
	return nil
}
