package notifications

import (
	"context"
	"sync"

	model "workforce-tracker.com/workforce-tracker/internal/models"
)

type sentMessage struct {
	Recipient string
	Message   string
}

// recordingChannel captures messages and optionally fails every send.
type recordingChannel struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (c *recordingChannel) Send(ctx context.Context, recipient, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMessage{Recipient: recipient, Message: message})
	return nil
}

func (c *recordingChannel) Sent() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMessage(nil), c.sent...)
}

// blockingChannel waits for the context to end, simulating a hung gateway.
type blockingChannel struct{}

func (blockingChannel) Send(ctx context.Context, recipient, message string) error {
	<-ctx.Done()
	return ctx.Err()
}

type mapDirectory map[string]*model.User

func (d mapDirectory) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, ErrRecipientUnavailable
}

func strPtr(s string) *string {
	return &s
}
