package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const defaultWriteWait = 10 * time.Second

type wsMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
	At   string `json:"at"`
}

// Hub is a Channel that pushes messages to users connected over websocket.
// A recipient with no open connection is treated as unreachable.
type Hub struct {
	connections map[string]map[*websocket.Conn]bool
	mutex       sync.Mutex
	logger      *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

func (h *Hub) register(recipient string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.connections[recipient] == nil {
		h.connections[recipient] = make(map[*websocket.Conn]bool)
	}
	h.connections[recipient][conn] = true
}

func (h *Hub) unregister(recipient string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conns, ok := h.connections[recipient]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.connections, recipient)
		}
	}
	conn.Close()
}

// Connected reports how many connections the recipient currently has open.
func (h *Hub) Connected(recipient string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections[recipient])
}

// Serve registers conn for recipient and blocks until the client goes away.
func (h *Hub) Serve(recipient string, conn *websocket.Conn) {
	h.register(recipient, conn)
	defer h.unregister(recipient, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithField("recipient", recipient).Warnf("hub: read failed: %v", err)
			}
			return
		}
	}
}

func (h *Hub) Send(ctx context.Context, recipient, message string) error {
	payload, err := json.Marshal(wsMessage{
		Type: "notification",
		Text: message,
		At:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteWait)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns := h.connections[recipient]
	if len(conns) == 0 {
		return ErrRecipientUnavailable
	}

	delivered := 0
	for conn := range conns {
		_ = conn.SetWriteDeadline(deadline)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.WithField("recipient", recipient).Warnf("hub: write failed: %v", err)
			delete(conns, conn)
			conn.Close()
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return ErrRecipientUnavailable
	}
	return nil
}
