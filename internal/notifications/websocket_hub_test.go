package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestHub_SendToConnectedRecipient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		hub.Serve(r.URL.Query().Get("user"), conn)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=u1"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected("u1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Connected("u1") != 1 {
		t.Fatal("client never registered")
	}

	if err := hub.Send(context.Background(), "u1", "task assigned"); err != nil {
		t.Fatalf("send: %v", err)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "notification" || msg.Text != "task assigned" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestHub_SendToOfflineRecipient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub(logger)

	err := hub.Send(context.Background(), "nobody", "hello")
	if !errors.Is(err, ErrRecipientUnavailable) {
		t.Errorf("expected ErrRecipientUnavailable, got %v", err)
	}
}
