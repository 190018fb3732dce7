package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookChannel_PostsJSON(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, time.Second)
	if err := ch.Send(context.Background(), "chat-1", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Recipient != "chat-1" || got.Text != "hello" {
		t.Errorf("unexpected payload %+v", got)
	}
}

func TestWebhookChannel_NonSuccessStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, time.Second)
	if err := ch.Send(context.Background(), "chat-1", "hello"); err == nil {
		t.Error("expected an error for a 502 response")
	}
}

func TestWebhookChannel_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ch := NewWebhookChannel(srv.URL, 50*time.Millisecond)
	if err := ch.Send(context.Background(), "chat-1", "hello"); err == nil {
		t.Error("expected a timeout error")
	}
}
