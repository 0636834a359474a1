// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package push

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/showpulse/showpulse/internal/config"
)

func testDispatcher(endpoint string) *Dispatcher {
	return NewDispatcher(&config.PushConfig{
		Endpoint:       endpoint,
		AccessToken:    "secret",
		RequestTimeout: 5 * time.Second,
	})
}

func testMessage() *Message {
	return &Message{
		Token: "ExponentPushToken[aaa]",
		Title: "The Midnight announced a show",
		Body:  "Nov 3 at Paradiso, Amsterdam",
		Data:  map[string]string{"eventId": "ev-1"},
	}
}

func TestSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			t.Fatalf("bad request payload: %v", err)
		}
		if msg.Token != "ExponentPushToken[aaa]" {
			t.Errorf("to = %q", msg.Token)
		}

		_, _ = w.Write([]byte(`{"data": [{"status": "ok", "id": "ticket-1"}]}`))
	}))
	defer server.Close()

	result := testDispatcher(server.URL).Send(context.Background(), testMessage())
	if !result.Success {
		t.Fatalf("send failed: %s", result.ErrorMessage)
	}
	if result.DeliveredAt == nil {
		t.Error("DeliveredAt not set")
	}
}

func TestSend_DeviceNotRegistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{
			"status": "error",
			"message": "\"ExponentPushToken[aaa]\" is not a registered push notification recipient",
			"details": {"error": "DeviceNotRegistered"}
		}]}`))
	}))
	defer server.Close()

	result := testDispatcher(server.URL).Send(context.Background(), testMessage())
	if result.Success {
		t.Fatal("dead token reported as delivered")
	}
	if !result.Permanent {
		t.Error("DeviceNotRegistered must be permanent")
	}
	if result.ErrorCode != "DeviceNotRegistered" {
		t.Errorf("ErrorCode = %q", result.ErrorCode)
	}
}

func TestSend_TransientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			"provider 5xx",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			"throttled ticket",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data": [{"status": "error", "message": "rate limited", "details": {"error": "MessageRateExceeded"}}]}`))
			},
		},
		{
			"malformed response",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
		{
			"empty ticket list",
			func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"data": []}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			result := testDispatcher(server.URL).Send(context.Background(), testMessage())
			if result.Success {
				t.Fatal("failure reported as success")
			}
			if result.Permanent {
				t.Errorf("transient failure marked permanent: %s", result.ErrorMessage)
			}
			if result.ErrorMessage == "" {
				t.Error("ErrorMessage empty")
			}
		})
	}
}

func TestSend_NetworkError(t *testing.T) {
	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	result := testDispatcher(server.URL).Send(context.Background(), testMessage())
	if result.Success {
		t.Fatal("network error reported as success")
	}
	if result.Permanent {
		t.Error("network error must not be permanent")
	}
}
