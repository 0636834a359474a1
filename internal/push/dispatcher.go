// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

// Package push delivers notifications through an Expo-compatible push
// provider. Delivery failures are reported as data on the result, not as
// Go errors; the caller decides whether a failure retires the token or
// leaves the message for a later run.
package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/showpulse/showpulse/internal/config"
	"github.com/showpulse/showpulse/internal/metrics"
)

// Sender is the delivery operation the sync pipeline depends on.
type Sender interface {
	Send(ctx context.Context, msg *Message) *Result
}

// Ensure Dispatcher implements Sender
var _ Sender = (*Dispatcher)(nil)

// Message is one push notification addressed to a single device token.
type Message struct {
	Token string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Result contains the outcome of a delivery attempt.
type Result struct {
	// Success indicates the provider accepted the message.
	Success bool

	// DeliveredAt is when the provider accepted the message.
	DeliveredAt *time.Time

	// ErrorMessage contains error details if failed.
	ErrorMessage string

	// ErrorCode is the provider's machine-readable error code.
	ErrorCode string

	// Permanent indicates the token is dead and retrying is pointless.
	Permanent bool
}

// permanentErrorCodes are provider errors that mean the token will never
// work again and should be cleared.
var permanentErrorCodes = map[string]bool{
	"DeviceNotRegistered": true,
	"InvalidCredentials":  true,
}

// Dispatcher sends push notifications through the configured provider.
type Dispatcher struct {
	endpoint    string
	accessToken string
	client      *http.Client
}

// NewDispatcher creates a push dispatcher.
func NewDispatcher(cfg *config.PushConfig) *Dispatcher {
	return &Dispatcher{
		endpoint:    cfg.Endpoint,
		accessToken: cfg.AccessToken,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// tickets is the provider's per-message response envelope.
type tickets struct {
	Data []struct {
		Status  string `json:"status"`
		ID      string `json:"id,omitempty"`
		Message string `json:"message,omitempty"`
		Details struct {
			Error string `json:"error,omitempty"`
		} `json:"details,omitempty"`
	} `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Send delivers one message. A nil-error contract: every failure mode is
// reported on the Result so one dead token cannot abort a fan-out loop.
func (d *Dispatcher) Send(ctx context.Context, msg *Message) *Result {
	result := &Result{}

	payload, err := json.Marshal(msg)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to marshal message: %v", err)
		return d.record(result)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to create request: %v", err)
		return d.record(result)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ShowPulse/1.0")
	if d.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.accessToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to send push: %v", err)
		return d.record(result)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		body = []byte("(failed to read response)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.ErrorMessage = fmt.Sprintf("push provider returned %d: %s", resp.StatusCode, string(body))
		return d.record(result)
	}

	var tk tickets
	if err := json.Unmarshal(body, &tk); err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to decode provider response: %v", err)
		return d.record(result)
	}

	if len(tk.Errors) > 0 {
		result.ErrorCode = tk.Errors[0].Code
		result.ErrorMessage = tk.Errors[0].Message
		result.Permanent = permanentErrorCodes[result.ErrorCode]
		return d.record(result)
	}
	if len(tk.Data) == 0 {
		result.ErrorMessage = "provider response contained no ticket"
		return d.record(result)
	}

	ticket := tk.Data[0]
	if ticket.Status != "ok" {
		result.ErrorCode = ticket.Details.Error
		result.ErrorMessage = ticket.Message
		result.Permanent = permanentErrorCodes[result.ErrorCode]
		return d.record(result)
	}

	now := time.Now()
	result.Success = true
	result.DeliveredAt = &now
	return d.record(result)
}

// record updates delivery metrics before returning the result.
func (d *Dispatcher) record(result *Result) *Result {
	switch {
	case result.Success:
		metrics.NotificationsSent.Inc()
	case result.Permanent:
		metrics.NotificationsFailed.WithLabelValues("permanent").Inc()
	default:
		metrics.NotificationsFailed.WithLabelValues("transient").Inc()
	}
	return result
}
