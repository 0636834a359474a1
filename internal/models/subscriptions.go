// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription links a user to an artist they track. One row per
// (user, artist) pair.
type Subscription struct {
	UserID     string    `json:"user_id"`
	ArtistID   string    `json:"artist_id"`
	ArtistName string    `json:"artist_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// PushRecipient holds a user's current push token. A user with an empty
// token is a valid subscriber who simply cannot receive pushes right now.
type PushRecipient struct {
	UserID    string    `json:"user_id"`
	PushToken string    `json:"push_token,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationRecord is one entry in the delivery ledger. Its existence
// means the (user, event) pair has been notified; the primary key on the
// pair makes delivery at-most-once.
type NotificationRecord struct {
	UserID  string    `json:"user_id"`
	EventID uuid.UUID `json:"event_id"`
	SentAt  time.Time `json:"sent_at"`
}
