// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package models

import "time"

// SyncReport summarizes one full discovery-and-notify pass.
//
// ArtistsFailed and SendsFailed count isolated failures that did not abort
// the run; a run with failures still reports the work it completed.
type SyncReport struct {
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
	ArtistsProcessed  int           `json:"artists_processed"`
	ArtistsFailed     int           `json:"artists_failed"`
	EventsProcessed   int           `json:"events_processed"`
	NewEventsAdded    int           `json:"new_events_added"`
	NotificationsSent int           `json:"notifications_sent"`
	SendsFailed       int           `json:"sends_failed"`
}
