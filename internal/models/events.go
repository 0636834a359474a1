// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

// Package models defines data structures used throughout the ShowPulse application.
// These models represent catalog events, tracked artists, subscriptions, and
// notification delivery records.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEvent is a single event as returned by the upstream catalog API,
// already flattened from the provider's wire format.
//
// UpstreamEventID is the provider's stable identifier and acts as the
// natural key for deduplication. All other fields are display data and may
// be empty when the provider omits them.
type CatalogEvent struct {
	UpstreamEventID string     `json:"upstream_event_id"`
	Name            string     `json:"name"`
	Segment         string     `json:"segment,omitempty"`
	VenueName       string     `json:"venue_name,omitempty"`
	City            string     `json:"city,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	TicketURL       string     `json:"ticket_url,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
}

// KnownEvent is a catalog event persisted in the event store.
//
// The Notified flag marks events whose notification fan-out has completed.
// An event row is written exactly once per upstream event; repeated
// discoveries of the same UpstreamEventID are no-ops.
type KnownEvent struct {
	ID              uuid.UUID  `json:"id"`
	UpstreamEventID string     `json:"upstream_event_id"`
	ArtistID        string     `json:"artist_id"`
	ArtistName      string     `json:"artist_name"`
	Name            string     `json:"name"`
	VenueName       string     `json:"venue_name,omitempty"`
	City            string     `json:"city,omitempty"`
	StartsAt        *time.Time `json:"starts_at,omitempty"`
	TicketURL       string     `json:"ticket_url,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Notified        bool       `json:"notified"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Artist is a performer known to the upstream catalog.
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// ArtistLookup is the result of a catalog artist search. Found reports
// whether the catalog knows the artist at all; a false value is a normal
// outcome, not an error.
type ArtistLookup struct {
	Found  bool    `json:"found"`
	Artist *Artist `json:"artist,omitempty"`
}
