// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/showpulse/showpulse/internal/metrics"
	"github.com/showpulse/showpulse/internal/models"
)

// EventExists reports whether an event with the given upstream identifier
// is already stored.
func (db *DB) EventExists(ctx context.Context, upstreamEventID string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM known_events WHERE upstream_event_id = ?`,
		upstreamEventID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return count > 0, nil
}

// UpsertEventIfAbsent stores a newly discovered event unless an event with
// the same upstream identifier already exists. It returns true when a new
// row was written. The check and the insert are a single statement, so
// concurrent discoveries of the same event cannot both report inserted.
func (db *DB) UpsertEventIfAbsent(ctx context.Context, ev *models.KnownEvent) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	var id uuid.UUID
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO known_events (
			id, upstream_event_id, artist_id, artist_name, event_name,
			venue_name, city, event_datetime, ticket_url, image_url,
			notified, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, false, ?)
		ON CONFLICT (upstream_event_id) DO NOTHING
		RETURNING id`,
		ev.ID, ev.UpstreamEventID, ev.ArtistID, ev.ArtistName, ev.Name,
		ev.VenueName, ev.City, ev.StartsAt, ev.TicketURL, ev.ImageURL,
		ev.CreatedAt,
	).Scan(&id)
	metrics.RecordDBQuery("INSERT", "known_events", time.Since(start), ignoreNoRows(err))

	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: the event was already known.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}
	return true, nil
}

// GetEventByUpstreamID retrieves a stored event by its upstream identifier.
// Returns nil when the event is unknown.
func (db *DB) GetEventByUpstreamID(ctx context.Context, upstreamEventID string) (*models.KnownEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ev := &models.KnownEvent{}
	var venueName, city, ticketURL, imageURL sql.NullString
	var startsAt sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, upstream_event_id, artist_id, artist_name, event_name,
			venue_name, city, event_datetime, ticket_url, image_url,
			notified, created_at
		FROM known_events WHERE upstream_event_id = ?`,
		upstreamEventID,
	).Scan(&ev.ID, &ev.UpstreamEventID, &ev.ArtistID, &ev.ArtistName, &ev.Name,
		&venueName, &city, &startsAt, &ticketURL, &imageURL,
		&ev.Notified, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	ev.VenueName = venueName.String
	ev.City = city.String
	ev.TicketURL = ticketURL.String
	ev.ImageURL = imageURL.String
	if startsAt.Valid {
		t := startsAt.Time
		ev.StartsAt = &t
	}
	return ev, nil
}

// ListUnnotifiedEvents returns all stored events whose notification
// fan-out has not completed, oldest first.
func (db *DB) ListUnnotifiedEvents(ctx context.Context) ([]*models.KnownEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, upstream_event_id, artist_id, artist_name, event_name,
			venue_name, city, event_datetime, ticket_url, image_url,
			notified, created_at
		FROM known_events WHERE notified = false
		ORDER BY created_at ASC`,
	)
	metrics.RecordDBQuery("SELECT", "known_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list unnotified events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*models.KnownEvent
	for rows.Next() {
		ev := &models.KnownEvent{}
		var venueName, city, ticketURL, imageURL sql.NullString
		var startsAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.UpstreamEventID, &ev.ArtistID, &ev.ArtistName, &ev.Name,
			&venueName, &city, &startsAt, &ticketURL, &imageURL,
			&ev.Notified, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.VenueName = venueName.String
		ev.City = city.String
		ev.TicketURL = ticketURL.String
		ev.ImageURL = imageURL.String
		if startsAt.Valid {
			t := startsAt.Time
			ev.StartsAt = &t
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return events, nil
}

// MarkEventNotified flags an event's fan-out as complete. The update is
// idempotent; marking an already notified event is a no-op.
func (db *DB) MarkEventNotified(ctx context.Context, eventID uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE known_events SET notified = true WHERE id = ?`,
		eventID,
	)
	metrics.RecordDBQuery("UPDATE", "known_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to mark event notified: %w", err)
	}
	return nil
}

// ignoreNoRows filters sql.ErrNoRows before metric recording so a
// conflict no-op is not counted as a query error.
func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
