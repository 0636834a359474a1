// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

/*
Package sync implements the periodic discovery-and-notify pipeline.

Each run walks every tracked artist, fetches their upcoming events from
the upstream catalog, stores events not seen before, and fans out push
notifications for stored events whose fan-out has not completed. Failures
are isolated per artist and per recipient; one bad upstream response or
dead device token never aborts the rest of the run.
*/
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/showpulse/showpulse/internal/logging"
	"github.com/showpulse/showpulse/internal/metrics"
	"github.com/showpulse/showpulse/internal/models"
	"github.com/showpulse/showpulse/internal/push"
)

// ErrRunInProgress is returned when a run is requested while another run
// holds the pipeline.
var ErrRunInProgress = errors.New("sync run already in progress")

// CatalogSource provides upstream event discovery.
type CatalogSource interface {
	EventsForArtist(ctx context.Context, artistID string) ([]models.CatalogEvent, error)
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	ListTrackedArtists(ctx context.Context) ([]*models.Artist, error)
	UpsertEventIfAbsent(ctx context.Context, ev *models.KnownEvent) (bool, error)
	ListUnnotifiedEvents(ctx context.Context) ([]*models.KnownEvent, error)
	MarkEventNotified(ctx context.Context, eventID uuid.UUID) error
	ListFollowers(ctx context.Context, artistID string) ([]string, error)
	GetPushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
	WasNotified(ctx context.Context, userID string, eventID uuid.UUID) (bool, error)
	RecordNotified(ctx context.Context, userID string, eventID uuid.UUID) error
	ClearPushToken(ctx context.Context, userID string) error
}

// Orchestrator runs the discovery and notification phases back to back.
type Orchestrator struct {
	store      Store
	catalog    CatalogSource
	dispatcher push.Sender

	// mu serializes runs. Overlapping runs would be safe but wasteful:
	// every store write is idempotent, so the lock only avoids duplicate
	// upstream traffic.
	mu sync.Mutex
}

// NewOrchestrator creates the sync pipeline.
func NewOrchestrator(store Store, catalog CatalogSource, dispatcher push.Sender) *Orchestrator {
	return &Orchestrator{
		store:      store,
		catalog:    catalog,
		dispatcher: dispatcher,
	}
}

// Run executes one full discovery-and-notify pass.
//
// Returns ErrRunInProgress when another run holds the pipeline. Per-artist
// and per-recipient failures are counted on the report instead of
// aborting; Run only returns an error when the run cannot proceed at all,
// such as when listing tracked artists fails.
func (o *Orchestrator) Run(ctx context.Context) (*models.SyncReport, error) {
	if !o.mu.TryLock() {
		metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	report := &models.SyncReport{StartedAt: time.Now()}
	logging.Info().Msg("Starting sync run")

	if err := o.discover(ctx, report); err != nil {
		report.Duration = time.Since(report.StartedAt)
		metrics.RecordSyncRun("error", report.Duration)
		return report, err
	}

	if err := o.notify(ctx, report); err != nil {
		report.Duration = time.Since(report.StartedAt)
		metrics.RecordSyncRun("error", report.Duration)
		return report, err
	}

	report.Duration = time.Since(report.StartedAt)
	outcome := "success"
	if report.ArtistsFailed > 0 || report.SendsFailed > 0 {
		outcome = "partial"
	}
	metrics.RecordSyncRun(outcome, report.Duration)

	logging.Info().
		Int("artists_processed", report.ArtistsProcessed).
		Int("artists_failed", report.ArtistsFailed).
		Int("events_processed", report.EventsProcessed).
		Int("new_events", report.NewEventsAdded).
		Int("notifications_sent", report.NotificationsSent).
		Int("sends_failed", report.SendsFailed).
		Dur("duration", report.Duration).
		Msg("Sync run completed")

	return report, nil
}

// discover fetches upcoming events for every tracked artist and stores
// the ones not seen before. A failing artist is logged, counted, and
// skipped; the remaining artists still sync.
func (o *Orchestrator) discover(ctx context.Context, report *models.SyncReport) error {
	artists, err := o.store.ListTrackedArtists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked artists: %w", err)
	}

	for _, artist := range artists {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		events, err := o.catalog.EventsForArtist(ctx, artist.ID)
		if err != nil {
			report.ArtistsFailed++
			metrics.SyncArtistsFailed.Inc()
			logging.Warn().Err(err).Str("artist_id", artist.ID).Msg("Artist discovery failed, skipping")
			continue
		}
		report.ArtistsProcessed++

		for i := range events {
			report.EventsProcessed++
			inserted, err := o.storeEvent(ctx, artist, &events[i])
			if err != nil {
				logging.Warn().Err(err).
					Str("artist_id", artist.ID).
					Str("upstream_event_id", events[i].UpstreamEventID).
					Msg("Failed to store event")
				continue
			}
			if inserted {
				report.NewEventsAdded++
				metrics.EventsInserted.Inc()
			} else {
				metrics.EventsDuplicate.Inc()
			}
		}
	}
	return nil
}

// storeEvent persists one discovered event unless it is already known.
func (o *Orchestrator) storeEvent(ctx context.Context, artist *models.Artist, ev *models.CatalogEvent) (bool, error) {
	known := &models.KnownEvent{
		UpstreamEventID: ev.UpstreamEventID,
		ArtistID:        artist.ID,
		ArtistName:      artist.Name,
		Name:            ev.Name,
		VenueName:       ev.VenueName,
		City:            ev.City,
		StartsAt:        ev.StartsAt,
		TicketURL:       ev.TicketURL,
		ImageURL:        ev.ImageURL,
	}
	return o.store.UpsertEventIfAbsent(ctx, known)
}

// notify fans out push notifications for every stored event whose
// delivery has not completed.
//
// For each event the eligible set is the event artist's followers who
// currently hold a push token, minus users already in the delivery
// ledger. Each successful send writes a ledger entry before anything
// else, so a crash between send and mark can re-run the event without
// re-notifying anyone. The event is flagged complete when nothing remains
// to send, or when at least one send landed and the rest can retry next
// run only if they never got a ledger entry.
func (o *Orchestrator) notify(ctx context.Context, report *models.SyncReport) error {
	pending, err := o.store.ListUnnotifiedEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unnotified events: %w", err)
	}

	for _, event := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := o.notifyEvent(ctx, event, report); err != nil {
			logging.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Msg("Event fan-out failed, left for next run")
		}
	}
	return nil
}

// notifyEvent delivers one event to its remaining eligible recipients.
func (o *Orchestrator) notifyEvent(ctx context.Context, event *models.KnownEvent, report *models.SyncReport) error {
	followers, err := o.store.ListFollowers(ctx, event.ArtistID)
	if err != nil {
		return fmt.Errorf("failed to list followers: %w", err)
	}

	tokens, err := o.store.GetPushTokens(ctx, followers)
	if err != nil {
		return fmt.Errorf("failed to load push tokens: %w", err)
	}

	// Remaining recipients: eligible followers without a ledger entry.
	type recipient struct {
		userID string
		token  string
	}
	var remaining []recipient
	for _, userID := range followers {
		token, ok := tokens[userID]
		if !ok {
			continue
		}
		was, err := o.store.WasNotified(ctx, userID, event.ID)
		if err != nil {
			return fmt.Errorf("failed to check ledger: %w", err)
		}
		if was {
			metrics.NotificationsSkipped.Inc()
			continue
		}
		remaining = append(remaining, recipient{userID: userID, token: token})
	}

	// Nothing left to deliver. This covers events with zero eligible
	// recipients and events whose sends all landed on a previous run
	// that crashed before the flag was written.
	if len(remaining) == 0 {
		return o.store.MarkEventNotified(ctx, event.ID)
	}

	msg := buildMessage(event)
	sent := 0
	for _, rcpt := range remaining {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m := *msg
		m.Token = rcpt.token
		result := o.dispatcher.Send(ctx, &m)

		switch {
		case result.Success:
			if err := o.store.RecordNotified(ctx, rcpt.userID, event.ID); err != nil {
				return fmt.Errorf("failed to record delivery: %w", err)
			}
			sent++
			report.NotificationsSent++
		case result.Permanent:
			// Dead token: clear it so the user drops out of future
			// eligible sets until they register a new one.
			report.SendsFailed++
			logging.Warn().
				Str("user_id", rcpt.userID).
				Str("error_code", result.ErrorCode).
				Msg("Push token permanently invalid, clearing")
			if err := o.store.ClearPushToken(ctx, rcpt.userID); err != nil {
				return fmt.Errorf("failed to clear push token: %w", err)
			}
		default:
			report.SendsFailed++
			logging.Warn().
				Str("user_id", rcpt.userID).
				Str("error", result.ErrorMessage).
				Msg("Push delivery failed, will retry next run")
		}
	}

	if sent > 0 {
		return o.store.MarkEventNotified(ctx, event.ID)
	}
	// Every send failed: leave the event unnotified so the next run
	// retries the whole remaining set.
	return nil
}

// buildMessage renders the notification content for an event.
func buildMessage(event *models.KnownEvent) *push.Message {
	body := event.Name
	if event.VenueName != "" && event.City != "" {
		body = fmt.Sprintf("%s at %s, %s", event.Name, event.VenueName, event.City)
	} else if event.VenueName != "" {
		body = fmt.Sprintf("%s at %s", event.Name, event.VenueName)
	}
	if event.StartsAt != nil {
		body = fmt.Sprintf("%s on %s", body, event.StartsAt.Format("Jan 2, 2006"))
	}

	data := map[string]string{
		"eventId":  event.ID.String(),
		"artistId": event.ArtistID,
	}
	if event.TicketURL != "" {
		data["ticketUrl"] = event.TicketURL
	}

	return &push.Message{
		Title: fmt.Sprintf("%s announced a show", event.ArtistName),
		Body:  body,
		Data:  data,
	}
}
