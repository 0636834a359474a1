// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/showpulse/showpulse/internal/config"
	"github.com/showpulse/showpulse/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func testEvent(upstreamID, artistID string) *models.KnownEvent {
	starts := time.Date(2026, 11, 3, 20, 0, 0, 0, time.UTC)
	return &models.KnownEvent{
		UpstreamEventID: upstreamID,
		ArtistID:        artistID,
		ArtistName:      "The Midnight",
		Name:            "The Midnight: Horror Show Tour",
		VenueName:       "Paradiso",
		City:            "Amsterdam",
		StartsAt:        &starts,
		TicketURL:       "https://tickets.example/e/" + upstreamID,
	}
}

func TestUpsertEventIfAbsent_Dedupe(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	inserted, err := db.UpsertEventIfAbsent(ctx, testEvent("ev-1", "artist-1"))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Error("first insert reported duplicate")
	}

	// Same upstream ID again must be a no-op, even with different fields.
	dup := testEvent("ev-1", "artist-1")
	dup.Name = "Different Title"
	inserted, err = db.UpsertEventIfAbsent(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Error("duplicate insert reported as new")
	}

	exists, err := db.EventExists(ctx, "ev-1")
	if err != nil {
		t.Fatalf("exists check: %v", err)
	}
	if !exists {
		t.Error("event not found after insert")
	}

	stored, err := db.GetEventByUpstreamID(ctx, "ev-1")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if stored == nil {
		t.Fatal("stored event is nil")
	}
	if stored.Name != "The Midnight: Horror Show Tour" {
		t.Errorf("stored name = %q, duplicate insert overwrote the original", stored.Name)
	}
	if stored.Notified {
		t.Error("new event must start unnotified")
	}
}

func TestListUnnotifiedEvents_And_Mark(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"ev-a", "ev-b", "ev-c"} {
		if _, err := db.UpsertEventIfAbsent(ctx, testEvent(id, "artist-1")); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	pending, err := db.ListUnnotifiedEvents(ctx)
	if err != nil {
		t.Fatalf("list unnotified: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("unnotified count = %d, want 3", len(pending))
	}

	if err := db.MarkEventNotified(ctx, pending[0].ID); err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	// Marking twice is a no-op.
	if err := db.MarkEventNotified(ctx, pending[0].ID); err != nil {
		t.Fatalf("second mark notified: %v", err)
	}

	pending, err = db.ListUnnotifiedEvents(ctx)
	if err != nil {
		t.Fatalf("list unnotified after mark: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("unnotified count after mark = %d, want 2", len(pending))
	}
}

func TestSubscriptionsAndFollowers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	subs := []*models.Subscription{
		{UserID: "u1", ArtistID: "artist-1", ArtistName: "The Midnight"},
		{UserID: "u2", ArtistID: "artist-1", ArtistName: "The Midnight"},
		{UserID: "u2", ArtistID: "artist-2", ArtistName: "Gunship"},
	}
	for _, sub := range subs {
		if err := db.UpsertSubscription(ctx, sub); err != nil {
			t.Fatalf("upsert subscription: %v", err)
		}
	}
	// Re-upserting an existing pair must not duplicate it.
	if err := db.UpsertSubscription(ctx, subs[0]); err != nil {
		t.Fatalf("re-upsert subscription: %v", err)
	}

	ids, err := db.ListDistinctArtistIDs(ctx)
	if err != nil {
		t.Fatalf("list artists: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("distinct artists = %v, want 2 entries", ids)
	}

	followers, err := db.ListFollowers(ctx, "artist-1")
	if err != nil {
		t.Fatalf("list followers: %v", err)
	}
	if len(followers) != 2 {
		t.Errorf("followers = %v, want [u1 u2]", followers)
	}

	if err := db.DeleteSubscription(ctx, "u1", "artist-1"); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	followers, err = db.ListFollowers(ctx, "artist-1")
	if err != nil {
		t.Fatalf("list followers after delete: %v", err)
	}
	if len(followers) != 1 || followers[0] != "u2" {
		t.Errorf("followers after delete = %v, want [u2]", followers)
	}
}

func TestPushTokens(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertPushRecipient(ctx, "u1", "ExponentPushToken[aaa]"); err != nil {
		t.Fatalf("upsert recipient u1: %v", err)
	}
	if err := db.UpsertPushRecipient(ctx, "u2", ""); err != nil {
		t.Fatalf("upsert recipient u2: %v", err)
	}

	tokens, err := db.GetPushTokens(ctx, []string{"u1", "u2", "u3"})
	if err != nil {
		t.Fatalf("get push tokens: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("tokens = %v, want only u1", tokens)
	}
	if tokens["u1"] != "ExponentPushToken[aaa]" {
		t.Errorf("u1 token = %q", tokens["u1"])
	}

	if err := db.ClearPushToken(ctx, "u1"); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	tokens, err = db.GetPushTokens(ctx, []string{"u1"})
	if err != nil {
		t.Fatalf("get push tokens after clear: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("tokens after clear = %v, want empty", tokens)
	}

	tokens, err = db.GetPushTokens(ctx, nil)
	if err != nil {
		t.Fatalf("get push tokens with empty input: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("tokens for empty input = %v", tokens)
	}
}

func TestNotificationLedger(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	eventID := uuid.New()

	was, err := db.WasNotified(ctx, "u1", eventID)
	if err != nil {
		t.Fatalf("was notified: %v", err)
	}
	if was {
		t.Error("fresh pair reported as notified")
	}

	if err := db.RecordNotified(ctx, "u1", eventID); err != nil {
		t.Fatalf("record notified: %v", err)
	}
	// Idempotent: a second record of the same pair must not error.
	if err := db.RecordNotified(ctx, "u1", eventID); err != nil {
		t.Fatalf("second record notified: %v", err)
	}

	was, err = db.WasNotified(ctx, "u1", eventID)
	if err != nil {
		t.Fatalf("was notified after record: %v", err)
	}
	if !was {
		t.Error("recorded pair not found in ledger")
	}

	count, err := db.CountNotified(ctx, eventID)
	if err != nil {
		t.Fatalf("count notified: %v", err)
	}
	if count != 1 {
		t.Errorf("ledger count = %d, want 1", count)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}
