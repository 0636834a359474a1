// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/showpulse/showpulse/internal/config"
)

func testConfig(baseURL string) *config.CatalogConfig {
	return &config.CatalogConfig{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		MinRequestInterval: time.Millisecond,
		RequestTimeout:     5 * time.Second,
		MaxRetries:         2,
		RetryBaseDelay:     time.Millisecond,
		PageSize:           50,
	}
}

const eventsPayload = `{
	"_embedded": {
		"events": [
			{
				"id": "ev-music",
				"name": "Synthwave Night",
				"url": "https://tickets.example/ev-music",
				"dates": {"start": {"dateTime": "2026-11-03T20:00:00Z"}},
				"classifications": [{"segment": {"name": "Music"}}],
				"_embedded": {"venues": [{"name": "Paradiso", "city": {"name": "Amsterdam"}}]}
			},
			{
				"id": "ev-sports",
				"name": "Derby Final",
				"url": "https://tickets.example/ev-sports",
				"classifications": [{"segment": {"name": "Sports"}}]
			},
			{
				"id": "ev-unclassified",
				"name": "Secret Show",
				"dates": {"start": {"localDate": "2026-12-01"}}
			}
		]
	},
	"page": {"size": 50, "totalElements": 3, "totalPages": 1, "number": 0}
}`

func TestEventsForArtist_FiltersSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("attractionId") != "artist-1" {
			t.Errorf("attractionId = %q", r.URL.Query().Get("attractionId"))
		}
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("apikey missing from request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsPayload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	events, err := client.EventsForArtist(context.Background(), "artist-1")
	if err != nil {
		t.Fatalf("EventsForArtist: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (sports event filtered)", len(events))
	}
	if events[0].UpstreamEventID != "ev-music" {
		t.Errorf("first event = %q", events[0].UpstreamEventID)
	}
	if events[0].VenueName != "Paradiso" || events[0].City != "Amsterdam" {
		t.Errorf("venue = %q / %q", events[0].VenueName, events[0].City)
	}
	if events[0].StartsAt == nil || !events[0].StartsAt.Equal(time.Date(2026, 11, 3, 20, 0, 0, 0, time.UTC)) {
		t.Errorf("starts_at = %v", events[0].StartsAt)
	}
	// Unclassified events are kept; local date falls back to midnight.
	if events[1].UpstreamEventID != "ev-unclassified" {
		t.Errorf("second event = %q", events[1].UpstreamEventID)
	}
	if events[1].StartsAt == nil || events[1].StartsAt.Day() != 1 {
		t.Errorf("fallback starts_at = %v", events[1].StartsAt)
	}
}

func TestEventsForArtist_NoUpcomingEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page": {"size": 50, "totalElements": 0, "totalPages": 0, "number": 0}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	events, err := client.EventsForArtist(context.Background(), "artist-quiet")
	if err != nil {
		t.Fatalf("EventsForArtist: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want empty", events)
	}
}

func TestEventsForArtist_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(eventsPayload))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	events, err := client.EventsForArtist(context.Background(), "artist-1")
	if err != nil {
		t.Fatalf("EventsForArtist after retry: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events = %d, want 2", len(events))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestEventsForArtist_RetryCeiling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.EventsForArtist(context.Background(), "artist-1")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// MaxRetries=2 means 3 attempts total.
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
}

func TestEventsForArtist_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.EventsForArtist(context.Background(), "artist-1")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (no retry on 4xx)", got)
	}
}

func TestFindArtist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("keyword") == "The Midnight" {
			_, _ = w.Write([]byte(`{"_embedded": {"attractions": [
				{"id": "artist-1", "name": "The Midnight", "images": [
					{"url": "https://img.example/small.jpg", "width": 100},
					{"url": "https://img.example/large.jpg", "width": 1024}
				]}
			]}}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	lookup, err := client.FindArtist(context.Background(), "The Midnight")
	if err != nil {
		t.Fatalf("FindArtist: %v", err)
	}
	if !lookup.Found {
		t.Fatal("known artist reported not found")
	}
	if lookup.Artist.ID != "artist-1" {
		t.Errorf("artist ID = %q", lookup.Artist.ID)
	}
	if lookup.Artist.ImageURL != "https://img.example/large.jpg" {
		t.Errorf("image = %q, want widest", lookup.Artist.ImageURL)
	}

	lookup, err = client.FindArtist(context.Background(), "Nobody You Know")
	if err != nil {
		t.Fatalf("FindArtist unknown: %v", err)
	}
	if lookup.Found {
		t.Error("unknown artist reported found")
	}
	if lookup.Artist != nil {
		t.Errorf("artist = %+v, want nil", lookup.Artist)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"0", 0},
		{"-1", 0},
		{"Wed, 21 Oct 2026 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := parseRetryAfter(tt.value); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
