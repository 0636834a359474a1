// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

/*
Package catalog implements the client for the upstream event discovery
API. The client throttles all outgoing requests through a shared rate
limiter and retries rate-limited or transiently failing calls with
exponential backoff before surfacing an error.
*/
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/showpulse/showpulse/internal/config"
	"github.com/showpulse/showpulse/internal/logging"
	"github.com/showpulse/showpulse/internal/metrics"
	"github.com/showpulse/showpulse/internal/models"
)

// Source defines the catalog operations the sync pipeline depends on.
// Both Client and CircuitBreakerClient implement this interface.
type Source interface {
	EventsForArtist(ctx context.Context, artistID string) ([]models.CatalogEvent, error)
	FindArtist(ctx context.Context, name string) (*models.ArtistLookup, error)
}

// Ensure Client implements Source
var _ Source = (*Client)(nil)

// Client provides access to the upstream discovery REST API.
//
// All requests pass through the client's rate limiter, which enforces the
// provider's minimum spacing between calls regardless of how many
// goroutines share the client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	pageSize   int
}

// nonPerformanceSegments lists upstream classification segments that are
// not live performances and are dropped during discovery. Events without
// any classification are kept.
var nonPerformanceSegments = map[string]bool{
	"Sports":        true,
	"Film":          true,
	"Miscellaneous": true,
}

// NewClient creates a new discovery API client.
func NewClient(cfg *config.CatalogConfig) *Client {
	interval := cfg.MinRequestInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
		pageSize:   cfg.PageSize,
	}
}

// EventsForArtist retrieves upcoming events for one artist, filtered to
// live performances. An artist with no upcoming events returns an empty
// slice and no error.
func (c *Client) EventsForArtist(ctx context.Context, artistID string) ([]models.CatalogEvent, error) {
	params := url.Values{}
	params.Set("attractionId", artistID)
	params.Set("size", strconv.Itoa(c.pageSize))
	params.Set("sort", "date,asc")

	start := time.Now()
	body, err := c.doRequest(ctx, "/discovery/v2/events.json", params)
	if err != nil {
		metrics.RecordCatalogRequest("events_for_artist", "error", time.Since(start))
		return nil, fmt.Errorf("events request for artist %s failed: %w", artistID, err)
	}
	metrics.RecordCatalogRequest("events_for_artist", "success", time.Since(start))

	var envelope eventsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}

	// An absent _embedded block means zero upcoming events.
	if envelope.Embedded == nil {
		return []models.CatalogEvent{}, nil
	}

	events := make([]models.CatalogEvent, 0, len(envelope.Embedded.Events))
	for i := range envelope.Embedded.Events {
		ev := flattenEvent(&envelope.Embedded.Events[i])
		if ev == nil {
			continue
		}
		events = append(events, *ev)
	}
	metrics.EventsDiscovered.Add(float64(len(events)))
	return events, nil
}

// FindArtist searches the catalog for an artist by name. An unknown
// artist is a normal outcome reported via ArtistLookup.Found, not an
// error.
func (c *Client) FindArtist(ctx context.Context, name string) (*models.ArtistLookup, error) {
	params := url.Values{}
	params.Set("keyword", name)
	params.Set("size", "1")

	start := time.Now()
	body, err := c.doRequest(ctx, "/discovery/v2/attractions.json", params)
	if err != nil {
		metrics.RecordCatalogRequest("find_artist", "error", time.Since(start))
		return nil, fmt.Errorf("artist search for %q failed: %w", name, err)
	}
	metrics.RecordCatalogRequest("find_artist", "success", time.Since(start))

	var envelope attractionsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode attractions response: %w", err)
	}

	if envelope.Embedded == nil || len(envelope.Embedded.Attractions) == 0 {
		return &models.ArtistLookup{Found: false}, nil
	}

	attraction := envelope.Embedded.Attractions[0]
	return &models.ArtistLookup{
		Found: true,
		Artist: &models.Artist{
			ID:       attraction.ID,
			Name:     attraction.Name,
			ImageURL: largestImage(attraction.Images),
		},
	}, nil
}

// doRequest performs a GET against the discovery API with rate limiting
// and retries. Responses with status 429 or 5xx are retried with
// exponential backoff up to the configured ceiling; a Retry-After header
// overrides the computed delay.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.CatalogRetriesTotal.Inc()
		}

		if c.limiter.Tokens() < 1 {
			metrics.CatalogRateLimitWaits.Inc()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
		}

		body, retryAfter, err := c.attempt(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) || attempt == c.maxRetries {
			break
		}

		delay := c.baseDelay << uint(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		logging.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Str("endpoint", endpoint).
			Msg("Catalog request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

// attempt performs a single HTTP round trip. The returned duration is
// the server-requested retry delay, zero when absent.
func (c *Client) attempt(ctx context.Context, fullURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read response body: %w", err)
		}
		return body, 0, nil
	}

	statusErr := fmt.Errorf("catalog returned status %d", resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &retryableError{err: statusErr}
	}
	return nil, 0, statusErr
}

// retryableError marks transient failures eligible for a retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// parseRetryAfter interprets a Retry-After header as delay seconds.
// HTTP-date values and garbage yield zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// flattenEvent converts a wire event into the internal representation.
// Returns nil for events classified outside live performance segments.
func flattenEvent(we *wireEvent) *models.CatalogEvent {
	for _, classification := range we.Classifications {
		if nonPerformanceSegments[classification.Segment.Name] {
			return nil
		}
	}

	ev := &models.CatalogEvent{
		UpstreamEventID: we.ID,
		Name:            we.Name,
		TicketURL:       we.URL,
		ImageURL:        largestImage(we.Images),
	}
	if len(we.Classifications) > 0 {
		ev.Segment = we.Classifications[0].Segment.Name
	}
	if we.Embedded != nil && len(we.Embedded.Venues) > 0 {
		ev.VenueName = we.Embedded.Venues[0].Name
		ev.City = we.Embedded.Venues[0].City.Name
	}
	if ts := parseEventTime(we.Dates.Start.DateTime, we.Dates.Start.LocalDate); ts != nil {
		ev.StartsAt = ts
	}
	return ev
}

// parseEventTime prefers the precise UTC timestamp and falls back to the
// venue-local date at midnight.
func parseEventTime(dateTime, localDate string) *time.Time {
	if dateTime != "" {
		if t, err := time.Parse(time.RFC3339, dateTime); err == nil {
			return &t
		}
	}
	if localDate != "" {
		if t, err := time.Parse("2006-01-02", localDate); err == nil {
			return &t
		}
	}
	return nil
}

// largestImage picks the widest image URL, empty when none exist.
func largestImage(images []wireImage) string {
	best := ""
	bestWidth := -1
	for _, img := range images {
		if img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}
	return best
}
