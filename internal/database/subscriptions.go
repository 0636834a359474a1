// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/showpulse/showpulse/internal/metrics"
	"github.com/showpulse/showpulse/internal/models"
)

// ListDistinctArtistIDs returns every artist tracked by at least one user.
// The set is computed fresh per call so runs always see current
// subscriptions.
func (db *DB) ListDistinctArtistIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT artist_id FROM subscriptions ORDER BY artist_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked artists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan artist id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artist ids: %w", err)
	}
	return ids, nil
}

// ListTrackedArtists returns every tracked artist with a display name
// taken from the subscriptions that track it.
func (db *DB) ListTrackedArtists(ctx context.Context) ([]*models.Artist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT artist_id, MIN(artist_name) FROM subscriptions
		GROUP BY artist_id ORDER BY artist_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked artists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var artists []*models.Artist
	for rows.Next() {
		artist := &models.Artist{}
		if err := rows.Scan(&artist.ID, &artist.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tracked artist: %w", err)
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracked artists: %w", err)
	}
	return artists, nil
}

// ListFollowers returns the user IDs subscribed to the given artist.
func (db *DB) ListFollowers(ctx context.Context, artistID string) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM subscriptions WHERE artist_id = ? ORDER BY user_id`,
		artistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan follower: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate followers: %w", err)
	}
	return users, nil
}

// UpsertSubscription records that a user tracks an artist. Existing rows
// keep their created_at but refresh the artist name.
func (db *DB) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, artist_id, artist_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, artist_id) DO UPDATE SET artist_name = EXCLUDED.artist_name`,
		sub.UserID, sub.ArtistID, sub.ArtistName, sub.CreatedAt,
	)
	metrics.RecordDBQuery("INSERT", "subscriptions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// DeleteSubscription removes a (user, artist) tracking pair.
func (db *DB) DeleteSubscription(ctx context.Context, userID, artistID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND artist_id = ?`,
		userID, artistID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// UpsertPushRecipient stores or replaces a user's push token.
func (db *DB) UpsertPushRecipient(ctx context.Context, userID, pushToken string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO push_recipients (user_id, push_token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			push_token = EXCLUDED.push_token,
			updated_at = EXCLUDED.updated_at`,
		userID, pushToken, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert push recipient: %w", err)
	}
	return nil
}

// GetPushTokens returns a map of user ID to push token for the given
// users. Users without a row or with an empty token are omitted.
func (db *DB) GetPushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders := strings.Repeat("?,", len(userIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT user_id, push_token FROM push_recipients
		WHERE user_id IN (%s) AND push_token IS NOT NULL AND push_token != ''`,
		placeholders,
	)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get push tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tokens := make(map[string]string, len(userIDs))
	for rows.Next() {
		var userID, token string
		if err := rows.Scan(&userID, &token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens[userID] = token
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push tokens: %w", err)
	}
	return tokens, nil
}

// ClearPushToken removes a user's push token after the provider reported
// it permanently invalid. The recipient row survives so a future token
// refresh can reuse it.
func (db *DB) ClearPushToken(ctx context.Context, userID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`UPDATE push_recipients SET push_token = NULL, updated_at = ? WHERE user_id = ?`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear push token: %w", err)
	}
	return nil
}
