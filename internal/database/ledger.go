// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/showpulse/showpulse/internal/metrics"
)

// WasNotified reports whether the (user, event) pair already has a ledger
// entry.
func (db *DB) WasNotified(ctx context.Context, userID string, eventID uuid.UUID) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_records WHERE user_id = ? AND event_id = ?`,
		userID, eventID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check notification ledger: %w", err)
	}
	return count > 0, nil
}

// RecordNotified writes a ledger entry for the (user, event) pair. The
// primary key makes the write idempotent; recording an existing pair is
// a no-op.
func (db *DB) RecordNotified(ctx context.Context, userID string, eventID uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notification_records (user_id, event_id, sent_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, event_id) DO NOTHING`,
		userID, eventID, time.Now().UTC(),
	)
	metrics.RecordDBQuery("INSERT", "notification_records", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// CountNotified returns the number of ledger entries for an event.
func (db *DB) CountNotified(ctx context.Context, eventID uuid.UUID) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_records WHERE event_id = ?`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
