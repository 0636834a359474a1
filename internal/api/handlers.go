// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/showpulse/showpulse/internal/logging"
	"github.com/showpulse/showpulse/internal/models"
	syncpkg "github.com/showpulse/showpulse/internal/sync"
)

// Pinger is the readiness dependency, satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Runner triggers sync runs, satisfied by *sync.Orchestrator.
type Runner interface {
	Run(ctx context.Context) (*models.SyncReport, error)
}

// Handler serves the operational endpoints.
type Handler struct {
	db         Pinger
	runner     Runner
	runTimeout time.Duration
}

// NewHandler creates the API handler.
func NewHandler(db Pinger, runner Runner, runTimeout time.Duration) *Handler {
	return &Handler{
		db:         db,
		runner:     runner,
		runTimeout: runTimeout,
	}
}

// HealthLive reports process liveness. It always succeeds while the
// process can serve requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady reports readiness, including database connectivity.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "database not reachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// syncRunResponse is the trigger endpoint's success payload.
type syncRunResponse struct {
	Success           bool   `json:"success"`
	ArtistsProcessed  int    `json:"artists_processed"`
	ArtistsFailed     int    `json:"artists_failed"`
	EventsProcessed   int    `json:"events_processed"`
	NewEventsAdded    int    `json:"new_events_added"`
	NotificationsSent int    `json:"notifications_sent"`
	SendsFailed       int    `json:"sends_failed"`
	Duration          string `json:"duration"`
}

// SyncRun triggers one synchronous sync pass and returns its report.
// A run already in progress yields 409 rather than queueing.
func (h *Handler) SyncRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	report, err := h.runner.Run(ctx)
	if errors.Is(err, syncpkg.ErrRunInProgress) {
		writeError(w, http.StatusConflict, "a sync run is already in progress")
		return
	}
	if err != nil {
		logging.Error().Err(err).Msg("Manual sync run failed")
		writeError(w, http.StatusInternalServerError, "sync run failed")
		return
	}

	writeJSON(w, http.StatusOK, syncRunResponse{
		Success:           true,
		ArtistsProcessed:  report.ArtistsProcessed,
		ArtistsFailed:     report.ArtistsFailed,
		EventsProcessed:   report.EventsProcessed,
		NewEventsAdded:    report.NewEventsAdded,
		NotificationsSent: report.NotificationsSent,
		SendsFailed:       report.SendsFailed,
		Duration:          report.Duration.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
