// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/showpulse/showpulse/internal/config"
	"github.com/showpulse/showpulse/internal/logging"
	"github.com/showpulse/showpulse/internal/models"
)

// Runner is the pipeline operation the scheduler drives. Satisfied by
// *Orchestrator.
type Runner interface {
	Run(ctx context.Context) (*models.SyncReport, error)
}

// Scheduler triggers sync runs on a fixed interval. It implements
// suture.Service and is meant to run under the supervision tree.
type Scheduler struct {
	runner       Runner
	interval     time.Duration
	runTimeout   time.Duration
	runOnStartup bool
	name         string
}

// NewScheduler creates an interval scheduler for the sync pipeline.
func NewScheduler(runner Runner, cfg *config.SyncConfig) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     cfg.Interval,
		runTimeout:   cfg.RunTimeout,
		runOnStartup: cfg.RunOnStartup,
		name:         "sync-scheduler",
	}
}

// Serve implements suture.Service. It blocks until the context is
// canceled, firing one run per interval tick. A run still in progress
// when the next tick fires makes that tick a no-op.
func (s *Scheduler) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", s.interval).
		Bool("run_on_startup", s.runOnStartup).
		Msg("Sync scheduler started")

	if s.runOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Sync scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes one bounded sync run. Errors never propagate to the
// supervisor; a failed run waits for the next tick.
func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	_, err := s.runner.Run(runCtx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		logging.Debug().Msg("Scheduled run skipped, previous run still in progress")
	case errors.Is(err, context.Canceled):
	default:
		logging.Warn().Err(err).Msg("Scheduled sync run failed")
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Scheduler) String() string {
	return s.name
}
