// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

// Package main is the entry point for the ShowPulse server.
//
// ShowPulse is the backend for a concert-tracking mobile app. It
// periodically polls an upstream event discovery API for every artist
// its users track, stores newly announced events, and pushes one
// notification per (user, event) pair to the users' devices.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB holding events, subscriptions, and the delivery ledger
//  3. Catalog client: Rate-limited discovery API client behind a circuit breaker
//  4. Push dispatcher: Expo-compatible push delivery
//  5. Sync pipeline: Orchestrator plus interval scheduler
//  6. HTTP server: Health probes, metrics, and the manual trigger endpoint
//
// Both long-running components (scheduler and HTTP server) run under a
// suture supervision tree and restart with backoff on crashes.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. The only required setting is CATALOG_API_KEY.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the
// scheduler finishes or abandons its current run, the HTTP server drains
// in-flight requests, and the database is checkpointed and closed last.
//
// # Example Usage
//
//	export CATALOG_API_KEY=your-discovery-api-key
//	export DUCKDB_PATH=/data/showpulse.duckdb
//	export SYNC_INTERVAL=1h
//	./showpulse
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/showpulse/showpulse/internal/api"
	"github.com/showpulse/showpulse/internal/catalog"
	"github.com/showpulse/showpulse/internal/config"
	"github.com/showpulse/showpulse/internal/database"
	"github.com/showpulse/showpulse/internal/logging"
	"github.com/showpulse/showpulse/internal/push"
	"github.com/showpulse/showpulse/internal/supervisor"
	"github.com/showpulse/showpulse/internal/supervisor/services"
	syncpkg "github.com/showpulse/showpulse/internal/sync"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("catalog_url", cfg.Catalog.BaseURL).
		Dur("sync_interval", cfg.Sync.Interval).
		Bool("scheduler_enabled", cfg.Sync.Enabled).
		Msg("Starting ShowPulse")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	// Catalog client with rate limiting, retries, and circuit breaking
	catalogClient := catalog.NewCircuitBreakerClient(&cfg.Catalog)

	// Push delivery
	dispatcher := push.NewDispatcher(&cfg.Push)

	// Sync pipeline
	orchestrator := syncpkg.NewOrchestrator(db, catalogClient, dispatcher)

	// Context canceled by SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Supervisor tree, logging through the zerolog-to-slog bridge
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})

	if cfg.Sync.Enabled {
		tree.AddJobService(syncpkg.NewScheduler(orchestrator, &cfg.Sync))
	} else {
		logging.Info().Msg("Interval scheduler disabled, sync runs only via HTTP trigger")
	}

	handler := api.NewHandler(db, orchestrator, cfg.Sync.RunTimeout)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(&cfg.API, handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
