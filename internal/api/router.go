// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

// Package api exposes ShowPulse's operational HTTP surface: health
// probes, Prometheus metrics, and the manual sync trigger.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/showpulse/showpulse/internal/config"
)

// NewRouter builds the Chi router for the ShowPulse server.
func NewRouter(cfg *config.APIConfig, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
	})

	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(prometheusMetrics)
		r.Use(httprate.Limit(
			cfg.RateLimitReqs,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		r.Use(bearerAuth(cfg.TriggerToken))
		r.Post("/run", handler.SyncRun)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
