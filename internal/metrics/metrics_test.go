// ShowPulse - Live Event Discovery and Notification Backend
// Copyright 2026 ShowPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/showpulse/showpulse

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCatalogRequest(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		status    string
		duration  time.Duration
	}{
		{"successful events query", "events_for_artist", "success", 120 * time.Millisecond},
		{"rate limited query", "events_for_artist", "retryable", 30 * time.Millisecond},
		{"failed artist lookup", "find_artist", "error", 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues(tt.operation, tt.status))
			RecordCatalogRequest(tt.operation, tt.status, tt.duration)
			after := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues(tt.operation, tt.status))
			if after != before+1 {
				t.Errorf("counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "known_events"))

	RecordDBQuery("INSERT", "known_events", 5*time.Millisecond, nil)
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "known_events")); got != before {
		t.Errorf("error counter incremented on success: %v", got)
	}

	RecordDBQuery("INSERT", "known_events", 5*time.Millisecond, errDummy{})
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "known_events")); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestRecordSyncRun(t *testing.T) {
	before := testutil.ToFloat64(SyncRunsTotal.WithLabelValues("success"))
	RecordSyncRun("success", 42*time.Second)
	after := testutil.ToFloat64(SyncRunsTotal.WithLabelValues("success"))
	if after != before+1 {
		t.Errorf("sync run counter = %v, want %v", after, before+1)
	}
	if testutil.ToFloat64(SyncLastSuccess) == 0 {
		t.Error("last success timestamp not set")
	}
}

type errDummy struct{}

func (errDummy) Error() string { return "dummy" }
