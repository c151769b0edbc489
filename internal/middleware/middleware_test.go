// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/metrics"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		upstream string
		reuse    bool
	}{
		{"generated", "", false},
		{"upstream reused", "edge-7f3a.01", true},
		{"upstream with spaces", "bad id", false},
		{"upstream too long", strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID, logID, correlation string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				ctxID = GetRequestID(r.Context())
				logID = logging.RequestIDFromContext(r.Context())
				correlation = logging.CorrelationIDFromContext(r.Context())
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.upstream != "" {
				r.Header.Set(HeaderRequestID, tt.upstream)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			got := w.Header().Get(HeaderRequestID)
			if got == "" {
				t.Fatal("no response id")
			}
			if tt.reuse != (got == tt.upstream) {
				t.Errorf("response id = %q, upstream %q", got, tt.upstream)
			}
			if ctxID != got || logID != got {
				t.Errorf("context ids = %q/%q, header %q", ctxID, logID, got)
			}
			if correlation == "" {
				t.Error("no correlation id")
			}
		})
	}
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/users/{userID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	teapots := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/users/{userID}", "418")
	oks := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/ok", "200")
	teapotsBefore, oksBefore := testutil.ToFloat64(teapots), testutil.ToFloat64(oks)

	for _, path := range []string{"/users/u_1", "/users/u_2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(teapots) - teapotsBefore; got != 2 {
		t.Errorf("pattern count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(oks) - oksBefore; got != 1 {
		t.Errorf("implicit 200 count = %v, want 1", got)
	}
	if active := testutil.ToFloat64(metrics.APIActiveRequests); active != 0 {
		t.Errorf("active requests = %v after completion", active)
	}
}

func TestPrometheusMetrics_OutsideChi(t *testing.T) {
	unmatched := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "204")
	before := testutil.ToFloat64(unmatched)

	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/raw/path", nil))

	if got := testutil.ToFloat64(unmatched) - before; got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
}
