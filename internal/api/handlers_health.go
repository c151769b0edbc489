// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/shelfwise/internal/models"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probes. It never touches dependencies.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: metadata(time.Time{}),
	})
}

// HealthReady handles readiness probes. It answers 503 when the store or
// any registered check fails.
//
// @Summary Readiness probe
// @Description Pings the store and every registered dependency (NATS, Redis). Returns 503 if any fails.
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Ready"
// @Failure 503 {object} models.APIResponse{data=models.HealthStatus} "Not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	checks := h.healthChecks()
	checks["store"] = h.svc.Store.Ping

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := models.HealthStatus{
		Status:  "ready",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Backend: h.svc.Store.Backend(),
		Checks:  make(map[string]string, len(checks)),
	}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := checks[name](ctx)
		cancel()
		if err != nil {
			status.Checks[name] = err.Error()
			status.Status = "not_ready"
			status.Degraded = true
			continue
		}
		status.Checks[name] = "ok"
	}

	code := http.StatusOK
	if status.Degraded {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, &models.APIResponse{
		Status:   status.Status,
		Data:     status,
		Metadata: metadata(time.Time{}),
	})
}
