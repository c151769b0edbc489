// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/logging"
)

// SetFlagsRequest sets admin-controlled profile flags. Omitted flags are
// unchanged.
type SetFlagsRequest struct {
	Verified *bool `json:"verified,omitempty"`
	Featured *bool `json:"featured,omitempty"`
}

// AdjustActivityRequest applies post and review count deltas reported by
// the posting and review features.
type AdjustActivityRequest struct {
	Posts   int64 `json:"posts" validate:"gte=-1000,lte=1000"`
	Reviews int64 `json:"reviews" validate:"gte=-1000,lte=1000"`
}

// ReindexAll rebuilds every search entry.
//
// @Summary Rebuild the search index
// @Tags Admin
// @Produce json
// @Success 200 {object} models.APIResponse{data=search.ReindexStats}
// @Failure 403 {object} models.APIResponse "Not an admin"
// @Security BearerAuth
// @Router /admin/search/reindex [post]
func (h *Handler) ReindexAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.svc.Search.ReindexAll(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Int("profiles", stats.Profiles).Int("failed", stats.Failed).Msg("search index rebuilt")
	respondSuccess(w, http.StatusOK, stats, start)
}

// SetProfileFlags sets the verified and featured flags of a profile.
//
// @Summary Set profile flags
// @Tags Admin
// @Accept json
// @Produce json
// @Param userID path string true "User"
// @Param body body SetFlagsRequest true "Flags"
// @Success 200 {object} models.APIResponse{data=models.Profile}
// @Failure 404 {object} models.APIResponse "Unknown user"
// @Security BearerAuth
// @Router /admin/profiles/{userID}/flags [post]
func (h *Handler) SetProfileFlags(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req SetFlagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.Profiles.SetFlags(r.Context(), chi.URLParam(r, "userID"), req.Verified, req.Featured)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}

// AdjustActivity applies activity counter deltas to a profile.
//
// @Summary Adjust activity counters
// @Tags Admin
// @Accept json
// @Produce json
// @Param userID path string true "User"
// @Param body body AdjustActivityRequest true "Deltas"
// @Success 200 {object} models.APIResponse{data=models.Profile}
// @Failure 400 {object} models.APIResponse "Delta would make a counter negative"
// @Security BearerAuth
// @Router /admin/profiles/{userID}/activity [post]
func (h *Handler) AdjustActivity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req AdjustActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID := chi.URLParam(r, "userID")
	if err := h.svc.Profiles.AdjustActivity(r.Context(), userID, req.Posts, req.Reviews); err != nil {
		respondServiceError(w, r, err)
		return
	}
	p, err := h.svc.Profiles.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}

// AuditCounters compares a profile's stored counters with its edges.
//
// @Summary Audit follower counters
// @Description Read-only. Drift is reported and counted in counter_drift_total; nothing is repaired.
// @Tags Admin
// @Produce json
// @Param userID path string true "User"
// @Success 200 {object} models.APIResponse{data=graph.CounterAudit}
// @Failure 404 {object} models.APIResponse "Unknown user"
// @Security BearerAuth
// @Router /admin/counters/{userID} [get]
func (h *Handler) AuditCounters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	audit, err := h.svc.Graph.AuditCounters(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"audit":   audit,
		"drifted": audit.Drifted(),
	}, start)
}
