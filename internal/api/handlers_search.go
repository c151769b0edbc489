// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/shelfwise/internal/search"
)

// SuggestRequest holds the query parameters of /search/suggest.
type SuggestRequest struct {
	Prefix string `validate:"max=30"`
	Limit  int    `validate:"gte=0,lte=50"`
}

// SearchProfiles queries the profile search index.
//
// @Summary Search profiles
// @Description Every token of q must prefix-match a handle, name, bio, location or tag term. Results are ordered by relevance (exact handle, handle prefix, term match), then search score. Profiles blocked in either direction are excluded.
// @Tags Search
// @Produce json
// @Param q query string false "Free text"
// @Param tags query string false "Comma-separated tags, all required"
// @Param verified_only query bool false "Only verified profiles"
// @Param location query string false "Location substring"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.APIResponse{data=[]search.Result}
// @Failure 400 {object} models.APIResponse "Validation error"
// @Security BearerAuth
// @Router /search/profiles [get]
func (h *Handler) SearchProfiles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := search.Filters{
		Query:        q.Get("q"),
		Tags:         parseCommaSeparated(q.Get("tags")),
		VerifiedOnly: getBoolParam(r, "verified_only"),
		Location:     q.Get("location"),
		Limit:        getIntParam(r, "limit", 0),
		Offset:       getIntParam(r, "offset", 0),
		ViewerID:     viewerID,
	}
	if !validateRequest(w, &f) {
		return
	}
	results, err := h.svc.Search.Search(r.Context(), f)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	respondSuccess(w, http.StatusOK, results, start)
}

// Suggest autocompletes handles.
//
// @Summary Handle autocomplete
// @Tags Search
// @Produce json
// @Param prefix query string true "Handle prefix"
// @Param limit query int false "Max suggestions (1-50)" default(10)
// @Success 200 {object} models.APIResponse{data=[]search.Suggestion}
// @Security BearerAuth
// @Router /search/suggest [get]
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if _, ok := callerID(w, r); !ok {
		return
	}
	req := SuggestRequest{Prefix: r.URL.Query().Get("prefix"), Limit: getIntParam(r, "limit", 10)}
	if !validateRequest(w, &req) {
		return
	}
	suggestions, err := h.svc.Search.Suggest(r.Context(), req.Prefix, req.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, suggestions, start)
}
