// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/media"
	"github.com/tomtom215/shelfwise/internal/models"
)

// maxMediaListLimit bounds GET /users/{userID}/media/{category}.
const maxMediaListLimit = 500

// Feed builds the caller's recommendation feed for one category.
//
// @Summary Recommendation feed
// @Description Groups the recent items of every followed account for the category. Accounts whose collection could not be read in time are listed in "skipped"; the feed is still returned. An empty "groups" array is a valid feed.
// @Tags Feed
// @Produce json
// @Param category path string true "movie, book, series or music"
// @Success 200 {object} models.APIResponse{data=feed.Feed}
// @Failure 400 {object} models.APIResponse "Unknown category"
// @Security BearerAuth
// @Router /feed/{category} [get]
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	f, err := h.svc.Feed.BuildFeed(r.Context(), viewerID, models.Category(chi.URLParam(r, "category")))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, f, start)
}

// PutMedia adds or replaces an item of the caller's collection.
//
// @Summary Add or replace a collection item
// @Tags Media
// @Accept json
// @Produce json
// @Param category path string true "movie, book, series or music"
// @Param externalID path string true "Content provider id"
// @Param body body media.PutInput true "Item fields"
// @Success 200 {object} models.APIResponse{data=models.MediaItem}
// @Failure 400 {object} models.APIResponse "Validation error"
// @Security BearerAuth
// @Router /media/{category}/{externalID} [put]
func (h *Handler) PutMedia(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var in media.PutInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.svc.Media.Put(r.Context(), ownerID, models.Category(chi.URLParam(r, "category")), chi.URLParam(r, "externalID"), in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, item, start)
}

// DeleteMedia removes an item from the caller's collection.
//
// @Summary Remove a collection item
// @Tags Media
// @Produce json
// @Param category path string true "movie, book, series or music"
// @Param externalID path string true "Content provider id"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "No such item"
// @Security BearerAuth
// @Router /media/{category}/{externalID} [delete]
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Media.Remove(r.Context(), ownerID, models.Category(chi.URLParam(r, "category")), chi.URLParam(r, "externalID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"removed": true}, start)
}

// UserMedia lists a user's collection for a category. Users hiding their
// activity show an empty collection to everyone else.
//
// @Summary List a user's collection
// @Tags Media
// @Produce json
// @Param userID path string true "Owner"
// @Param category path string true "movie, book, series or music"
// @Param limit query int false "Newest items to return, 0 for all (max 500)"
// @Success 200 {object} models.APIResponse{data=[]models.MediaItem}
// @Failure 403 {object} models.APIResponse "Blocked in either direction"
// @Failure 404 {object} models.APIResponse "Unknown or disabled user"
// @Security BearerAuth
// @Router /users/{userID}/media/{category} [get]
func (h *Handler) UserMedia(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	owner, err := h.svc.Profiles.View(r.Context(), viewerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if owner.ID != viewerID && !owner.Privacy.ShowActivity {
		respondSuccess(w, http.StatusOK, []*models.MediaItem{}, start)
		return
	}

	limit := getIntParam(r, "limit", 0)
	if limit < 0 || limit > maxMediaListLimit {
		limit = maxMediaListLimit
	}
	items, err := h.svc.Media.List(r.Context(), owner.ID, category, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, items, start)
}
