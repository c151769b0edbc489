// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/notify"
)

// Notifications pages the caller's tray, newest first.
//
// @Summary Notification tray
// @Tags Notifications
// @Produce json
// @Param unread_only query bool false "Only unread notifications"
// @Param before query string false "Cursor: next_cursor of the previous page"
// @Param limit query int false "Page size (1-200)" default(50)
// @Success 200 {object} models.APIResponse{data=[]models.Notification}
// @Security BearerAuth
// @Router /notifications [get]
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	opts := notify.ListOptions{
		UnreadOnly: getBoolParam(r, "unread_only"),
		Before:     r.URL.Query().Get("before"),
		Limit:      getIntParam(r, "limit", notify.DefaultPageSize),
	}
	list, err := h.svc.Notifications.List(r.Context(), userID, opts)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = notify.DefaultPageSize
	}
	if limit > notify.MaxPageSize {
		limit = notify.MaxPageSize
	}
	page := &models.PaginationInfo{Limit: limit}
	if len(list) == limit {
		page.HasMore = true
		page.NextCursor = list[len(list)-1].ID
	}
	respondPage(w, list, start, page)
}

// UnreadCount returns the number of unread notifications.
//
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} models.APIResponse{data=object{unread=int}}
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int64{"unread": n}, start)
}

// MarkNotificationRead marks one notification read.
//
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification id"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Not the caller's notification"
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"read": true}, start)
}

// MarkAllNotificationsRead marks the whole tray read.
//
// @Summary Mark all notifications read
// @Tags Notifications
// @Produce json
// @Success 200 {object} models.APIResponse{data=object{marked=int}}
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	marked, err := h.svc.Notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int{"marked": marked}, start)
}
