// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/profile"
)

// CreateProfileRequest is the first sign-in body. The user id comes from
// the auth context.
type CreateProfileRequest struct {
	Handle      string `json:"handle" validate:"required,handle"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

// EnsureProfile creates the caller's profile on first sign-in.
//
// @Summary Create own profile
// @Description Creates the caller's profile on first sign-in. Returns the existing profile with 200 when it already exists.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param body body CreateProfileRequest true "Handle and display name"
// @Success 201 {object} models.APIResponse{data=models.Profile} "Profile created"
// @Success 200 {object} models.APIResponse{data=models.Profile} "Profile already existed"
// @Failure 400 {object} models.APIResponse "Validation error"
// @Failure 409 {object} models.APIResponse "Handle taken"
// @Security BearerAuth
// @Router /profiles/me [post]
func (h *Handler) EnsureProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req CreateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, created, err := h.svc.Profiles.Ensure(r.Context(), profile.NewProfileInput{
		UserID:      userID,
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondSuccess(w, status, p, start)
}

// GetOwnProfile returns the caller's profile as stored.
//
// @Summary Get own profile
// @Tags Profiles
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.Profile}
// @Failure 404 {object} models.APIResponse "No profile yet"
// @Security BearerAuth
// @Router /profiles/me [get]
func (h *Handler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Profiles.Get(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}

// UpdateOwnProfile applies a partial edit and reindexes the profile.
//
// @Summary Edit own profile
// @Description Partial update. Omitted fields are unchanged; empty values clear a field. The search entry is rebuilt before the response.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param body body profile.ProfileUpdate true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.Profile}
// @Failure 400 {object} models.APIResponse "Validation error"
// @Failure 409 {object} models.APIResponse "Handle taken"
// @Security BearerAuth
// @Router /profiles/me [patch]
func (h *Handler) UpdateOwnProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var upd profile.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	p, err := h.svc.Profiles.Update(r.Context(), userID, upd)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}

// DisableOwnProfile soft-disables the caller's profile.
//
// @Summary Disable own profile
// @Tags Profiles
// @Produce json
// @Success 200 {object} models.APIResponse
// @Security BearerAuth
// @Router /profiles/me [delete]
func (h *Handler) DisableOwnProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Profiles.Disable(r.Context(), userID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"disabled": true}, start)
}

// GetProfile returns another user's profile as the caller may see it.
//
// @Summary View a profile
// @Tags Profiles
// @Produce json
// @Param userID path string true "User id"
// @Success 200 {object} models.APIResponse{data=models.Profile}
// @Failure 403 {object} models.APIResponse "Blocked in either direction"
// @Failure 404 {object} models.APIResponse "Missing or disabled"
// @Security BearerAuth
// @Router /profiles/{userID} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Profiles.View(r.Context(), viewerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}

// GetProfileByHandle resolves a handle and applies the same visibility
// rules as GetProfile.
//
// @Summary View a profile by handle
// @Tags Profiles
// @Produce json
// @Param handle path string true "Handle, case-insensitive"
// @Success 200 {object} models.APIResponse{data=models.Profile}
// @Failure 403 {object} models.APIResponse "Blocked in either direction"
// @Failure 404 {object} models.APIResponse "Unknown handle"
// @Security BearerAuth
// @Router /profiles/by-handle/{handle} [get]
func (h *Handler) GetProfileByHandle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	found, err := h.svc.Profiles.GetByHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	p, err := h.svc.Profiles.View(r.Context(), viewerID, found.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, p, start)
}
