// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/shelfwise/internal/graph"
	"github.com/tomtom215/shelfwise/internal/models"
)

// Follow requests to follow a user. The edge is pending when the target
// approves followers.
//
// @Summary Follow a user
// @Description Creates the caller -> user edge. The edge is "pending" when the target requires approval, otherwise "accepted" and both counters change in the same transaction.
// @Tags Graph
// @Produce json
// @Param userID path string true "User to follow"
// @Success 201 {object} models.APIResponse{data=models.FollowEdge}
// @Failure 400 {object} models.APIResponse "Self-follow"
// @Failure 403 {object} models.APIResponse "Blocked in either direction"
// @Failure 404 {object} models.APIResponse "Unknown or disabled user"
// @Failure 409 {object} models.APIResponse "Edge already exists"
// @Failure 503 {object} models.APIResponse "Transient store failure, retry"
// @Security BearerAuth
// @Router /users/{userID}/follow [post]
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	followerID, ok := callerID(w, r)
	if !ok {
		return
	}
	edge, err := h.svc.Graph.RequestFollow(r.Context(), followerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, edge, start)
}

// Unfollow deletes the caller's edge to a user, accepted or pending.
//
// @Summary Unfollow a user
// @Tags Graph
// @Produce json
// @Param userID path string true "Followed user"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Not following"
// @Security BearerAuth
// @Router /users/{userID}/follow [delete]
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	followerID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Graph.Unfollow(r.Context(), followerID, chi.URLParam(r, "userID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"removed": true}, start)
}

// Relationship describes both directions between the caller and a user.
//
// @Summary Relationship with a user
// @Tags Graph
// @Produce json
// @Param userID path string true "Other user"
// @Success 200 {object} models.APIResponse{data=models.Relationship}
// @Security BearerAuth
// @Router /users/{userID}/relationship [get]
func (h *Handler) Relationship(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	rel, err := h.svc.Graph.GetRelationship(r.Context(), viewerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, rel, start)
}

// Followers lists a user's accepted followers.
//
// @Summary List followers
// @Tags Graph
// @Produce json
// @Param userID path string true "User"
// @Param after query string false "Cursor: next_cursor of the previous page"
// @Param limit query int false "Page size (1-500)" default(50)
// @Success 200 {object} models.APIResponse{data=[]models.FollowEdge}
// @Failure 403 {object} models.APIResponse "Blocked in either direction"
// @Security BearerAuth
// @Router /users/{userID}/followers [get]
func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.svc.Graph.ListFollowers, func(e *models.FollowEdge) string { return e.FollowerID })
}

// Following lists the accounts a user follows.
//
// @Summary List following
// @Tags Graph
// @Produce json
// @Param userID path string true "User"
// @Param after query string false "Cursor: next_cursor of the previous page"
// @Param limit query int false "Page size (1-500)" default(50)
// @Success 200 {object} models.APIResponse{data=[]models.FollowEdge}
// @Failure 403 {object} models.APIResponse "Blocked in either direction"
// @Security BearerAuth
// @Router /users/{userID}/following [get]
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	h.listEdges(w, r, h.svc.Graph.ListFollowing, func(e *models.FollowEdge) string { return e.FollowingID })
}

func (h *Handler) listEdges(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, userID string, page graph.Page) ([]*models.FollowEdge, error),
	cursor func(*models.FollowEdge) string) {
	start := time.Now()
	viewerID, ok := callerID(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")
	if userID != viewerID {
		blocked, err := h.svc.Blocks.IsBlocked(r.Context(), viewerID, userID)
		if err != nil {
			respondServiceError(w, r, err)
			return
		}
		if blocked {
			respondServiceError(w, r, fmt.Errorf("list edges of %s: %w", userID, models.ErrBlocked))
			return
		}
	}
	page := pageFrom(r)
	edges, err := list(r.Context(), userID, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, edges, start, edgePagination(edges, page, cursor))
}

// FollowRequests lists requests awaiting the caller's approval.
//
// @Summary Pending follow requests
// @Tags Graph
// @Produce json
// @Param after query string false "Cursor: next_cursor of the previous page"
// @Param limit query int false "Page size (1-500)" default(50)
// @Success 200 {object} models.APIResponse{data=[]models.FollowEdge}
// @Security BearerAuth
// @Router /follow-requests [get]
func (h *Handler) FollowRequests(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	page := pageFrom(r)
	edges, err := h.svc.Graph.ListPendingRequests(r.Context(), userID, page)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondPage(w, edges, start, edgePagination(edges, page, func(e *models.FollowEdge) string { return e.FollowerID }))
}

// AcceptFollowRequest approves a pending request from a user.
//
// @Summary Accept a follow request
// @Tags Graph
// @Produce json
// @Param userID path string true "Requesting user"
// @Success 200 {object} models.APIResponse{data=models.FollowEdge}
// @Failure 404 {object} models.APIResponse "No pending request"
// @Security BearerAuth
// @Router /follow-requests/{userID}/accept [post]
func (h *Handler) AcceptFollowRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	targetID, ok := callerID(w, r)
	if !ok {
		return
	}
	edge, err := h.svc.Graph.AcceptFollow(r.Context(), targetID, chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, edge, start)
}

// DeclineFollowRequest deletes a pending request from a user.
//
// @Summary Decline a follow request
// @Tags Graph
// @Produce json
// @Param userID path string true "Requesting user"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "No pending request"
// @Security BearerAuth
// @Router /follow-requests/{userID}/decline [post]
func (h *Handler) DeclineFollowRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	targetID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Graph.DeclineFollow(r.Context(), targetID, chi.URLParam(r, "userID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"declined": true}, start)
}

// RemoveFollower deletes a user's edge to the caller.
//
// @Summary Remove a follower
// @Tags Graph
// @Produce json
// @Param userID path string true "Follower to remove"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Not a follower"
// @Security BearerAuth
// @Router /followers/{userID} [delete]
func (h *Handler) RemoveFollower(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	targetID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Graph.RemoveFollower(r.Context(), targetID, chi.URLParam(r, "userID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"removed": true}, start)
}

// Block blocks a user and removes edges in both directions. Repeating a
// block succeeds with created=false.
//
// @Summary Block a user
// @Tags Graph
// @Produce json
// @Param userID path string true "User to block"
// @Success 200 {object} models.APIResponse{data=graph.BlockResult}
// @Failure 400 {object} models.APIResponse "Self-block"
// @Failure 404 {object} models.APIResponse "Unknown user"
// @Security BearerAuth
// @Router /users/{userID}/block [post]
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	blockerID, ok := callerID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Graph.Block(r.Context(), blockerID, chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, res, start)
}

// Unblock removes the caller's block. Edges removed by the block are not
// restored.
//
// @Summary Unblock a user
// @Tags Graph
// @Produce json
// @Param userID path string true "Blocked user"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Not blocked"
// @Security BearerAuth
// @Router /users/{userID}/block [delete]
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	blockerID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Graph.Unblock(r.Context(), blockerID, chi.URLParam(r, "userID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"unblocked": true}, start)
}

// Blocks lists the users the caller has blocked.
//
// @Summary List own blocks
// @Tags Graph
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Block}
// @Security BearerAuth
// @Router /blocks [get]
func (h *Handler) Blocks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Blocks.ListBlockedBy(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, list, start)
}

func pageFrom(r *http.Request) graph.Page {
	return graph.Page{After: r.URL.Query().Get("after"), Limit: getIntParam(r, "limit", graph.DefaultPageSize)}
}

// edgePagination reports a next cursor when the page came back full.
func edgePagination(edges []*models.FollowEdge, page graph.Page, cursor func(*models.FollowEdge) string) *models.PaginationInfo {
	limit := page.Limit
	if limit <= 0 {
		limit = graph.DefaultPageSize
	}
	if limit > graph.MaxPageSize {
		limit = graph.MaxPageSize
	}
	info := &models.PaginationInfo{Limit: limit}
	if len(edges) == limit && limit > 0 {
		info.HasMore = true
		info.NextCursor = cursor(edges[len(edges)-1])
	}
	return info
}
