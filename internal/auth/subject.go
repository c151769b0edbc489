// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"context"
	"slices"
	"time"
)

// Role names understood by the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AuthSubject is the authenticated caller. UserID is the id every core
// operation receives as its caller.
type AuthSubject struct {
	UserID    string    `json:"user_id"`
	Roles     []string  `json:"roles"`
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// HasRole reports whether the subject holds role.
func (s *AuthSubject) HasRole(role string) bool {
	return s != nil && slices.Contains(s.Roles, role)
}

// IsAdmin reports whether the subject holds the admin role.
func (s *AuthSubject) IsAdmin() bool { return s.HasRole(RoleAdmin) }

// IsExpired reports whether the subject's credentials have expired.
// Subjects without an expiry never expire.
func (s *AuthSubject) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

type contextKey string

const subjectContextKey contextKey = "auth_subject"

// WithSubject returns a context carrying s.
func WithSubject(ctx context.Context, s *AuthSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey, s)
}

// SubjectFromContext returns the authenticated subject, or nil.
func SubjectFromContext(ctx context.Context) *AuthSubject {
	s, _ := ctx.Value(subjectContextKey).(*AuthSubject)
	return s
}

// UserID returns the caller's id from ctx and whether one was present.
func UserID(ctx context.Context) (string, bool) {
	s := SubjectFromContext(ctx)
	if s == nil || s.UserID == "" {
		return "", false
	}
	return s.UserID, true
}
