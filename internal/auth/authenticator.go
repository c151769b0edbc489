// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/shelfwise/internal/models"
)

// Authentication errors. Middleware maps all of them to 401.
var (
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Header names used by the development authenticator.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

// tokenCookie is read when no Authorization header is present, which is
// how browsers authenticate the WebSocket upgrade.
const tokenCookie = "token"

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error)
	Name() string
}

// JWTAuthenticator accepts HS256 bearer tokens.
type JWTAuthenticator struct {
	manager *JWTManager
}

// NewJWTAuthenticator creates a JWTAuthenticator.
func NewJWTAuthenticator(manager *JWTManager) *JWTAuthenticator {
	return &JWTAuthenticator{manager: manager}
}

func (a *JWTAuthenticator) Name() string { return "jwt" }

// Authenticate extracts the bearer token from the Authorization header
// or the token cookie.
func (a *JWTAuthenticator) Authenticate(_ context.Context, r *http.Request) (*AuthSubject, error) {
	raw := extractToken(r)
	if raw == "" {
		return nil, ErrNoCredentials
	}
	claims, err := a.manager.ValidateToken(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}
	if models.ValidateUserID(claims.Subject) != nil {
		return nil, ErrInvalidCredentials
	}

	s := &AuthSubject{
		UserID:   claims.Subject,
		Roles:    append([]string{RoleUser}, claims.Roles...),
		Provider: a.Name(),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// HeaderAuthenticator trusts the X-User-ID header. It exists for local
// development and tests behind a trusted proxy only.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Name() string { return "header" }

// Authenticate reads X-User-ID and the optional comma-separated
// X-User-Roles.
func (HeaderAuthenticator) Authenticate(_ context.Context, r *http.Request) (*AuthSubject, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return nil, ErrNoCredentials
	}
	if models.ValidateUserID(id) != nil {
		return nil, ErrInvalidCredentials
	}
	roles := []string{RoleUser}
	for _, role := range strings.Split(r.Header.Get(HeaderUserRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return &AuthSubject{UserID: id, Roles: roles, Provider: "header"}, nil
}
