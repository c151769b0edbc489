// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package authz

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/shelfwise/internal/auth"
)

func newEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(EnforcerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := newEnforcer(t)

	tests := []struct {
		name   string
		roles  []string
		object string
		action string
		want   bool
	}{
		{"admin reindex", []string{"user", "admin"}, "/api/v1/admin/search/reindex", "write", true},
		{"admin flags", []string{"admin"}, "/api/v1/admin/profiles/u_1/flags", "write", true},
		{"admin audit via moderator", []string{"admin"}, "/api/v1/admin/counters/u_1", "read", true},
		{"moderator audit", []string{"moderator"}, "/api/v1/admin/counters/u_1", "read", true},
		{"moderator flags", []string{"moderator"}, "/api/v1/admin/profiles/u_1/flags", "write", false},
		{"moderator nested path", []string{"moderator"}, "/api/v1/admin/counters/u_1/extra", "read", false},
		{"user", []string{"user"}, "/api/v1/admin/search/reindex", "write", false},
		{"no roles", nil, "/api/v1/admin/counters/u_1", "read", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EnforceWithRoles("u_9", tt.roles, tt.object, tt.action)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("EnforceWithRoles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforcer_UserGrant(t *testing.T) {
	e := newEnforcer(t)
	if ok, _ := e.EnforceWithRoles("u_7", nil, "/api/v1/admin/search/reindex", "write"); ok {
		t.Fatal("allowed before grant")
	}
	if _, err := e.AddRoleForUser("u_7", "admin"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := e.EnforceWithRoles("u_7", nil, "/api/v1/admin/search/reindex", "write"); !ok {
		t.Error("denied after grant")
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, ops, /api/v1/admin/*, read\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if ok, _ := e.Enforce("ops", "/api/v1/admin/counters/u_1", "read"); !ok {
		t.Error("file policy not applied")
	}
	if ok, _ := e.Enforce("admin", "/api/v1/admin/counters/u_1", "read"); ok {
		t.Error("embedded policy leaked into file policy")
	}

	if _, err := NewEnforcer(EnforcerConfig{PolicyPath: filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Error("missing policy file accepted")
	}
}

func TestMiddleware_AuthorizeRequest(t *testing.T) {
	mw := NewMiddleware(newEnforcer(t))
	h := mw.AuthorizeRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		method  string
		path    string
		subject *auth.AuthSubject
		want    int
	}{
		{"admin write", http.MethodPost, "/api/v1/admin/search/reindex", &auth.AuthSubject{UserID: "u_1", Roles: []string{"user", "admin"}}, http.StatusNoContent},
		{"moderator read", http.MethodGet, "/api/v1/admin/counters/u_2", &auth.AuthSubject{UserID: "u_1", Roles: []string{"moderator"}}, http.StatusNoContent},
		{"moderator write", http.MethodPost, "/api/v1/admin/profiles/u_2/flags", &auth.AuthSubject{UserID: "u_1", Roles: []string{"moderator"}}, http.StatusForbidden},
		{"plain user", http.MethodGet, "/api/v1/admin/counters/u_2", &auth.AuthSubject{UserID: "u_1", Roles: []string{"user"}}, http.StatusForbidden},
		{"unauthenticated", http.MethodGet, "/api/v1/admin/counters/u_2", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.subject != nil {
				r = r.WithContext(auth.WithSubject(r.Context(), tt.subject))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMethodToAction(t *testing.T) {
	for method, want := range map[string]string{
		http.MethodGet: "read", http.MethodHead: "read",
		http.MethodPost: "write", http.MethodPut: "write", http.MethodPatch: "write",
		http.MethodDelete: "delete",
	} {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %q, want %q", method, got, want)
		}
	}
}
