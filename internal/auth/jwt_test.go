// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, issuer string) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecret, issuer)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewJWTManager_ShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", ""); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newTestManager(t, "idp")
	token, err := m.GenerateToken("u_1", []string{"moderator"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "u_1" || len(claims.Roles) != 1 || claims.Roles[0] != "moderator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := newTestManager(t, "idp")
	other := newTestManager(t, "someone-else")

	expired, _ := m.GenerateToken("u_1", nil, -time.Minute)
	wrongIssuer, _ := other.GenerateToken("u_1", nil, time.Hour)
	noSubject, _ := m.GenerateToken("", nil, time.Hour)

	foreignKey, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u_1",
			Issuer:    "idp",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(strings.Repeat("x", 32)))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u_1", Issuer: "idp"},
	}).SignedString([]byte(testSecret))

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u_1",
			Issuer:    "idp",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong issuer", wrongIssuer},
		{"no subject", noSubject},
		{"foreign key", foreignKey},
		{"no expiry", noExpiry},
		{"alg none", unsigned},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Error("token accepted")
			}
		})
	}
}

func TestJWTManager_AnyIssuerWhenUnset(t *testing.T) {
	issuing := newTestManager(t, "idp")
	token, _ := issuing.GenerateToken("u_1", nil, time.Hour)
	if _, err := newTestManager(t, "").ValidateToken(token); err != nil {
		t.Errorf("ValidateToken = %v", err)
	}
}
