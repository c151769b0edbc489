// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package authz guards the admin API with Casbin RBAC.
//
// Social operations need no authorization beyond authentication: every
// core call acts on behalf of the caller. Only routes under
// /api/v1/admin go through this package.
//
//	Request -> auth.Authenticate -> authz.AuthorizeRequest -> Handler
//
// The model matches the request path with keyMatch2 and maps HTTP
// methods to read, write and delete. The embedded policy grants admins
// the whole admin surface and moderators the counter audit:
//
//	p, admin, /api/v1/admin/*, write
//	p, moderator, /api/v1/admin/counters/:user, read
//	g, admin, moderator
//
// A policy file can replace the embedded one:
//
//	e, err := authz.NewEnforcer(authz.EnforcerConfig{PolicyPath: "/etc/shelfwise/policy.csv"})
package authz
