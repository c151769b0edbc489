// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

/*
Package auth resolves the caller of an HTTP request.

Tokens are issued by an external identity provider; this service only
validates them. In "jwt" mode the request must carry an HS256 token in
the Authorization header (or the "token" cookie, which is how browsers
authenticate the WebSocket upgrade) whose "sub" claim is the user id.
In "none" mode the X-User-ID header is trusted as-is, which is meant for
local development only.

The resolved AuthSubject is stored in the request context:

	r.With(authMW.Authenticate).Get("/feed/{category}", h.Feed)

	userID, ok := auth.UserID(r.Context())

Handlers pass the user id explicitly into core operations; nothing below
the HTTP layer reads it from the context.
*/
package auth
