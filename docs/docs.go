// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/docs.go -o docs --parseInternal
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/tomtom215/shelfwise/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/profiles/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Profiles"], "summary": "Get own profile", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}, "404": {"description": "No profile yet", "schema": {"$ref": "#/definitions/models.APIResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Profiles"], "summary": "Create own profile", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/api.CreateProfileRequest"}}], "responses": {"200": {"description": "Profile already existed"}, "201": {"description": "Profile created"}, "400": {"description": "Validation error"}, "409": {"description": "Handle taken"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Profiles"], "summary": "Update own profile", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}, "409": {"description": "Handle taken"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Profiles"], "summary": "Disable own profile", "responses": {"200": {"description": "OK"}}}
        },
        "/profiles/{userID}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Profiles"], "summary": "Get a profile", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Blocked"}, "404": {"description": "Not found or disabled"}}}
        },
        "/profiles/by-handle/{handle}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Profiles"], "summary": "Resolve a handle", "parameters": [{"type": "string", "name": "handle", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Blocked"}, "404": {"description": "Not found"}}}
        },
        "/users/{userID}/follow": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Follow a user", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"201": {"description": "Edge created, accepted or pending"}, "400": {"description": "Self-follow"}, "403": {"description": "Blocked"}, "404": {"description": "Unknown user"}, "409": {"description": "Edge exists"}, "503": {"description": "Transient, retry"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Unfollow a user", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not following"}}}
        },
        "/users/{userID}/block": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Block a user", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Self-block"}, "404": {"description": "Unknown user"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Unblock a user", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not blocked"}}}
        },
        "/users/{userID}/relationship": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Relationship with a user", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/{userID}/followers": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "List followers", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}, {"type": "string", "name": "after", "in": "query"}, {"type": "integer", "default": 50, "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Blocked"}}}
        },
        "/users/{userID}/following": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "List following", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}, {"type": "string", "name": "after", "in": "query"}, {"type": "integer", "default": 50, "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Blocked"}}}
        },
        "/users/{userID}/media/{category}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Feed"], "summary": "A user's collection", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}, {"type": "string", "name": "category", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Blocked"}}}
        },
        "/follow-requests": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Pending follow requests", "responses": {"200": {"description": "OK"}}}
        },
        "/follow-requests/{userID}/accept": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Accept a follow request", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "No pending request"}}}
        },
        "/follow-requests/{userID}/decline": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Decline a follow request", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "No pending request"}}}
        },
        "/followers/{userID}": {
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Remove a follower", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not a follower"}}}
        },
        "/blocks": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Graph"], "summary": "Users blocked by the caller", "responses": {"200": {"description": "OK"}}}
        },
        "/feed/{category}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Feed"], "summary": "Recommendation feed", "parameters": [{"type": "string", "name": "category", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown category"}}}
        },
        "/media/{category}/{externalID}": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Feed"], "summary": "Add or update a collection item", "parameters": [{"type": "string", "name": "category", "in": "path", "required": true}, {"type": "string", "name": "externalID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Feed"], "summary": "Remove a collection item", "parameters": [{"type": "string", "name": "category", "in": "path", "required": true}, {"type": "string", "name": "externalID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/search/profiles": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Search"], "summary": "Search profiles", "parameters": [{"type": "string", "name": "q", "in": "query"}, {"type": "string", "name": "tags", "in": "query"}, {"type": "boolean", "name": "verified", "in": "query"}, {"type": "string", "name": "location", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}, {"type": "integer", "name": "offset", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}}
        },
        "/search/suggest": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Search"], "summary": "Handle autocomplete", "parameters": [{"type": "string", "name": "prefix", "in": "query", "required": true}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Notification tray", "parameters": [{"type": "boolean", "name": "unread", "in": "query"}, {"type": "string", "name": "before", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/unread-count": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Unread notification count", "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/{id}/read": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Mark a notification read", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/notifications/read-all": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Mark all notifications read", "responses": {"200": {"description": "OK"}}}
        },
        "/ws": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Notifications"], "summary": "Live notification stream", "responses": {"101": {"description": "Switching protocols"}, "503": {"description": "Push delivery disabled"}}}
        },
        "/admin/search/reindex": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Rebuild the search index", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/admin/profiles/{userID}/flags": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Set verified and featured flags", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/admin/profiles/{userID}/activity": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Adjust post and review counts", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/admin/counters/{userID}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Audit follower counters", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        }
    },
    "definitions": {
        "api.CreateProfileRequest": {
            "type": "object",
            "required": ["handle"],
            "properties": {
                "handle": {"type": "string"},
                "display_name": {"type": "string", "maxLength": 64}
            }
        },
        "models.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {},
                "metadata": {"$ref": "#/definitions/models.Metadata"},
                "error": {"$ref": "#/definitions/models.APIError"}
            }
        },
        "models.Metadata": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"},
                "query_time_ms": {"type": "integer"},
                "cached": {"type": "boolean"},
                "pagination": {"$ref": "#/definitions/models.PaginationInfo"}
            }
        },
        "models.PaginationInfo": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "has_more": {"type": "boolean"},
                "next_cursor": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "\"Bearer <jwt>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Shelfwise API",
	Description:      "Social graph, notifications and recommendation feeds for a personal media tracker.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
