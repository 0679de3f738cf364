// Package auth provides authentication and authorisation for the HTTP API.
//
// Callers authenticate with either a short-lived HS256 access token
// (Authorization: Bearer) or a long-lived API key (X-API-Key) whose
// Argon2id hash is stored in configuration. Both resolve to a Principal
// carrying one of three roles:
//
//	viewer    read appliance state and history
//	operator  viewer + send commands and refresh
//	admin     operator + diagnostics
//
// Role permissions are a static map; there is no user database.
package auth
