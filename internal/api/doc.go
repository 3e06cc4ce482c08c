// Package api implements the HTTP REST API and WebSocket server for SmartConnect Core.
//
// This package provides:
//   - REST endpoints for departments, sensors, barriers, the event log,
//     and the identity directory (users, roles, profiles)
//   - Bearer token authentication with role resolution per request
//   - WebSocket live feed of recorded events and state changes
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for production deployments
//
// # Security
//
// Tokens are issued by the identity provider and only verified here. The
// caller's role is always looked up from their profile, never read from the
// token. Every handler asks the policy table before touching storage; a
// caller who is not Admin gets 403 whether or not the target exists.
// WebSocket connections use single-use tickets so tokens never appear in URLs.
//
// # Errors
//
// Every failure is answered with {"error": {"code", "message", "field"}}.
// Validation problems and unknown enum values are 400, invalid state
// transitions 422, conflicts 409.
package api
