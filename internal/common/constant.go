// Package common contains shared constants and sentinel errors used across
// TruthMate components.
package common

// SessionCookieName is the cookie that carries the session token for browser
// clients. API clients send the same token as a Bearer Authorization header.
const SessionCookieName = "session"

// RequestIDHeaderName is echoed on every response so log lines can be matched
// to a client request.
const RequestIDHeaderName = "X-Request-ID"
