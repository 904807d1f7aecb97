// Package common defines shared constants and sentinel errors used across
// the service layers of TruthMate. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// ErrStorageUnavailable marks failures where the persistence layer could
	// not be reached at all (closed pool, refused connection, timeouts).
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// ErrUpstreamUnavailable is returned when the ML service times out,
	// answers with a non-2xx status or with an undecodable body.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
