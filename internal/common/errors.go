// Package common defines shared constants and sentinel errors used across
// the PixKeeper server, its admin CLI and the HTTP layer. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Object store or database failed while serving an otherwise valid request.
	ErrorUpstream = errors.New("upstream failure")

	// Signup errors (unknown or already redeemed invite token).
	ErrInvalidToken = errors.New("invalid invite token")
)
