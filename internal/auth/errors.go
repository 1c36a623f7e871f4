package auth

import "errors"

var (
	// ErrMissingSecret indicates signing material was not configured.
	// Tokens must never be issued under a default secret, so this surfaces
	// at codec construction rather than per request.
	ErrMissingSecret = errors.New("auth: signing secret is not configured")

	// ErrInvalidToken covers malformed, forged and expired tokens alike.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrInvalidInput = errors.New("auth: invalid input")
)
