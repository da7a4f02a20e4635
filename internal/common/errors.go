// Package common defines shared constants and sentinel errors used across
// client and server layers of timereport. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors raised by the HTTP layer and the client.
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid, expired or malformed token of any kind).
	ErrInvalidToken = errors.New("invalid token")

	// One-time code outcomes. The messages are returned to clients as is.
	ErrNoActiveCode    = errors.New("no active code")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrIncorrectCode   = errors.New("incorrect code")

	// Provisioning of the per-identity store failed; the identity was rolled back.
	ErrStoreProvisioning = errors.New("could not create user store")

	// Session lifecycle errors.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")

	// Signing secret configuration errors.
	ErrWeakSecret  = errors.New("signing secret must be at least 32 bytes")
	ErrSecretReuse = errors.New("access and refresh secrets must differ")

	// Rate limiting.
	ErrRateLimited = errors.New("too many requests")

	// Project/time entry rules.
	ErrProjectInactive = errors.New("project not found or inactive")
)

var credentialErrors = []error{
	ErrNoActiveCode, ErrCodeExpired, ErrTooManyAttempts, ErrIncorrectCode,
	ErrInvalidRefreshToken, ErrSessionNotFound, ErrSessionExpired,
	ErrInvalidToken, ErrorUnauthorized,
}

// CredentialError returns the authentication sentinel err wraps, or nil when
// err is not an expected authentication outcome.
func CredentialError(err error) error {
	for _, target := range credentialErrors {
		if errors.Is(err, target) {
			return target
		}
	}
	return nil
}
