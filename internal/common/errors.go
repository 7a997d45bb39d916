// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these
// values and errors.As to extract a *ValidationError.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Caller supplied malformed or missing input.
	ErrValidation = errors.New("validation error")

	// Bad credentials. Unknown user and wrong password share this error.
	ErrAuthentication = errors.New("Invalid username or password")

	// Secret rejections. Expired, forged and consumed values are not told apart.
	ErrInvalidRefreshToken = errors.New("Invalid or expired refresh token")
	ErrInvalidResetCode    = errors.New("Invalid or expired reset code")

	// Access token missing or rejected on a protected route.
	ErrAuthorization = errors.New("unauthorized")
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Message string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
