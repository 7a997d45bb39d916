package common

import "time"

// AuthorizationHeaderName carries the bearer access token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme prefixes the access token inside the Authorization header.
const BearerScheme = "Bearer "

const (
	// ResetCodeLength is the number of characters in a password reset code.
	ResetCodeLength = 6

	// ResetCodeTTL is the maximum lifetime of a password reset code.
	ResetCodeTTL = 30 * time.Minute
)

const resetCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
