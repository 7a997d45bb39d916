package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUndecodable is returned when a token cannot be read locally.
var ErrUndecodable = errors.New("token cannot be decoded")

var unverified = jwt.NewParser()

// DecodeAccess reads access token claims WITHOUT checking the signature.
// Only use the result for scheduling and display; the server remains the
// authority on validity.
func DecodeAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := unverified.ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrUndecodable, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrUndecodable
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of token, decoded locally.
func ExpiresAt(token string) (time.Time, error) {
	claims, err := DecodeAccess(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

// IsExpired reports whether token expires within buffer of now. A token
// that cannot be decoded counts as expired.
func IsExpired(token string, buffer time.Duration, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !now.Add(buffer).Before(exp)
}

// RefreshDelay is how long to wait before refreshing token so that the
// refresh lands buffer ahead of expiry. It is zero when the token is already
// inside the buffer or cannot be decoded.
func RefreshDelay(token string, buffer time.Duration, now time.Time) time.Duration {
	exp, err := ExpiresAt(token)
	if err != nil {
		return 0
	}
	d := exp.Sub(now) - buffer
	if d < 0 {
		return 0
	}
	return d
}
