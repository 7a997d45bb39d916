// Package resetcodes is the password reset ledger: at most one live code per
// user, stored under "password_reset:<userId>" with a TTL.
package resetcodes

import (
	"context"
	"strconv"
	"time"
)

const keyPrefix = "password_reset:"

// Key returns the ledger key for userID.
func Key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

// Repository stores reset codes. Put overwrites any previous code for the
// user. Get returns common.ErrorNotFound when no live code exists.
// DeleteIfMatch removes the entry only while it still holds code and
// reports whether it did.
type Repository interface {
	Put(ctx context.Context, userID int64, code string, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (string, error)
	DeleteIfMatch(ctx context.Context, userID int64, code string) (bool, error)
}
