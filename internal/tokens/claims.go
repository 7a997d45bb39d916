// Package tokens defines the access/refresh token shapes shared by the auth
// server and the client, plus local (unverified) decoding helpers the client
// uses to read expiry and identity without a network round trip.
package tokens

import "github.com/golang-jwt/jwt/v5"

// Pair bundles a short-lived access token and a long-lived refresh token.
// Its JSON form is the one sent over the wire and kept in secure storage.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both tokens are present.
func (p *Pair) Complete() bool {
	return p != nil && p.AccessToken != "" && p.RefreshToken != ""
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. TokenVersion must equal
// the credential's current token version for the token to be honoured.
type RefreshClaims struct {
	UserID       int64 `json:"userId"`
	TokenVersion int64 `json:"ver"`
	jwt.RegisteredClaims
}
