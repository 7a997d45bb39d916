package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signAccess(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := AccessClaims{
		UserID:   7,
		Username: "baboon",
		IsAdmin:  true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return s
}

func TestDecodeAccess_ReadsClaimsWithoutSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok := signAccess(t, now.Add(time.Hour))

	claims, err := DecodeAccess(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "baboon", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.True(t, claims.ExpiresAt.Time.Equal(now.Add(time.Hour)))
}

func TestDecodeAccess_Garbage(t *testing.T) {
	_, err := DecodeAccess("not.a.jwt")
	assert.ErrorIs(t, err, ErrUndecodable)

	_, err = DecodeAccess("")
	assert.ErrorIs(t, err, ErrUndecodable)
}

func TestIsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	buffer := 120 * time.Second

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "30s left is inside the buffer", token: signAccess(t, now.Add(30*time.Second)), want: true},
		{name: "already expired", token: signAccess(t, now.Add(-time.Minute)), want: true},
		{name: "exactly at buffer", token: signAccess(t, now.Add(buffer)), want: true},
		{name: "15 minutes left", token: signAccess(t, now.Add(15*time.Minute)), want: false},
		{name: "undecodable", token: "garbage", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(tt.token, buffer, now))
		})
	}
}

func TestRefreshDelay(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	buffer := 120 * time.Second

	assert.Equal(t, 780*time.Second, RefreshDelay(signAccess(t, now.Add(900*time.Second)), buffer, now))
	assert.Equal(t, time.Duration(0), RefreshDelay(signAccess(t, now.Add(30*time.Second)), buffer, now))
	assert.Equal(t, time.Duration(0), RefreshDelay("garbage", buffer, now))
}

func TestPair_Complete(t *testing.T) {
	assert.True(t, (&Pair{AccessToken: "a", RefreshToken: "r"}).Complete())
	assert.False(t, (&Pair{AccessToken: "a"}).Complete())
	assert.False(t, (&Pair{RefreshToken: "r"}).Complete())

	var p *Pair
	assert.False(t, p.Complete())
}
