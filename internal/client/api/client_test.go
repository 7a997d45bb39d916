package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", 2*time.Second, logging.NewNop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin(t *testing.T) {
	var got map[string]string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    map[string]any{"id": 5, "username": "alice", "email": "a@example.com", "isAdmin": true},
			"tokens":  map[string]string{"accessToken": "a", "refreshToken": "r"},
		})
	})

	res, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"username": "alice", "password": "pw"}, got)
	assert.Equal(t, int64(5), res.User.ID)
	assert.True(t, res.User.IsAdmin)
	assert.Equal(t, "r", res.Tokens.RefreshToken)
}

func TestLogin_Rejected(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid username or password"})
	})

	_, err := c.Login(context.Background(), "alice", "bad")
	var se *ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Equal(t, "Invalid username or password", UserMessage(err))
}

func TestRefresh(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "accessToken": "a2", "refreshToken": "r2"})
	})

	pair, err := c.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "a2", pair.AccessToken)
	assert.Equal(t, "r2", pair.RefreshToken)
}

func TestRefresh_RejectedTokenIsInvalidRefreshToken(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]any{"success": false, "message": "Invalid or expired refresh token"})
		})
		_, err := c.Refresh(context.Background(), "r1")
		require.ErrorIs(t, err, common.ErrInvalidRefreshToken, "status %d", status)
		assert.Equal(t, msgSessionEnded, UserMessage(err))
	}
}

func TestRefresh_ServerErrorIsNotInvalidToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Internal server error"})
	})
	_, err := c.Refresh(context.Background(), "r1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrInvalidRefreshToken))
	assert.Equal(t, msgSomethingBad, UserMessage(err))
}

func TestRefresh_IncompleteBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "accessToken": "a2"})
	})
	_, err := c.Refresh(context.Background(), "r1")
	var se *ServerError
	require.True(t, errors.As(err, &se))
}

func TestUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c := New(ts.URL, time.Second, logging.NewNop())

	_, err := c.Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, msgUnavailable, UserMessage(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})
	c := New(ts.URL, 50*time.Millisecond, logging.NewNop())

	_, err := c.Refresh(context.Background(), "r1")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, msgTimeout, UserMessage(err))
}

func TestMessages(t *testing.T) {
	var paths []string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok:" + r.URL.Path})
	})
	ctx := context.Background()

	msg, err := c.ForgotPassword(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "ok:/api/auth/forgot-password", msg)

	_, err = c.ChangePassword(ctx, "ABC123", "new-password", "alice", "")
	require.NoError(t, err)

	_, err = c.ForgotUsername(ctx, "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/auth/forgot-password", "/api/auth/change-password", "/api/auth/forgot-username"}, paths)
}

func TestMe(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid or expired token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": map[string]any{"id": 1, "username": "alice"}})
	})

	u, err := c.Me(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = c.Me(context.Background(), "other")
	require.Error(t, err)
}

func TestUserMessage_Nil(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, msgSomethingBad, UserMessage(errors.New("x")))
}
