// Package api is the CLI's HTTP client for the auth server.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/netx"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
)

// User is the public profile returned by login and /me.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsAdmin   bool      `json:"isAdmin"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	User   User        `json:"user"`
	Tokens tokens.Pair `json:"tokens"`
}

type envelope struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message"`
	User         *User        `json:"user"`
	Tokens       *tokens.Pair `json:"tokens"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// New returns a client for baseURL. Every call is bounded by timeout.
func New(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var env envelope
	if err := c.post(ctx, "/api/auth/login", map[string]string{"username": username, "password": password}, &env); err != nil {
		return nil, err
	}
	if env.User == nil || !env.Tokens.Complete() {
		return nil, &ServerError{Status: http.StatusOK, Message: "Invalid login response from server"}
	}
	return &LoginResult{User: *env.User, Tokens: *env.Tokens}, nil
}

// Refresh exchanges refreshToken for a new pair. A rejected token (400 or
// 401) is reported as common.ErrInvalidRefreshToken.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	var env envelope
	err := c.post(ctx, "/api/auth/refresh", map[string]string{"refreshToken": refreshToken}, &env)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, err
	}

	pair := &tokens.Pair{AccessToken: env.AccessToken, RefreshToken: env.RefreshToken}
	if !pair.Complete() {
		return nil, &ServerError{Status: http.StatusOK, Message: "Invalid refresh response from server"}
	}
	return pair, nil
}

// ForgotPassword requests a reset code by username or email.
func (c *Client) ForgotPassword(ctx context.Context, username, email string) (string, error) {
	return c.message(ctx, "/api/auth/forgot-password", map[string]string{"username": username, "email": email})
}

func (c *Client) ChangePassword(ctx context.Context, resetCode, newPassword, username, email string) (string, error) {
	return c.message(ctx, "/api/auth/change-password", map[string]string{
		"resetCode":   resetCode,
		"newPassword": newPassword,
		"username":    username,
		"email":       email,
	})
}

func (c *Client) ForgotUsername(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "/api/auth/forgot-username", map[string]string{"email": email})
}

// Me fetches the profile behind accessToken.
func (c *Client) Me(ctx context.Context, accessToken string) (*User, error) {
	var env envelope
	h := http.Header{}
	h.Set(common.AuthorizationHeaderName, common.BearerScheme+accessToken)
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", h, nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "Invalid profile response from server"}
	}
	return env.User, nil
}

func (c *Client) message(ctx context.Context, path string, body map[string]string) (string, error) {
	var env envelope
	if err := c.post(ctx, path, body, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) post(ctx context.Context, path string, body any, env *envelope) error {
	return c.do(ctx, http.MethodPost, path, nil, body, env)
}

func (c *Client) do(ctx context.Context, method, path string, h http.Header, body any, env *envelope) error {
	status, err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, h, body, env)
	if err != nil {
		if status == 0 {
			c.logger.Debug(ctx, "request failed", "path", path, "error", err)
			return transportError(err)
		}
		return &ServerError{Status: status, Message: "Invalid response from server"}
	}
	if status < 200 || status >= 300 {
		c.logger.Debug(ctx, "request rejected", "path", path, "status", status)
		return &ServerError{Status: status, Message: env.Message}
	}
	return nil
}
