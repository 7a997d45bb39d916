// Package bootstrap seeds the credential store on startup.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/dmitrijs2005/discbaboons/internal/server/models"
	"github.com/dmitrijs2005/discbaboons/internal/server/repositories/users"
)

type hasher interface {
	Hash(password string) (string, error)
}

// Admin describes the administrator account to ensure.
type Admin struct {
	Username string
	Email    string
	Password string
}

// Configured reports whether all fields are set.
func (a Admin) Configured() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

// EnsureAdmin creates the admin account unless a user with that username
// already exists. An existing account is left untouched.
func EnsureAdmin(ctx context.Context, repo users.Repository, h hasher, a Admin, logger logging.Logger) error {
	username := strings.ToLower(strings.TrimSpace(a.Username))

	_, err := repo.GetByUsername(ctx, username)
	if err == nil {
		logger.Debug(ctx, "admin account present", "username", username)
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := h.Hash(a.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	u, err := repo.Create(ctx, &models.User{
		Username:     username,
		Email:        strings.TrimSpace(a.Email),
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info(ctx, "admin account created", "user_id", u.ID, "username", username)
	return nil
}
