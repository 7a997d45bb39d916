// Package users is the credential store: read access to user records plus
// the password hash rewrite used by the reset flow.
package users

import (
	"context"

	"github.com/dmitrijs2005/discbaboons/internal/server/models"
)

// Repository returns common.ErrorNotFound when no row matches.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error)
}
