package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/discbaboons/internal/dbx"
	"github.com/dmitrijs2005/discbaboons/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (a *sql.DB or a
// transaction) and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
