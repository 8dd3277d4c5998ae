// Package repomanager vends repositories bound to a database handle, so a
// service can run several of them against the same *sql.Tx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pixkeeper/internal/dbx"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/images"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/invites"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Invites(db dbx.DBTX) invites.Repository
	Images(db dbx.DBTX) images.Repository
}
