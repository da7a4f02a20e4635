// Package repomanager vends repository implementations bound to a DBTX and
// applies the central-store migrations with goose.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/identities"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/projects"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/timeentries"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error

	// central store
	Identities(db dbx.DBTX) identities.Repository
	OTPCodes(db dbx.DBTX) otpcodes.Repository
	Sessions(db dbx.DBTX) sessions.Repository

	// per-identity store
	Projects(db dbx.DBTX) projects.Repository
	TimeEntries(db dbx.DBTX) timeentries.Repository
}
