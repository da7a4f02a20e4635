package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/filex"
	"github.com/dmitrijs2005/timereport/internal/server/migrations"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/identities"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/projects"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/timeentries"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends the database/sql repositories for either central
// store driver and exposes the schema migration hook.
type SQLRepositoryManager struct {
	driver  string
	dialect string
}

// NewSQLRepositoryManager constructs a RepositoryManager for driver, which is
// dbx.DriverSQLite or dbx.DriverPostgres.
func NewSQLRepositoryManager(driver string) (RepositoryManager, error) {
	m := &SQLRepositoryManager{driver: driver}
	switch driver {
	case dbx.DriverSQLite:
		m.dialect = "sqlite3"
	case dbx.DriverPostgres:
		m.dialect = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return m, nil
}

func (m *SQLRepositoryManager) Identities(db dbx.DBTX) identities.Repository {
	return identities.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) OTPCodes(db dbx.DBTX) otpcodes.Repository {
	return otpcodes.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Projects(db dbx.DBTX) projects.Repository {
	return projects.NewSQLiteRepository(db)
}

func (m *SQLRepositoryManager) TimeEntries(db dbx.DBTX) timeentries.Repository {
	return timeentries.NewSQLiteRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded central migrations and runs
// them against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Central)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, migrations.CentralDir); err != nil {
		return err
	}
	return nil
}

// OpenCentral opens the central database for driver and dsn. SQLite paths
// get the pragmas from dbx.SQLiteDSN.
func OpenCentral(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver == dbx.DriverSQLite {
		if err := filex.EnsureParentDir(dsn, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbx.SQLiteDSN(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open central db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping central db: %w", err)
	}
	return db, nil
}
