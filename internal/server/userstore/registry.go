// Package userstore provisions and caches the per-identity SQLite stores.
// Each identity owns one file, <dir>/<identityID>.db, holding its projects and
// time entries; isolation comes from store selection, not from a filter column.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/filex"
	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/migrations"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

const (
	fileExt        = ".db"
	partialSuffix  = ".partial"
	DefaultTimeout = 30 * time.Second
)

// migrateStore applies the per-identity schema. It is a seam for tests.
var migrateStore = func(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations.UserStore, migrations.UserStoreDir)
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// Registry owns every open per-identity store handle of the process.
type Registry struct {
	dir     string
	timeout time.Duration
	log     logging.Logger

	mu      sync.Mutex
	handles map[string]*sql.DB

	creating singleflight.Group
}

// NewRegistry returns a Registry rooted at dir. Create calls are bounded by
// timeout (DefaultTimeout when non-positive).
func NewRegistry(dir string, timeout time.Duration, log logging.Logger) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Registry{
		dir:     dir,
		timeout: timeout,
		log:     log.With("module", "userstore"),
		handles: make(map[string]*sql.DB),
	}
}

// Dir returns the directory holding the store files.
func (r *Registry) Dir() string { return r.dir }

// Path returns the canonical file location of an identity's store.
func (r *Registry) Path(identityID string) string {
	return filepath.Join(r.dir, identityID+fileExt)
}

// Get returns the cached handle for identityID, opening it on first use.
// Concurrent calls for the same identity share one handle. A store that was
// never created yields common.ErrorNotFound.
func (r *Registry) Get(identityID string) (*sql.DB, error) {
	if err := validateID(identityID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.handles[identityID]; ok {
		return db, nil
	}

	path := r.Path(identityID)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("store %s: %w", identityID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("stat store: %w", err)
	}

	db, err := sql.Open(dbx.DriverSQLite, dbx.SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	r.handles[identityID] = db

	return db, nil
}

// Exists reports whether the identity's store file is present.
func (r *Registry) Exists(identityID string) bool {
	if validateID(identityID) != nil {
		return false
	}
	_, err := os.Stat(r.Path(identityID))
	return err == nil
}

// Create materializes an empty store for identityID. It is idempotent: an
// existing store is left untouched. Concurrent calls for the same identity
// are collapsed into one. The schema is built in a side file that is renamed
// into place only when complete, so a failed or timed-out attempt never
// leaves a store behind. Failures wrap common.ErrStoreProvisioning.
func (r *Registry) Create(ctx context.Context, identityID string) error {
	if err := validateID(identityID); err != nil {
		return err
	}

	_, err, _ := r.creating.Do(identityID, func() (any, error) {
		return nil, r.create(ctx, identityID)
	})
	return err
}

func (r *Registry) create(ctx context.Context, identityID string) error {
	path := r.Path(identityID)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.build(ctx, path); err != nil {
		r.log.Error(ctx, "store provisioning failed", "identity_id", identityID, "error", err)
		return fmt.Errorf("%w: %w", common.ErrStoreProvisioning, err)
	}

	r.log.Info(ctx, "store provisioned", "identity_id", identityID, "duration", time.Since(start))
	return nil
}

func (r *Registry) build(ctx context.Context, path string) (err error) {
	if err := filex.EnsureDir(r.dir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := path + partialSuffix
	removeFiles(tmp)
	defer func() {
		if err != nil {
			removeFiles(tmp)
		}
	}()

	db, err := sql.Open(dbx.DriverSQLite, dbx.SQLiteDSN(tmp))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if err := migrateStore(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = db.Close()
		return err
	}
	// closing the last connection checkpoints the WAL into the main file
	if err := db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("install store: %w", err)
	}
	removeFiles(tmp)
	return nil
}

// IdentityIDs lists the identities that have a store, sorted.
func (r *Registry) IdentityIDs() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if validateID(id) == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes every cached handle. The registry stays usable; later Get
// calls reopen stores.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id, db := range r.handles {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store %s: %w", id, err))
		}
		delete(r.handles, id)
	}
	return errors.Join(errs...)
}

// validateID keeps identifiers from escaping the data directory.
func validateID(identityID string) error {
	if u, err := uuid.Parse(identityID); err != nil || u.String() != identityID {
		return fmt.Errorf("%w: identity id %q", common.ErrorValidation, identityID)
	}
	return nil
}

func removeFiles(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		_ = os.Remove(p)
	}
}
