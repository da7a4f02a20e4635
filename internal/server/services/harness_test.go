package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/auth"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/timereport/internal/server/userstore"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// captureSender records the last code sent to every email.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
	err   error
}

func (s *captureSender) SendCode(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[email] = code
	s.sent++
	return nil
}

func (s *captureSender) last(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[common.NormalizeEmail(email)]
}

// countingProvisioner wraps a provisioner, counting calls and optionally
// failing them.
type countingProvisioner struct {
	next StoreProvisioner
	mu   sync.Mutex
	n    int
	fail bool
}

func (p *countingProvisioner) Create(ctx context.Context, identityID string) error {
	p.mu.Lock()
	p.n++
	fail := p.fail
	p.mu.Unlock()
	if fail {
		return errors.New("schema apply failed")
	}
	return p.next.Create(ctx, identityID)
}

func (p *countingProvisioner) Exists(identityID string) bool {
	return p.next.Exists(identityID)
}

func (p *countingProvisioner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

type env struct {
	db          *sql.DB
	rm          repomanager.RepositoryManager
	registry    *userstore.Registry
	provisioner *countingProvisioner
	sender      *captureSender
	clock       *testClock
	issuer      *auth.Issuer
	auth        *AuthService
	projects    *ProjectService
	entries     *TimeEntryService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := repomanager.OpenCentral(ctx, dbx.DriverSQLite, filepath.Join(dir, "central.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewSQLRepositoryManager(dbx.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	registry := userstore.NewRegistry(filepath.Join(dir, "users"), time.Minute, logging.Nop())
	t.Cleanup(func() { _ = registry.Close() })

	clock := &testClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	issuer, err := auth.NewIssuer(
		"access-secret-0123456789abcdef0123",
		"refresh-secret-0123456789abcdef012",
		auth.WithClock(clock.Now),
	)
	require.NoError(t, err)

	e := &env{
		db:          db,
		rm:          rm,
		registry:    registry,
		provisioner: &countingProvisioner{next: registry},
		sender:      &captureSender{},
		clock:       clock,
		issuer:      issuer,
	}
	e.auth = NewAuthService(db, rm, issuer, e.provisioner, e.sender, logging.Nop(), WithAuthClock(clock.Now))
	e.projects = NewProjectService(registry, rm)
	e.projects.now = clock.Now
	e.entries = NewTimeEntryService(registry, rm, logging.Nop())
	e.entries.now = clock.Now
	return e
}

// login requests and verifies a code for email.
func (e *env) login(t *testing.T, email string) *LoginResult {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.auth.RequestOtp(ctx, email))
	res, err := e.auth.VerifyOtp(ctx, email, e.sender.last(email))
	require.NoError(t, err)
	return res
}

func (e *env) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(query, args...).Scan(&n))
	return n
}
