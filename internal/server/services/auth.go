// Package services contains server-side business logic. This file implements
// AuthService: one-time code issuance and verification, first-login identity
// and store provisioning, and refresh-token session rotation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/auth"
	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/dmitrijs2005/timereport/internal/server/otp"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/otpcodes"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by a successful code verification.
type LoginResult struct {
	TokenPair
	Identity *models.Identity `json:"identity"`
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(identityID, email string) (string, error)
	IssueRefreshToken(identityID, email string) (string, error)
	VerifyRefreshToken(token string) (*auth.Claims, error)
	RefreshTokenExpiry() time.Time
}

// StoreProvisioner creates per-identity stores. Create must be idempotent and
// a call made while another is building the same store waits for its result.
type StoreProvisioner interface {
	Create(ctx context.Context, identityID string) error
	Exists(identityID string) bool
}

// CodeSender delivers a raw one-time code out of band.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      TokenIssuer
	stores      StoreProvisioner
	sender      CodeSender
	log         logging.Logger
	now         func() time.Time
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithAuthClock replaces time.Now, for tests.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, issuer TokenIssuer, stores StoreProvisioner,
	sender CodeSender, log logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		stores:      stores,
		sender:      sender,
		log:         log.With("module", "auth"),
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RequestOtp invalidates every unused code of the email, stores the hash of a
// fresh one and dispatches the raw code. The outcome never depends on whether
// an identity exists for the email.
func (s *AuthService) RequestOtp(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)

	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("new code id: %w", err)
	}
	record := &models.OneTimeCode{
		ID:        id.String(),
		Email:     email,
		CodeHash:  otp.HashCode(code),
		ExpiresAt: now.Add(otp.Validity),
		CreatedAt: now,
	}

	var invalidated int64
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.OTPCodes(tx)
		n, err := repo.InvalidateActive(ctx, email)
		if err != nil {
			return fmt.Errorf("error invalidating codes: %w", err)
		}
		invalidated = n
		if err := repo.Create(ctx, record); err != nil {
			return fmt.Errorf("error storing code: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		s.log.Error(ctx, "code dispatch failed", "email", email, "error", err)
		return fmt.Errorf("dispatch code: %w", err)
	}

	s.log.Info(ctx, "code issued", "email", email, "invalidated", invalidated)
	return nil
}

// VerifyOtp checks code against the latest active code of email. On success
// the code is consumed, the identity is found or created (provisioning its
// store on creation) and a new session is persisted.
func (s *AuthService) VerifyOtp(ctx context.Context, email, code string) (*LoginResult, error) {
	email = common.NormalizeEmail(email)
	codes := s.repomanager.OTPCodes(s.db)

	active, err := codes.FindActive(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "code verification", "email", email, "outcome", "no_active_code")
			return nil, common.ErrNoActiveCode
		}
		return nil, fmt.Errorf("error searching code: %w", err)
	}

	now := s.now()
	switch {
	case now.After(active.ExpiresAt):
		return nil, s.reject(ctx, codes, active, email, "expired", common.ErrCodeExpired)
	case active.Attempts >= otp.MaxAttempts:
		return nil, s.reject(ctx, codes, active, email, "too_many_attempts", common.ErrTooManyAttempts)
	}

	if !otp.VerifyCode(code, active.CodeHash) {
		attempts, err := codes.IncrementAttempts(ctx, active.ID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error counting attempt: %w", err)
		}
		s.log.Info(ctx, "code verification", "email", email, "outcome", "incorrect", "attempts", attempts)
		return nil, common.ErrIncorrectCode
	}

	consumed, err := codes.MarkUsed(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("error consuming code: %w", err)
	}
	if !consumed {
		// a concurrent verification consumed it first
		s.log.Info(ctx, "code verification", "email", email, "outcome", "already_used")
		return nil, common.ErrNoActiveCode
	}

	identity, err := s.findOrCreateIdentity(ctx, email)
	if err != nil {
		return nil, err
	}

	pair, err := s.startSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "code verification", "email", email, "outcome", "ok", "identity_id", identity.ID)
	return &LoginResult{TokenPair: *pair, Identity: identity}, nil
}

// RefreshAccessToken rotates the session holding refreshToken and returns a
// new token pair. Both the token's own expiry and the stored session expiry
// are enforced; an expired session is deleted.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := s.issuer.VerifyRefreshToken(refreshToken); err != nil {
		return nil, common.ErrInvalidRefreshToken
	}

	repo := s.repomanager.Sessions(s.db)
	session, err := repo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error searching session: %w", err)
	}

	now := s.now()
	if now.After(session.ExpiresAt) {
		if err := repo.Delete(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("error deleting session: %w", err)
		}
		s.log.Info(ctx, "session expired", "identity_id", session.IdentityID)
		return nil, common.ErrSessionExpired
	}

	pair, err := s.issuePair(session.IdentityID, session.Email)
	if err != nil {
		return nil, err
	}

	err = repo.Rotate(ctx, session.ID, refreshToken, pair.RefreshToken, s.issuer.RefreshTokenExpiry(), now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// rotated or deleted concurrently
			return nil, common.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error rotating session: %w", err)
	}

	return pair, nil
}

// Logout deletes any session holding refreshToken. Unknown tokens are not an
// error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.repomanager.Sessions(s.db).DeleteByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// LogoutAll deletes every session of the identity and returns how many were
// removed.
func (s *AuthService) LogoutAll(ctx context.Context, identityID string) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteByIdentity(ctx, identityID)
	if err != nil {
		return 0, fmt.Errorf("error deleting sessions: %w", err)
	}
	s.log.Info(ctx, "all sessions revoked", "identity_id", identityID, "count", n)
	return n, nil
}

func (s *AuthService) GetIdentity(ctx context.Context, identityID string) (*models.Identity, error) {
	return s.repomanager.Identities(s.db).FindByID(ctx, identityID)
}

// UpdateName sets or, with a nil name, clears the display name.
func (s *AuthService) UpdateName(ctx context.Context, identityID string, name *string) (*models.Identity, error) {
	repo := s.repomanager.Identities(s.db)
	if err := repo.UpdateName(ctx, identityID, name, s.now()); err != nil {
		return nil, err
	}
	return repo.FindByID(ctx, identityID)
}

// CleanupExpiredSessions removes sessions whose stored expiry has passed.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}

// --- helpers below ---

// reject consumes an exhausted or expired code and returns result.
func (s *AuthService) reject(ctx context.Context, codes otpcodes.Repository, active *models.OneTimeCode,
	email, outcome string, result error) error {
	if _, err := codes.MarkUsed(ctx, active.ID); err != nil {
		return fmt.Errorf("error consuming code: %w", err)
	}
	s.log.Info(ctx, "code verification", "email", email, "outcome", outcome, "attempts", active.Attempts)
	return result
}

// findOrCreateIdentity returns the identity for email, inserting it if absent.
// Only the call that inserted the row builds the store; if that fails the row
// is deleted again. Any other caller seeing an identity without a store joins
// the provisioning in flight and fails with it.
func (s *AuthService) findOrCreateIdentity(ctx context.Context, email string) (*models.Identity, error) {
	repo := s.repomanager.Identities(s.db)

	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		if s.stores.Exists(existing.ID) {
			return existing, nil
		}
		return s.awaitStore(ctx, existing.ID)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching identity: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("new identity id: %w", err)
	}
	now := s.now().UTC()
	identity := &models.Identity{ID: id.String(), Email: email, CreatedAt: now, UpdatedAt: now}

	inserted, err := repo.CreateIfAbsent(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("error creating identity: %w", err)
	}
	if !inserted {
		winner, err := repo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("%w: identity removed during provisioning", common.ErrStoreProvisioning)
			}
			return nil, fmt.Errorf("error searching identity: %w", err)
		}
		return s.awaitStore(ctx, winner.ID)
	}

	if err := s.stores.Create(ctx, identity.ID); err != nil {
		if delErr := repo.Delete(context.WithoutCancel(ctx), identity.ID); delErr != nil {
			s.log.Error(ctx, "identity rollback failed", "identity_id", identity.ID, "error", delErr)
		}
		s.log.Error(ctx, "store provisioning failed", "email", email, "error", err)
		return nil, provisioningError(err)
	}

	s.log.Info(ctx, "identity created", "identity_id", identity.ID)
	return identity, nil
}

// awaitStore waits for the store of an identity inserted by another call and
// re-reads the identity, which is gone if that call rolled it back.
func (s *AuthService) awaitStore(ctx context.Context, identityID string) (*models.Identity, error) {
	if _, err := s.findSurvivor(ctx, identityID); err != nil {
		return nil, err
	}
	if err := s.stores.Create(ctx, identityID); err != nil {
		return nil, provisioningError(err)
	}
	return s.findSurvivor(ctx, identityID)
}

func (s *AuthService) findSurvivor(ctx context.Context, identityID string) (*models.Identity, error) {
	identity, err := s.repomanager.Identities(s.db).FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: identity removed during provisioning", common.ErrStoreProvisioning)
		}
		return nil, fmt.Errorf("error searching identity: %w", err)
	}
	return identity, nil
}

func provisioningError(err error) error {
	if errors.Is(err, common.ErrStoreProvisioning) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStoreProvisioning, err)
}

func (s *AuthService) startSession(ctx context.Context, identity *models.Identity) (*TokenPair, error) {
	pair, err := s.issuePair(identity.ID, identity.Email)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("new session id: %w", err)
	}
	now := s.now().UTC()
	session := &models.Session{
		ID:           id.String(),
		IdentityID:   identity.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    s.issuer.RefreshTokenExpiry(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return pair, nil
}

func (s *AuthService) issuePair(identityID, email string) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(identityID, email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(identityID, email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
