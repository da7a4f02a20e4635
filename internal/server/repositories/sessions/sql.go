package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/server/models"
)

// SQLRepository implements session storage over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, identity_id, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.IdentityID, s.RefreshToken, s.ExpiresAt.UTC(), s.CreatedAt.UTC(), s.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// FindByToken returns the session holding exactly this refresh token, with
// the owner's email filled in. If not found, it returns common.ErrorNotFound.
func (r *SQLRepository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT s.id, s.identity_id, s.refresh_token, s.expires_at, s.created_at, s.updated_at, i.email
		FROM sessions s
		JOIN identities i ON i.id = s.identity_id
		WHERE s.refresh_token = $1
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&s.ID, &s.IdentityID, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt, &s.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Rotate replaces the refresh token and expiry of a session in place. The
// update only applies while the session still holds oldToken, so of two
// concurrent refreshes with the same token exactly one wins; the other gets
// common.ErrorNotFound.
func (r *SQLRepository) Rotate(ctx context.Context, id, oldToken, newToken string, expiresAt, now time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token = $1, expires_at = $2, updated_at = $3
		WHERE id = $4 AND refresh_token = $5
	`
	res, err := r.db.ExecContext(ctx, query, newToken, expiresAt.UTC(), now.UTC(), id, oldToken)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, token)
}

func (r *SQLRepository) DeleteByIdentity(ctx context.Context, identityID string) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM sessions WHERE identity_id = $1`, identityID)
}

// DeleteExpired removes sessions whose stored expiry is before now.
func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now.UTC())
}

func (r *SQLRepository) deleteWhere(ctx context.Context, query string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
