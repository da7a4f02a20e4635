package otpcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/server/models"
)

// SQLRepository keeps one-time codes in the central database. Rows are never
// deleted; used codes stay as an audit trail.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// InvalidateActive marks every unused code of email as used and returns how
// many were flipped.
func (r *SQLRepository) InvalidateActive(ctx context.Context, email string) (int64, error) {
	query := `
		UPDATE otp_codes
		SET used = TRUE
		WHERE email = $1 AND used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Create(ctx context.Context, code *models.OneTimeCode) error {
	query := `
		INSERT INTO otp_codes (id, email, code_hash, expires_at, attempts, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		code.ID, code.Email, code.CodeHash, code.ExpiresAt.UTC(), code.Attempts, code.Used, code.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// FindActive returns the most recently created unused code for email, or
// common.ErrorNotFound. Ids are time ordered, so they break created_at ties.
func (r *SQLRepository) FindActive(ctx context.Context, email string) (*models.OneTimeCode, error) {
	query := `
		SELECT id, email, code_hash, expires_at, attempts, used, created_at
		FROM otp_codes
		WHERE email = $1 AND used = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	c := &models.OneTimeCode{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&c.ID, &c.Email, &c.CodeHash, &c.ExpiresAt, &c.Attempts, &c.Used, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// MarkUsed flips the used flag of an unused code. It reports false when the
// code was already used, which lets concurrent verifications of the same code
// agree on a single winner.
func (r *SQLRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE otp_codes
		SET used = TRUE
		WHERE id = $1 AND used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// IncrementAttempts bumps the attempt counter of an unused code in a single
// statement and returns the new value. A used or missing code yields
// common.ErrorNotFound.
func (r *SQLRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE otp_codes
		SET attempts = attempts + 1
		WHERE id = $1 AND used = FALSE
		RETURNING attempts
	`
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}
