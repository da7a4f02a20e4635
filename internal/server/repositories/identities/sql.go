package identities

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

// SQLRepository stores identities in the central database. Queries use $N
// placeholders understood by both the SQLite and the PostgreSQL driver.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// CreateIfAbsent inserts identity unless its email is already taken. It
// reports whether this call inserted the row; a lost race is not an error.
func (r *SQLRepository) CreateIfAbsent(ctx context.Context, identity *models.Identity) (bool, error) {
	query := `
		INSERT INTO identities (id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.Name, identity.CreatedAt.UTC(), identity.UpdatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// FindByEmail returns the identity with the given normalized email or
// common.ErrorNotFound.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM identities
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// FindByID returns the identity with the given id or common.ErrorNotFound.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM identities
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) UpdateName(ctx context.Context, id string, name *string, now time.Time) error {
	query := `
		UPDATE identities
		SET name = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, name, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

// Delete removes an identity; its sessions go with it.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM identities
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.Identity, error) {
	var (
		i    models.Identity
		name sql.NullString
	)
	if err := row.Scan(&i.ID, &i.Email, &name, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if name.Valid {
		i.Name = &name.String
	}
	return &i, nil
}
