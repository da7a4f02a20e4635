package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/dbx"
	"github.com/dmitrijs2005/timereport/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectWithStats = `
	SELECT p.id, p.name, p.description, p.hourly_rate, p.start_date, p.end_date,
	       p.is_active, p.created_at, p.updated_at, COALESCE(SUM(te.minutes), 0)
	FROM projects p
	LEFT JOIN time_entries te ON te.project_id = p.id
`

// List returns projects newest first with their total logged minutes.
// Inactive projects are skipped unless includeInactive is set.
func (r *SQLiteRepository) List(ctx context.Context, includeInactive bool) ([]models.ProjectWithStats, error) {
	query := selectWithStats
	if !includeInactive {
		query += ` WHERE p.is_active = TRUE`
	}
	query += ` GROUP BY p.id ORDER BY p.created_at DESC, p.id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.ProjectWithStats, 0)
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Get returns one project with its stats or common.ErrorNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.ProjectWithStats, error) {
	query := selectWithStats + ` WHERE p.id = $1 GROUP BY p.id`
	p, err := scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return p, err
}

func (r *SQLiteRepository) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (id, name, description, hourly_rate, start_date, end_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.HourlyRate, p.StartDate, p.EndDate, p.IsActive,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of upd. Only the columns present in upd
// appear in the statement.
func (r *SQLiteRepository) Update(ctx context.Context, id string, upd models.ProjectUpdate, now time.Time) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.HourlyRate != nil {
		set("hourly_rate", *upd.HourlyRate)
	}
	if upd.StartDate != nil {
		set("start_date", *upd.StartDate)
	}
	if upd.ClearEndDate {
		set("end_date", nil)
	} else if upd.EndDate != nil {
		set("end_date", *upd.EndDate)
	}
	if upd.IsActive != nil {
		set("is_active", *upd.IsActive)
	}
	set("updated_at", now.UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

// Delete removes a project together with its time entries.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.ProjectWithStats, error) {
	var (
		p           models.ProjectWithStats
		description sql.NullString
		rate        sql.NullInt64
		endDate     sql.NullString
	)
	err := s.Scan(&p.ID, &p.Name, &description, &rate, &p.StartDate, &endDate,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.TotalMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	if rate.Valid {
		p.HourlyRate = &rate.Int64
	}
	if endDate.Valid {
		p.EndDate = &endDate.String
	}
	return &p, nil
}
