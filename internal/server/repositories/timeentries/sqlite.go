package timeentries

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

const selectWithProject = `
	SELECT te.id, te.project_id, te.date, te.minutes, te.description, te.created_at, te.updated_at,
	       p.name, p.hourly_rate, p.is_active
	FROM time_entries te
	JOIN projects p ON p.id = te.project_id
`

// List returns entries matching filter, newest date first. Each filter field
// that is set adds one predicate.
func (r *SQLiteRepository) List(ctx context.Context, filter models.TimeEntryFilter) ([]models.TimeEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(predicate string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(predicate, len(args)))
	}

	if filter.ProjectID != nil {
		add("te.project_id = $%d", *filter.ProjectID)
	}
	if filter.From != nil {
		add("te.date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("te.date <= $%d", *filter.To)
	}

	query := selectWithProject
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY te.date DESC, te.id DESC"

	return r.query(ctx, query, args...)
}

// Range returns the entries dated within [from, to], oldest first.
func (r *SQLiteRepository) Range(ctx context.Context, from, to string) ([]models.TimeEntry, error) {
	query := selectWithProject + ` WHERE te.date >= $1 AND te.date <= $2 ORDER BY te.date ASC, te.id ASC`
	return r.query(ctx, query, from, to)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.TimeEntry, error) {
	query := selectWithProject + ` WHERE te.id = $1`
	e, err := scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	return e, err
}

// Upsert inserts e or, when the project already has an entry for that date,
// overwrites its minutes, and its description when e carries one. It returns
// the id of the stored row, which differs from e.ID on update.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.TimeEntry) (string, error) {
	query := `
		INSERT INTO time_entries (id, project_id, date, minutes, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id, date) DO UPDATE
		SET minutes = excluded.minutes,
		    description = COALESCE(excluded.description, time_entries.description),
		    updated_at = excluded.updated_at
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.ProjectID, e.Date, e.Minutes, e.Description, e.CreatedAt.UTC(), e.UpdatedAt.UTC()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("error performing sql request: %w", err)
	}
	return id, nil
}

// Update applies the non-nil fields of upd. Moving an entry onto a date that
// already has one for the same project yields common.ErrorConflict.
func (r *SQLiteRepository) Update(ctx context.Context, id string, upd models.TimeEntryUpdate, now time.Time) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Date != nil {
		set("date", *upd.Date)
	}
	if upd.Minutes != nil {
		set("minutes", *upd.Minutes)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	set("updated_at", now.UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE time_entries SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("time entry for that date: %w", common.ErrorConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.AffectedOne(res)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TimeEntry, 0)
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.TimeEntry, error) {
	var (
		e           models.TimeEntry
		p           models.ProjectRef
		description sql.NullString
		rate        sql.NullInt64
	)
	err := s.Scan(&e.ID, &e.ProjectID, &e.Date, &e.Minutes, &description, &e.CreatedAt, &e.UpdatedAt,
		&p.Name, &rate, &p.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if description.Valid {
		e.Description = &description.String
	}
	if rate.Valid {
		p.HourlyRate = &rate.Int64
	}
	p.ID = e.ProjectID
	e.Project = &p
	return &e, nil
}
