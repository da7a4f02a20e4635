// Package timeentries declares the per-identity repository contract for
// daily time entries.
package timeentries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timereport/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, filter models.TimeEntryFilter) ([]models.TimeEntry, error)
	Range(ctx context.Context, from, to string) ([]models.TimeEntry, error)
	Get(ctx context.Context, id string) (*models.TimeEntry, error)
	Upsert(ctx context.Context, e *models.TimeEntry) (string, error)
	Update(ctx context.Context, id string, upd models.TimeEntryUpdate, now time.Time) error
	Delete(ctx context.Context, id string) error
}
