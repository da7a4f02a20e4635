// Package projects declares the per-identity repository contract for
// projects. Every implementation is bound to one identity's store.
package projects

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timereport/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]models.ProjectWithStats, error)
	Get(ctx context.Context, id string) (*models.ProjectWithStats, error)
	Create(ctx context.Context, p *models.Project) error
	Update(ctx context.Context, id string, upd models.ProjectUpdate, now time.Time) error
	Delete(ctx context.Context, id string) error
}
