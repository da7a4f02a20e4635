// Package identities declares the central-store repository contract for
// identity records.
package identities

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timereport/internal/server/models"
)

type Repository interface {
	CreateIfAbsent(ctx context.Context, identity *models.Identity) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	UpdateName(ctx context.Context, id string, name *string, now time.Time) error
	Delete(ctx context.Context, id string) error
}
