// Package otpcodes declares the central-store repository contract for hashed
// one-time login codes.
package otpcodes

import (
	"context"

	"github.com/dmitrijs2005/timereport/internal/server/models"
)

type Repository interface {
	InvalidateActive(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, code *models.OneTimeCode) error
	FindActive(ctx context.Context, email string) (*models.OneTimeCode, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
}
