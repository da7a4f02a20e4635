// Package sessions declares the central-store repository contract for
// refresh-token sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timereport/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	Rotate(ctx context.Context, id, oldToken, newToken string, expiresAt, now time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByIdentity(ctx context.Context, identityID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
