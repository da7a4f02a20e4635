package server

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timereport/internal/logging"
)

// SessionCleaner removes sessions past their stored expiry.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// runSessionCleaner calls c every interval until ctx is done.
func runSessionCleaner(ctx context.Context, c SessionCleaner, interval time.Duration, log logging.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.CleanupExpiredSessions(ctx)
			if err != nil {
				log.Error(ctx, "failed to clean expired sessions", "error", err)
				continue
			}
			if n > 0 {
				log.Info(ctx, "cleaned expired sessions", "removed", n)
			}
		}
	}
}
