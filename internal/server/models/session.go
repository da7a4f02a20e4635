package models

import "time"

type Session struct {
	ID           string
	IdentityID   string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Email of the owning identity, filled by lookups that join identities.
	Email string
}
