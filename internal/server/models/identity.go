// Package models defines server-side data models persisted in the central
// store and in per-identity stores.
package models

import "time"

// Identity is the durable user record, keyed by normalized email.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
