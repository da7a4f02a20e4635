package models

import "time"

// OneTimeCode is a hashed login code issued to an email address. The raw code
// is never stored.
type OneTimeCode struct {
	ID        string
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	Used      bool
	CreatedAt time.Time
}
