// Package migrations embeds the goose SQL migrations for the central store
// and for per-identity stores.
package migrations

import "embed"

// Central holds the identities, otp_codes and sessions schema. The SQL is
// portable between SQLite and PostgreSQL.
//
//go:embed central/*.sql
var Central embed.FS

// UserStore holds the projects and time_entries schema applied to every
// per-identity SQLite file.
//
//go:embed userstore/*.sql
var UserStore embed.FS

// Directories inside the embedded filesystems.
const (
	CentralDir   = "central"
	UserStoreDir = "userstore"
)
