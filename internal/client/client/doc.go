// Package client talks to the timereport backend on behalf of the CLI.
//
// APIClient speaks the JSON API over HTTP. The access and refresh tokens the
// server sets as cookies are captured into a Session, which FileStore keeps
// on disk between invocations. CheckHealth queries the gRPC health endpoint.
//
// Errors that callers match with errors.Is: ErrUnavailable (transport
// failure), ErrUnauthorized (401), ErrNoSession (nothing stored).
package client
