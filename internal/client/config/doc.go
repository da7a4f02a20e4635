// Package config loads runtime configuration for the timereport CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string        base URL of the HTTP API
//	-g string        address:port of the gRPC health endpoint
//	-session string  path of the stored session
//	-timeout int     request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "health_addr": "127.0.0.1:50051",
//	  "session_file": "/home/me/.timereport/session.json",
//	  "request_timeout": "10s"
//	}
package config
