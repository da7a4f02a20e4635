// Package cli implements the timereport command-line client.
//
// Commands:
//
//	login [email]      request a code by email and log in with it
//	whoami             show the logged-in identity
//	projects [-all]    list projects, optionally including inactive ones
//	refresh            rotate the stored session
//	logout             end this session
//	logout-all         end every session of the account
//	status             check the server health endpoint
//
// The session is stored in the file named by config.Config.SessionFile and
// is rewritten whenever a refresh rotates the tokens.
package cli
