package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/timereport/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-dsn", "-data", "-s", "-rs", "-t", "-r", "-env", "-log", "-redis", "-b", "-e"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":3000")
//	-g string     gRPC health bind address
//	-d string     central database driver ("sqlite" or "pgx")
//	-dsn string   central database DSN
//	-data string  per-identity store directory
//	-s string     access token secret
//	-rs string    refresh token secret
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-env string   "development" or "production"
//	-log string   logging backend ("slog" or "zap")
//	-redis string redis address for request throttling
//	-b string     S3 backup bucket
//	-e string     S3 base endpoint
//
// Unknown flags (including -c) are filtered out with flagx.FilterArgs.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to serve gRPC health")
	fs.StringVar(&config.DatabaseDriver, "d", config.DatabaseDriver, "central database driver")
	fs.StringVar(&config.DatabaseDSN, "dsn", config.DatabaseDSN, "central database DSN")
	fs.StringVar(&config.DataDir, "data", config.DataDir, "per-identity store directory")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.Env, "env", config.Env, "environment")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "logging backend")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 backup bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	return nil
}
