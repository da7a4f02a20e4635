// Package config handles configuration for the server component,
// including defaults, a JSON or YAML file overlay, environment variables and
// command-line flags.
package config

import (
	"time"
)

// Environments recognized by Env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds runtime settings for the timereport server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses for the REST API and gRPC health.
//   - DatabaseDriver / DatabaseDSN: central store ("sqlite" or "pgx").
//   - DataDir: directory holding one SQLite file per identity.
//   - AccessTokenSecret / RefreshTokenSecret: independent HS256 secrets (>= 32 bytes).
//   - StoreProvisionTimeout: upper bound for creating a per-identity store.
//   - SMTP* / EmailFrom: code delivery; without SMTPHost codes go to the log
//     (refused in production).
//   - RedisAddr / OTPRequestLimit / OTPRequestWindow: code-request throttle.
//   - S3*: backup target used by the ops tool.
type Config struct {
	Env                          string
	HTTPAddr                     string
	GRPCAddr                     string
	DatabaseDriver               string
	DatabaseDSN                  string
	DataDir                      string
	AccessTokenSecret            string
	RefreshTokenSecret           string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	StoreProvisionTimeout        time.Duration
	SessionCleanupInterval       time.Duration
	LogBackend                   string
	FrontendURL                  string
	SMTPHost                     string
	SMTPPort                     int
	SMTPUsername                 string
	SMTPPassword                 string
	EmailFrom                    string
	RedisAddr                    string
	OTPRequestLimit              int
	OTPRequestWindow             time.Duration
	S3AccessKey                  string
	S3SecretKey                  string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
}

// LoadDefaults populates Config with development defaults. Signing secrets
// are deliberately left empty so a server never starts with a known key.
func (c *Config) LoadDefaults() {
	c.Env = EnvDevelopment
	c.HTTPAddr = ":3000"
	c.GRPCAddr = ":50051"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "data/central.db"
	c.DataDir = "data/users"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.StoreProvisionTimeout = 30 * time.Second
	c.SessionCleanupInterval = time.Hour
	c.LogBackend = "slog"
	c.FrontendURL = "http://localhost:5173"
	c.SMTPPort = 587
	c.EmailFrom = "noreply@example.com"
	c.OTPRequestLimit = 5
	c.OTPRequestWindow = 15 * time.Minute
	c.S3Bucket = "timereport-backups"
	c.S3Region = "us-east-1"
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally command-line
// flags. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, envLookup)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
