package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the timereport CLI.
type Config struct {
	ServerURL      string
	HealthAddr     string
	SessionFile    string
	RequestTimeout time.Duration
}

// userHomeDir is a seam for tests.
var userHomeDir = os.UserHomeDir

// DefaultSessionFile returns ~/.timereport/session.json, or a relative path
// when the home directory is unknown.
func DefaultSessionFile() string {
	home, err := userHomeDir()
	if err != nil {
		return filepath.Join(".timereport", "session.json")
	}
	return filepath.Join(home, ".timereport", "session.json")
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.HealthAddr = "127.0.0.1:50051"
	c.SessionFile = DefaultSessionFile()
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
