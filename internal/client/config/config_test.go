package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubHome(t *testing.T, home string, err error) {
	t.Helper()
	orig := userHomeDir
	userHomeDir = func() (string, error) { return home, err }
	t.Cleanup(func() { userHomeDir = orig })
}

func TestLoadDefaults(t *testing.T) {
	stubHome(t, "/home/me", nil)

	c := &Config{}
	c.LoadDefaults()

	want := &Config{
		ServerURL:      "http://127.0.0.1:3000",
		HealthAddr:     "127.0.0.1:50051",
		SessionFile:    "/home/me/.timereport/session.json",
		RequestTimeout: 10 * time.Second,
	}
	assert.Empty(t, cmp.Diff(want, c))
}

func TestDefaultSessionFile_NoHome(t *testing.T) {
	stubHome(t, "", errors.New("no home"))
	assert.Equal(t, filepath.Join(".timereport", "session.json"), DefaultSessionFile())
}

func TestLoadConfig_Precedence(t *testing.T) {
	stubHome(t, "/home/me", nil)

	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_url": "https://api.example.com",
		"health_addr": "api.example.com:50051",
		"request_timeout": "30s"
	}`), 0o600))

	cfg, err := LoadConfig([]string{"whoami", "-c", path, "-a", "http://localhost:8080"})
	require.NoError(t, err)

	want := &Config{
		ServerURL:      "http://localhost:8080",
		HealthAddr:     "api.example.com:50051",
		SessionFile:    "/home/me/.timereport/session.json",
		RequestTimeout: 30 * time.Second,
	}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"-c", filepath.Join(t.TempDir(), "none.json")}},
		{"malformed file", []string{"-config", bad}},
		{"bad timeout", []string{"-timeout", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, parseFlags(cfg, []string{"login", "a@example.com", "-g", "h:1", "-session", "/tmp/s.json", "-timeout", "5"}))

	want := &Config{HealthAddr: "h:1", SessionFile: "/tmp/s.json", RequestTimeout: 5 * time.Second}
	assert.Empty(t, cmp.Diff(want, cfg))
}
