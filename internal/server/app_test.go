package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/server/config"
	"github.com/dmitrijs2005/timereport/internal/server/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.DatabaseDSN = filepath.Join(dir, "central.db")
	c.DataDir = filepath.Join(dir, "users")
	c.AccessTokenSecret = "access-secret-0123456789abcdef0123"
	c.RefreshTokenSecret = "refresh-secret-0123456789abcdef012"
	return c
}

func TestNewApp_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"weak secret", func(c *config.Config) { c.AccessTokenSecret = "short" }, common.ErrWeakSecret},
		{"shared secret", func(c *config.Config) { c.RefreshTokenSecret = c.AccessTokenSecret }, common.ErrSecretReuse},
		{"console mail in production", func(c *config.Config) { c.Env = config.EnvProduction }, mailer.ErrConsoleInProduction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			tt.mutate(c)
			_, err := NewApp(context.Background(), c)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewApp_UnknownDriver(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "oracle"
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
