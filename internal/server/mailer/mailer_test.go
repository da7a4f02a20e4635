package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestNewConsole_RefusedInProduction(t *testing.T) {
	_, err := NewConsole(logging.Nop(), true)
	assert.ErrorIs(t, err, ErrConsoleInProduction)
}

func TestConsole_LogsCode(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	c, err := NewConsole(log, false)
	require.NoError(t, err)
	require.NoError(t, c.SendCode(context.Background(), "a@example.com", "123456"))

	out := buf.String()
	assert.Contains(t, out, "email=a@example.com")
	assert.Contains(t, out, "code=123456")
	assert.Contains(t, out, "module=mailer")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("654321")
	require.NoError(t, err)
	assert.Contains(t, html, "654321")
	assert.Contains(t, html, "valid for 10 minutes")
}

func stubDialAndSend(t *testing.T, fn func(ctx context.Context, c *mail.Client, m *mail.Msg) error) {
	t.Helper()
	orig := dialAndSend
	dialAndSend = fn
	t.Cleanup(func() { dialAndSend = orig })
}

func rendered(t *testing.T, m *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTP_SendCode(t *testing.T) {
	var (
		gotAddr string
		gotMsg  *mail.Msg
	)
	stubDialAndSend(t, func(_ context.Context, c *mail.Client, m *mail.Msg) error {
		gotAddr, gotMsg = c.ServerAddr(), m
		return nil
	})

	s, err := NewSMTP(SMTPConfig{Host: "mail.local", Port: 2525, Username: "u", Password: "p", From: "noreply@example.com"})
	require.NoError(t, err)
	require.NoError(t, s.SendCode(context.Background(), "a@example.com", "123456"))

	assert.Equal(t, "mail.local:2525", gotAddr)
	require.NotNil(t, gotMsg)

	from, err := gotMsg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", from)

	rcpts, err := gotMsg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, rcpts)

	raw := rendered(t, gotMsg)
	assert.Contains(t, raw, "Subject: 123456 is your login code")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "123456")
}

func TestSMTP_InvalidAddresses(t *testing.T) {
	stubDialAndSend(t, func(context.Context, *mail.Client, *mail.Msg) error {
		t.Fatal("nothing must be sent")
		return nil
	})

	s, err := NewSMTP(SMTPConfig{Host: "h", Port: 25, From: "not an address"})
	require.NoError(t, err)
	err = s.SendCode(context.Background(), "a@b.c", "111111")
	assert.ErrorContains(t, err, "invalid sender")

	s, err = NewSMTP(SMTPConfig{Host: "h", Port: 25, From: "f@x.io"})
	require.NoError(t, err)
	err = s.SendCode(context.Background(), "nope", "111111")
	assert.ErrorContains(t, err, "invalid recipient")
}

func TestNewSMTP_RequiresHost(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Port: 25})
	assert.Error(t, err)
}

func TestSMTP_SendError(t *testing.T) {
	stubDialAndSend(t, func(context.Context, *mail.Client, *mail.Msg) error {
		return errors.New("relay down")
	})

	s, err := NewSMTP(SMTPConfig{Host: "h", Port: 25, From: "f@x.io"})
	require.NoError(t, err)
	err = s.SendCode(context.Background(), "a@b.c", "111111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestSMTP_ContextPassedThrough(t *testing.T) {
	stubDialAndSend(t, func(ctx context.Context, _ *mail.Client, _ *mail.Msg) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s, err := NewSMTP(SMTPConfig{Host: "h", Port: 25, From: "f@x.io"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.SendCode(ctx, "a@b.c", "111111"), context.DeadlineExceeded)
}
