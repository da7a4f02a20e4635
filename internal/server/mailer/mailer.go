// Package mailer delivers one-time login codes.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/otp"
	"github.com/wneessen/go-mail"
)

var ErrConsoleInProduction = errors.New("console mailer is not allowed in production")

// Console writes codes to the log. It is meant for local development only.
type Console struct {
	log logging.Logger
}

func NewConsole(log logging.Logger, production bool) (*Console, error) {
	if production {
		return nil, ErrConsoleInProduction
	}
	return &Console{log: log.With("module", "mailer")}, nil
}

func (c *Console) SendCode(ctx context.Context, email, code string) error {
	c.log.Info(ctx, "login code", "email", email, "code", code)
	return nil
}

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var dialAndSend = func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
	return c.DialAndSendWithContext(ctx, m)
}

// SMTP sends codes as HTML mail through a relay. STARTTLS is used when the
// relay offers it.
type SMTP struct {
	from   string
	client *mail.Client
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{from: cfg.From, client: c}, nil
}

func (s *SMTP) SendCode(ctx context.Context, email, code string) error {
	msg, err := buildMessage(s.from, email, code)
	if err != nil {
		return err
	}
	if err := dialAndSend(ctx, s.client, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

var codeTemplate = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8" /><title>Your login code</title></head>
<body style="margin:0;padding:32px;background-color:#f4f4f5;font-family:Helvetica,Arial,sans-serif;">
  <h1 style="margin:0 0 16px;color:#18181b;font-size:20px;">Timereport</h1>
  <p style="color:#3f3f46;font-size:15px;">Use the code below to sign in:</p>
  <p style="font-size:32px;font-weight:700;letter-spacing:6px;color:#18181b;font-family:'Courier New',monospace;">{{.Code}}</p>
  <p style="color:#71717a;font-size:13px;">The code is valid for {{.Minutes}} minutes.</p>
  <p style="color:#71717a;font-size:13px;">If you did not try to sign in you can ignore this mail.</p>
</body>
</html>
`))

type codeData struct {
	Code    string
	Minutes int
}

func newCodeData(code string) codeData {
	return codeData{Code: code, Minutes: int(otp.Validity / time.Minute)}
}

// RenderHTML renders the body of the login code mail.
func RenderHTML(code string) (string, error) {
	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, newCodeData(code)); err != nil {
		return "", fmt.Errorf("render mail: %w", err)
	}
	return buf.String(), nil
}

func buildMessage(from, to, code string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(code + " is your login code")
	if err := m.SetBodyHTMLTemplate(codeTemplate, newCodeData(code)); err != nil {
		return nil, fmt.Errorf("render mail: %w", err)
	}
	return m, nil
}
