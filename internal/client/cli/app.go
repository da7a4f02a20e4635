package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/timereport/internal/client/client"
	"github.com/dmitrijs2005/timereport/internal/client/config"
)

// API is the subset of client.APIClient the commands use.
type API interface {
	RequestOtp(ctx context.Context, email string) error
	VerifyOtp(ctx context.Context, email, code string) (*client.Identity, *client.Session, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) (int64, error)
	Me(ctx context.Context) (*client.Identity, error)
	Projects(ctx context.Context, includeInactive bool) ([]client.Project, error)
	SetSession(s *client.Session)
	Session() *client.Session
	OnSessionChange(fn func(*client.Session) error)
}

type SessionStore interface {
	Load() (*client.Session, error)
	Save(s *client.Session) error
	Clear() error
}

type App struct {
	config      *config.Config
	api         API
	store       SessionStore
	healthCheck func(ctx context.Context, addr string) (string, error)
	reader      *bufio.Reader
	out         io.Writer
	errOut      io.Writer
}

func NewApp(c *config.Config) *App {
	api := client.NewAPIClient(c.ServerURL, c.RequestTimeout)
	store := client.NewFileStore(c.SessionFile)
	return newApp(c, api, store, os.Stdin, os.Stdout, os.Stderr)
}

func newApp(c *config.Config, api API, store SessionStore, in io.Reader, out, errOut io.Writer) *App {
	a := &App{
		config: c,
		api:    api,
		store:  store,
		healthCheck: func(ctx context.Context, addr string) (string, error) {
			return client.CheckHealth(ctx, addr)
		},
		reader: bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
	api.OnSessionChange(store.Save)
	return a
}

type command struct {
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":      {"login [email]", (*App).Login},
	"whoami":     {"whoami", (*App).WhoAmI},
	"projects":   {"projects [-all]", (*App).Projects},
	"refresh":    {"refresh", (*App).Refresh},
	"logout":     {"logout", (*App).Logout},
	"logout-all": {"logout-all", (*App).LogoutAll},
	"status":     {"status", (*App).Status},
}

var commandOrder = []string{"login", "whoami", "projects", "refresh", "logout", "logout-all", "status"}

// Run executes the command named by args[0] and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n", args[0])
		a.usage()
		return 2
	}

	if err := cmd.run(a, ctx, args[1:]); err != nil {
		fmt.Fprintf(a.errOut, "error: %s\n", describe(err))
		return 1
	}
	return 0
}

func (a *App) usage() {
	fmt.Fprintln(a.errOut, "usage: timereport [flags] <command>")
	fmt.Fprintln(a.errOut, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(a.errOut, "  %s\n", commands[name].usage)
	}
}

// restore loads the stored session into the API client.
func (a *App) restore() error {
	sess, err := a.store.Load()
	if err != nil {
		return err
	}
	a.api.SetSession(sess)
	return nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrNoSession):
		return "not logged in, run: timereport login <email>"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable"
	case errors.Is(err, client.ErrUnauthorized):
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Message + ", run: timereport login <email>"
		}
		return "session expired, run: timereport login <email>"
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
