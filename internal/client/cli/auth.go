package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/timereport/internal/client/client"
	"github.com/dmitrijs2005/timereport/internal/common"
)

// Login requests a one-time code and exchanges it for a stored session.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		email, err = GetSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
	}
	email = common.NormalizeEmail(email)
	if email == "" {
		return errors.New("email is required")
	}

	if err := a.api.RequestOtp(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "A login code was sent to %s\n", email)

	code, err := GetCode(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(code)

	identity, sess, err := a.api.VerifyOtp(ctx, email, string(code))
	if err != nil {
		return err
	}
	if err := a.store.Save(sess); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", identity.Email)
	return nil
}

func (a *App) WhoAmI(ctx context.Context, _ []string) error {
	if err := a.restore(); err != nil {
		return err
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		return err
	}

	name := "-"
	if me.Name != nil {
		name = *me.Name
	}
	fmt.Fprintf(a.out, "id:     %s\nemail:  %s\nname:   %s\nsince:  %s\n",
		me.ID, me.Email, name, me.CreatedAt.Format(common.DateLayout))
	return nil
}

// Refresh rotates the stored session without doing anything else.
func (a *App) Refresh(ctx context.Context, _ []string) error {
	if err := a.restore(); err != nil {
		return err
	}
	if err := a.api.Refresh(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.store.Clear()
		}
		return err
	}
	fmt.Fprintln(a.out, "Session refreshed")
	return nil
}

// Logout revokes the stored session on the server. The local copy is
// removed even when the server cannot be reached.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.restore(); err != nil {
		if errors.Is(err, client.ErrNoSession) {
			fmt.Fprintln(a.out, "Not logged in")
			return nil
		}
		return err
	}

	apiErr := a.api.Logout(ctx)
	if err := a.store.Clear(); err != nil {
		return err
	}
	if apiErr != nil {
		return fmt.Errorf("local session removed, server logout failed: %w", apiErr)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) LogoutAll(ctx context.Context, _ []string) error {
	if err := a.restore(); err != nil {
		return err
	}
	n, err := a.api.LogoutAll(ctx)
	if err != nil {
		return err
	}
	if err := a.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged out of %d %s\n", n, plural(n, "session"))
	return nil
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Status checks the server health endpoint and the local session.
func (a *App) Status(ctx context.Context, _ []string) error {
	st, err := a.healthCheck(ctx, a.config.HealthAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "server:  %s (%s)\n", strings.ToLower(st), a.config.HealthAddr)

	sess, err := a.store.Load()
	switch {
	case errors.Is(err, client.ErrNoSession):
		fmt.Fprintln(a.out, "session: none")
	case err != nil:
		return err
	default:
		fmt.Fprintf(a.out, "session: %s\n", sess.Email)
	}
	return nil
}
