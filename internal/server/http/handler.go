// Package http exposes the JSON API over chi: code login, session refresh,
// profile, projects and time entries.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/auth"
	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/dmitrijs2005/timereport/internal/server/ratelimit"
	"github.com/dmitrijs2005/timereport/internal/server/services"
)

// AuthService is the subset of services.AuthService used by the handlers.
type AuthService interface {
	RequestOtp(ctx context.Context, email string) error
	VerifyOtp(ctx context.Context, email, code string) (*services.LoginResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, identityID string) (int64, error)
	GetIdentity(ctx context.Context, identityID string) (*models.Identity, error)
	UpdateName(ctx context.Context, identityID string, name *string) (*models.Identity, error)
}

type ProjectService interface {
	List(ctx context.Context, identityID string, includeInactive bool) ([]models.ProjectWithStats, error)
	Get(ctx context.Context, identityID, id string) (*models.ProjectWithStats, error)
	Create(ctx context.Context, identityID string, in models.ProjectInput) (*models.ProjectWithStats, error)
	Update(ctx context.Context, identityID, id string, upd models.ProjectUpdate) (*models.ProjectWithStats, error)
	Delete(ctx context.Context, identityID, id string) error
}

type TimeEntryService interface {
	List(ctx context.Context, identityID string, filter models.TimeEntryFilter) ([]models.TimeEntry, error)
	Get(ctx context.Context, identityID, id string) (*models.TimeEntry, error)
	Upsert(ctx context.Context, identityID string, in models.TimeEntryInput) (*models.TimeEntry, error)
	Update(ctx context.Context, identityID, id string, upd models.TimeEntryUpdate) (*models.TimeEntry, error)
	Delete(ctx context.Context, identityID, id string) error
	Week(ctx context.Context, identityID, start string) ([]models.TimeEntry, error)
}

// TokenVerifier validates access tokens presented by clients.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// Options configures cookies and CORS.
type Options struct {
	Production    bool
	FrontendURL   string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

type Handler struct {
	auth     AuthService
	projects ProjectService
	entries  TimeEntryService
	tokens   TokenVerifier
	limiter  ratelimit.Limiter
	log      logging.Logger
	opts     Options
	now      func() time.Time
}

func NewHandler(a AuthService, p ProjectService, e TimeEntryService, tokens TokenVerifier,
	limiter ratelimit.Limiter, log logging.Logger, opts Options) *Handler {
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	return &Handler{
		auth:     a,
		projects: p,
		entries:  e,
		tokens:   tokens,
		limiter:  limiter,
		log:      log.With("module", "http"),
		opts:     opts,
		now:      time.Now,
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, h.cookie(common.AccessTokenCookieName, pair.AccessToken, h.opts.AccessMaxAge))
	http.SetCookie(w, h.cookie(common.RefreshTokenCookieName, pair.RefreshToken, h.opts.RefreshMaxAge))
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   h.opts.Production,
		SameSite: http.SameSiteStrictMode,
	}
}
