package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func setTokens(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{Name: common.AccessTokenCookieName, Value: access, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: common.RefreshTokenCookieName, Value: refresh, Path: "/"})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix)
}

// fakeBackend accepts access token "acc-N" where N is the current
// generation; a refresh with "ref-N" moves to N+1.
type fakeBackend struct {
	gen       atomic.Int32
	refreshes atomic.Int32
}

func (f *fakeBackend) token(prefix string) string {
	return prefix + "-" + string(rune('0'+f.gen.Load()))
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/request-otp", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] == "slow@b.co" {
			writeEnvelope(w, http.StatusTooManyRequests, map[string]any{"success": false, "error": "too many requests"})
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "code sent"})
	})

	mux.HandleFunc("POST /api/auth/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["code"] != "123456" {
			writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "incorrect code"})
			return
		}
		setTokens(w, f.token("acc"), f.token("ref"))
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"user": map[string]any{"id": "id-1", "email": req["email"]},
		}})
	})

	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["refreshToken"] != f.token("ref") {
			http.SetCookie(w, &http.Cookie{Name: common.AccessTokenCookieName, Value: "", MaxAge: -1})
			writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid refresh token"})
			return
		}
		f.gen.Add(1)
		setTokens(w, f.token("acc"), f.token("ref"))
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true})
	})

	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if bearer(r) != f.token("acc") {
				writeEnvelope(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "invalid or expired token"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /api/auth/me", authed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "id-1", "email": "a@b.co"}})
	}))

	mux.HandleFunc("POST /api/auth/logout-all", authed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"revoked": 3}})
	}))

	mux.HandleFunc("GET /api/projects", authed(func(w http.ResponseWriter, r *http.Request) {
		list := []map[string]any{{"id": "p1", "name": "Active", "isActive": true, "startDate": "2025-01-01"}}
		if r.URL.Query().Get("includeInactive") == "true" {
			list = append(list, map[string]any{"id": "p2", "name": "Old", "isActive": false, "startDate": "2024-01-01"})
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"success": true, "data": list})
	}))

	return mux
}

func newTestClient(t *testing.T) (*APIClient, *fakeBackend) {
	t.Helper()
	f := &fakeBackend{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL+"/", 2*time.Second), f
}

func TestRequestOtp(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.RequestOtp(ctx, "a@b.co"))

	err := c.RequestOtp(ctx, "slow@b.co")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "too many requests", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyOtp(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, _, err := c.VerifyOtp(ctx, "a@b.co", "000000")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, c.Session())

	me, sess, err := c.VerifyOtp(ctx, "a@b.co", "123456")
	require.NoError(t, err)
	assert.Equal(t, "id-1", me.ID)
	assert.Equal(t, &Session{Email: "a@b.co", AccessToken: "acc-0", RefreshToken: "ref-0"}, sess)
	assert.Same(t, sess, c.Session())
}

func TestAuthorized_RefreshesOnce(t *testing.T) {
	c, f := newTestClient(t)
	ctx := context.Background()

	var saved *Session
	c.OnSessionChange(func(s *Session) error {
		saved = s
		return nil
	})

	_, _, err := c.VerifyOtp(ctx, "a@b.co", "123456")
	require.NoError(t, err)

	// server moves on; the stored access token is now stale
	f.gen.Store(1)
	c.SetSession(&Session{Email: "a@b.co", AccessToken: "acc-0", RefreshToken: "ref-1"})

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", me.Email)
	assert.Equal(t, int32(1), f.refreshes.Load())

	require.NotNil(t, saved)
	assert.Equal(t, "acc-2", saved.AccessToken)
	assert.Equal(t, "ref-2", saved.RefreshToken)
	assert.Equal(t, "a@b.co", saved.Email)
}

func TestAuthorized_RefreshRejected(t *testing.T) {
	c, f := newTestClient(t)
	c.SetSession(&Session{AccessToken: "stale", RefreshToken: "revoked"})

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), f.refreshes.Load())
}

func TestAuthorized_NoSession(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	assert.ErrorIs(t, c.Refresh(context.Background()), ErrNoSession)
}

func TestProjects(t *testing.T) {
	c, _ := newTestClient(t)
	c.SetSession(&Session{AccessToken: "acc-0", RefreshToken: "ref-0"})
	ctx := context.Background()

	list, err := c.Projects(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Active", list[0].Name)

	list, err = c.Projects(ctx, true)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLogoutAndLogoutAll(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	c.SetSession(&Session{AccessToken: "acc-0", RefreshToken: "ref-0"})
	n, err := c.LogoutAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Nil(t, c.Session())

	assert.NoError(t, c.Logout(ctx))

	c.SetSession(&Session{AccessToken: "acc-0", RefreshToken: "ref-0"})
	require.NoError(t, c.Logout(ctx))
	assert.Nil(t, c.Session())
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewAPIClient(srv.URL, time.Second)
	assert.ErrorIs(t, c.RequestOtp(context.Background(), "a@b.co"), ErrUnavailable)
}
