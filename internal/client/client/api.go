package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// APIClient calls the JSON API. Authenticated calls that come back 401 are
// retried once after rotating the session with the refresh token.
type APIClient struct {
	baseURL   string
	http      *http.Client
	session   *Session
	onSession func(*Session) error
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetSession installs the tokens used for authenticated calls.
func (c *APIClient) SetSession(s *Session) {
	c.session = s
}

func (c *APIClient) Session() *Session {
	return c.session
}

// OnSessionChange registers fn to be called whenever a refresh rotates the
// tokens.
func (c *APIClient) OnSessionChange(fn func(*Session) error) {
	c.onSession = fn
}

func (c *APIClient) RequestOtp(ctx context.Context, email string) error {
	_, err := c.call(ctx, http.MethodPost, "/api/auth/request-otp", map[string]string{"email": email}, nil, "")
	return err
}

// VerifyOtp exchanges a code for a session. The tokens arrive as cookies.
func (c *APIClient) VerifyOtp(ctx context.Context, email, code string) (*Identity, *Session, error) {
	var data struct {
		User Identity `json:"user"`
	}
	resp, err := c.call(ctx, http.MethodPost, "/api/auth/verify-otp",
		map[string]string{"email": email, "code": code}, &data, "")
	if err != nil {
		return nil, nil, err
	}

	sess := sessionFromCookies(resp)
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		return nil, nil, errors.New("server did not return tokens")
	}
	sess.Email = data.User.Email
	c.session = sess
	return &data.User, sess, nil
}

// Refresh rotates the current session and reports the new one.
func (c *APIClient) Refresh(ctx context.Context) error {
	if c.session == nil || c.session.RefreshToken == "" {
		return ErrNoSession
	}

	resp, err := c.call(ctx, http.MethodPost, "/api/auth/refresh",
		map[string]string{"refreshToken": c.session.RefreshToken}, nil, "")
	if err != nil {
		return err
	}

	next := sessionFromCookies(resp)
	if next.AccessToken == "" || next.RefreshToken == "" {
		return errors.New("server did not return tokens")
	}
	next.Email = c.session.Email
	c.session = next

	if c.onSession != nil {
		return c.onSession(next)
	}
	return nil
}

func (c *APIClient) Logout(ctx context.Context) error {
	if c.session == nil {
		return nil
	}
	_, err := c.call(ctx, http.MethodPost, "/api/auth/logout",
		map[string]string{"refreshToken": c.session.RefreshToken}, nil, "")
	if err != nil {
		return err
	}
	c.session = nil
	return nil
}

// LogoutAll revokes every session of the user and returns how many were revoked.
func (c *APIClient) LogoutAll(ctx context.Context) (int64, error) {
	var data struct {
		Revoked int64 `json:"revoked"`
	}
	if err := c.authorized(ctx, http.MethodPost, "/api/auth/logout-all", nil, &data); err != nil {
		return 0, err
	}
	c.session = nil
	return data.Revoked, nil
}

func (c *APIClient) Me(ctx context.Context) (*Identity, error) {
	var me Identity
	if err := c.authorized(ctx, http.MethodGet, "/api/auth/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *APIClient) Projects(ctx context.Context, includeInactive bool) ([]Project, error) {
	path := "/api/projects"
	if includeInactive {
		path += "?" + url.Values{"includeInactive": {"true"}}.Encode()
	}

	var list []Project
	if err := c.authorized(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *APIClient) authorized(ctx context.Context, method, path string, body, out any) error {
	if c.session == nil || c.session.AccessToken == "" {
		return ErrNoSession
	}

	_, err := c.call(ctx, method, path, body, out, c.session.AccessToken)
	if err == nil || !errors.Is(err, ErrUnauthorized) || c.session.RefreshToken == "" {
		return err
	}

	if err := c.Refresh(ctx); err != nil {
		return err
	}
	_, err = c.call(ctx, method, path, body, out, c.session.AccessToken)
	return err
}

func (c *APIClient) call(ctx context.Context, method, path string, body, out any, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp, nil
}

func sessionFromCookies(resp *http.Response) *Session {
	s := &Session{}
	for _, ck := range resp.Cookies() {
		if ck.Value == "" {
			continue
		}
		switch ck.Name {
		case common.AccessTokenCookieName:
			s.AccessToken = ck.Value
		case common.RefreshTokenCookieName:
			s.RefreshToken = ck.Value
		}
	}
	return s
}
