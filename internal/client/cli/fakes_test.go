package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/timereport/internal/client/client"
)

type fakeAPI struct {
	session   *client.Session
	onSession func(*client.Session) error

	requested  []string
	gotCode    string
	gotAll     bool
	verifyErr  error
	refreshErr error
	logoutErr  error
	meErr      error
	projects   []client.Project
}

func (f *fakeAPI) RequestOtp(_ context.Context, email string) error {
	f.requested = append(f.requested, email)
	return nil
}

func (f *fakeAPI) VerifyOtp(_ context.Context, email, code string) (*client.Identity, *client.Session, error) {
	f.gotCode = code
	if f.verifyErr != nil {
		return nil, nil, f.verifyErr
	}
	f.session = &client.Session{Email: email, AccessToken: "acc", RefreshToken: "ref"}
	return &client.Identity{ID: "id-1", Email: email}, f.session, nil
}

func (f *fakeAPI) Refresh(context.Context) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.session = &client.Session{Email: f.session.Email, AccessToken: "acc2", RefreshToken: "ref2"}
	return f.onSession(f.session)
}

func (f *fakeAPI) Logout(context.Context) error {
	f.session = nil
	return f.logoutErr
}

func (f *fakeAPI) LogoutAll(context.Context) (int64, error) {
	f.session = nil
	return 2, nil
}

func (f *fakeAPI) Me(context.Context) (*client.Identity, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	name := "Ada"
	return &client.Identity{
		ID:        "id-1",
		Email:     f.session.Email,
		Name:      &name,
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeAPI) Projects(_ context.Context, includeInactive bool) ([]client.Project, error) {
	f.gotAll = includeInactive
	return f.projects, nil
}

func (f *fakeAPI) SetSession(s *client.Session)                   { f.session = s }
func (f *fakeAPI) Session() *client.Session                       { return f.session }
func (f *fakeAPI) OnSessionChange(fn func(*client.Session) error) { f.onSession = fn }

type memStore struct {
	session *client.Session
	saves   int
}

func (m *memStore) Load() (*client.Session, error) {
	if m.session == nil {
		return nil, client.ErrNoSession
	}
	return m.session, nil
}

func (m *memStore) Save(s *client.Session) error {
	m.saves++
	m.session = s
	return nil
}

func (m *memStore) Clear() error {
	m.session = nil
	return nil
}

var errBoom = errors.New("boom")
