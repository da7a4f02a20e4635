package http

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/server/auth"
	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/dmitrijs2005/timereport/internal/server/services"
)

type fakeAuth struct {
	requested   []string
	requestErr  error
	verifyRes   *services.LoginResult
	verifyErr   error
	refreshPair *services.TokenPair
	refreshErr  error
	refreshed   []string
	loggedOut   []string
	identity    *models.Identity
	identityErr error
	newName     *string
}

func (f *fakeAuth) RequestOtp(_ context.Context, email string) error {
	f.requested = append(f.requested, email)
	return f.requestErr
}

func (f *fakeAuth) VerifyOtp(context.Context, string, string) (*services.LoginResult, error) {
	return f.verifyRes, f.verifyErr
}

func (f *fakeAuth) RefreshAccessToken(_ context.Context, token string) (*services.TokenPair, error) {
	f.refreshed = append(f.refreshed, token)
	return f.refreshPair, f.refreshErr
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) LogoutAll(context.Context, string) (int64, error) { return 2, nil }

func (f *fakeAuth) GetIdentity(_ context.Context, id string) (*models.Identity, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return f.identity, nil
}

func (f *fakeAuth) UpdateName(_ context.Context, _ string, name *string) (*models.Identity, error) {
	f.newName = name
	out := *f.identity
	out.Name = name
	return &out, nil
}

type fakeProjects struct {
	list       []models.ProjectWithStats
	created    models.ProjectInput
	updated    models.ProjectUpdate
	getErr     error
	lastListed bool
}

func (f *fakeProjects) List(_ context.Context, _ string, includeInactive bool) ([]models.ProjectWithStats, error) {
	f.lastListed = includeInactive
	return f.list, nil
}

func (f *fakeProjects) Get(context.Context, string, string) (*models.ProjectWithStats, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.ProjectWithStats{Project: models.Project{ID: "p1"}}, nil
}

func (f *fakeProjects) Create(_ context.Context, _ string, in models.ProjectInput) (*models.ProjectWithStats, error) {
	f.created = in
	return &models.ProjectWithStats{Project: models.Project{ID: "p1", Name: in.Name, StartDate: in.StartDate, IsActive: true}}, nil
}

func (f *fakeProjects) Update(_ context.Context, _, id string, upd models.ProjectUpdate) (*models.ProjectWithStats, error) {
	f.updated = upd
	return &models.ProjectWithStats{Project: models.Project{ID: id}}, nil
}

func (f *fakeProjects) Delete(context.Context, string, string) error { return common.ErrorNotFound }

type fakeEntries struct {
	filter    models.TimeEntryFilter
	upsertErr error
	updateErr error
	weekStart string
	listErr   error
}

func (f *fakeEntries) List(_ context.Context, _ string, filter models.TimeEntryFilter) ([]models.TimeEntry, error) {
	f.filter = filter
	return nil, f.listErr
}

func (f *fakeEntries) Get(context.Context, string, string) (*models.TimeEntry, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeEntries) Upsert(_ context.Context, _ string, in models.TimeEntryInput) (*models.TimeEntry, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return &models.TimeEntry{ID: "e1", ProjectID: in.ProjectID, Date: in.Date, Minutes: in.Minutes}, nil
}

func (f *fakeEntries) Update(context.Context, string, string, models.TimeEntryUpdate) (*models.TimeEntry, error) {
	return nil, f.updateErr
}

func (f *fakeEntries) Delete(context.Context, string, string) error { return nil }

func (f *fakeEntries) Week(_ context.Context, _ string, start string) ([]models.TimeEntry, error) {
	f.weekStart = start
	return []models.TimeEntry{{ID: "e1", Date: start}}, nil
}

// fakeTokens accepts "good" as the access token of identity "id-1".
type fakeTokens struct{}

func (fakeTokens) VerifyAccessToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, common.ErrInvalidToken
	}
	return &auth.Claims{IdentityID: "id-1", Email: "a@example.com"}, nil
}

type fakeLimiter struct{ err error }

func (f fakeLimiter) Allow(context.Context, string) error { return f.err }

var errBoom = errors.New("boom")
