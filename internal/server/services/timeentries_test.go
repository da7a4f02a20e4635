package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProject(t *testing.T, e *env) (identityID, projectID string) {
	t.Helper()
	identityID = e.login(t, "a@example.com").Identity.ID
	p, err := e.projects.Create(context.Background(), identityID, models.ProjectInput{
		Name: "Alpha", HourlyRate: ptr(int64(60000)), StartDate: "2025-01-01",
	})
	require.NoError(t, err)
	return identityID, p.ID
}

func TestTimeEntries_UpsertPerProjectAndDate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, pid := setupProject(t, e)

	first, err := e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: pid, Date: "2025-03-03", Minutes: 60, Description: ptr("design")})
	require.NoError(t, err)
	require.NotNil(t, first.Project)
	assert.Equal(t, "Alpha", first.Project.Name)

	second, err := e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: pid, Date: "2025-03-03", Minutes: 120})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same (project, date) updates the entry")
	assert.Equal(t, 120, second.Minutes)
	assert.Equal(t, "design", *second.Description, "missing description keeps the old one")

	all, err := e.entries.List(ctx, id, models.TimeEntryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTimeEntries_InactiveProject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, pid := setupProject(t, e)

	_, err := e.projects.Update(ctx, id, pid, models.ProjectUpdate{IsActive: ptr(false)})
	require.NoError(t, err)

	_, err = e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: pid, Date: "2025-03-03", Minutes: 60})
	assert.ErrorIs(t, err, common.ErrProjectInactive)

	_, err = e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: "missing", Date: "2025-03-03", Minutes: 60})
	assert.ErrorIs(t, err, common.ErrProjectInactive)
}

func TestTimeEntries_Filters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, pid := setupProject(t, e)
	other, err := e.projects.Create(ctx, id, models.ProjectInput{Name: "Beta", StartDate: "2025-01-01"})
	require.NoError(t, err)

	for _, in := range []models.TimeEntryInput{
		{ProjectID: pid, Date: "2025-03-01", Minutes: 10},
		{ProjectID: pid, Date: "2025-03-05", Minutes: 20},
		{ProjectID: other.ID, Date: "2025-03-05", Minutes: 30},
		{ProjectID: pid, Date: "2025-04-01", Minutes: 40},
	} {
		_, err := e.entries.Upsert(ctx, id, in)
		require.NoError(t, err)
	}

	all, err := e.entries.List(ctx, id, models.TimeEntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2025-04-01", all[0].Date, "newest date first")

	byProject, err := e.entries.List(ctx, id, models.TimeEntryFilter{ProjectID: &pid})
	require.NoError(t, err)
	assert.Len(t, byProject, 3)

	march, err := e.entries.List(ctx, id, models.TimeEntryFilter{From: ptr("2025-03-01"), To: ptr("2025-03-31")})
	require.NoError(t, err)
	assert.Len(t, march, 3)

	combined, err := e.entries.List(ctx, id, models.TimeEntryFilter{ProjectID: &pid, From: ptr("2025-03-02")})
	require.NoError(t, err)
	require.Len(t, combined, 2)
	for _, en := range combined {
		assert.Equal(t, pid, en.ProjectID)
	}
}

func TestTimeEntries_Week(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, pid := setupProject(t, e)

	for _, d := range []string{"2025-03-02", "2025-03-03", "2025-03-06", "2025-03-09", "2025-03-10"} {
		_, err := e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: pid, Date: d, Minutes: 60})
		require.NoError(t, err)
	}

	week, err := e.entries.Week(ctx, id, "2025-03-03")
	require.NoError(t, err)
	require.Len(t, week, 3)
	assert.Equal(t, "2025-03-03", week[0].Date)
	assert.Equal(t, "2025-03-09", week[2].Date)
	assert.True(t, week[0].Project.IsActive)

	_, err = e.entries.Week(ctx, id, "03/03/2025")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestTimeEntries_UpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id, pid := setupProject(t, e)

	a, err := e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: pid, Date: "2025-03-03", Minutes: 60})
	require.NoError(t, err)
	b, err := e.entries.Upsert(ctx, id, models.TimeEntryInput{ProjectID: pid, Date: "2025-03-04", Minutes: 60})
	require.NoError(t, err)

	updated, err := e.entries.Update(ctx, id, a.ID, models.TimeEntryUpdate{Minutes: ptr(45), Description: ptr("review")})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.Minutes)
	assert.Equal(t, "review", *updated.Description)

	_, err = e.entries.Update(ctx, id, b.ID, models.TimeEntryUpdate{Date: ptr("2025-03-03")})
	assert.ErrorIs(t, err, common.ErrorConflict)

	require.NoError(t, e.entries.Delete(ctx, id, b.ID))
	_, err = e.entries.Get(ctx, id, b.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, e.entries.Delete(ctx, id, b.ID), common.ErrorNotFound)
}
