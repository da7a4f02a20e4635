package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TimeEntryService manages time entries inside the caller's own store.
type TimeEntryService struct {
	stores      StoreOpener
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewTimeEntryService(stores StoreOpener, m repomanager.RepositoryManager, log logging.Logger) *TimeEntryService {
	return &TimeEntryService{stores: stores, repomanager: m, log: log.With("module", "timeentries"), now: time.Now}
}

func (s *TimeEntryService) List(ctx context.Context, identityID string, filter models.TimeEntryFilter) ([]models.TimeEntry, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repomanager.TimeEntries(db).List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing time entries: %w", err)
	}
	return entries, nil
}

func (s *TimeEntryService) Get(ctx context.Context, identityID, id string) (*models.TimeEntry, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	return s.repomanager.TimeEntries(db).Get(ctx, id)
}

// Upsert creates the entry for (project, date) or overwrites the existing
// one. The project must exist and be active.
func (s *TimeEntryService) Upsert(ctx context.Context, identityID string, in models.TimeEntryInput) (*models.TimeEntry, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}

	project, err := s.repomanager.Projects(db).Get(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrProjectInactive
		}
		return nil, err
	}
	if !project.IsActive {
		return nil, common.ErrProjectInactive
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("new time entry id: %w", err)
	}
	now := s.now().UTC()
	repo := s.repomanager.TimeEntries(db)
	storedID, err := repo.Upsert(ctx, &models.TimeEntry{
		ID:          id.String(),
		ProjectID:   in.ProjectID,
		Date:        in.Date,
		Minutes:     in.Minutes,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("error recording time: %w", err)
	}

	s.log.Debug(ctx, "time recorded", "identity_id", identityID, "project_id", in.ProjectID, "date", in.Date, "minutes", in.Minutes)
	return repo.Get(ctx, storedID)
}

func (s *TimeEntryService) Update(ctx context.Context, identityID, id string, upd models.TimeEntryUpdate) (*models.TimeEntry, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.TimeEntries(db)
	if err := repo.Update(ctx, id, upd, s.now()); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (s *TimeEntryService) Delete(ctx context.Context, identityID, id string) error {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return err
	}
	return s.repomanager.TimeEntries(db).Delete(ctx, id)
}

// Week returns the entries of the seven days starting at start (YYYY-MM-DD),
// oldest first.
func (s *TimeEntryService) Week(ctx context.Context, identityID, start string) ([]models.TimeEntry, error) {
	from, err := time.Parse(common.DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%w: week start %q", common.ErrorValidation, start)
	}
	to := from.AddDate(0, 0, 6)

	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	return s.repomanager.TimeEntries(db).Range(ctx, from.Format(common.DateLayout), to.Format(common.DateLayout))
}
