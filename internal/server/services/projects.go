package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/timereport/internal/server/models"
	"github.com/dmitrijs2005/timereport/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// StoreOpener resolves an identity's per-identity store.
type StoreOpener interface {
	Get(identityID string) (*sql.DB, error)
}

// ProjectService manages projects inside the caller's own store.
type ProjectService struct {
	stores      StoreOpener
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewProjectService(stores StoreOpener, m repomanager.RepositoryManager) *ProjectService {
	return &ProjectService{stores: stores, repomanager: m, now: time.Now}
}

func (s *ProjectService) List(ctx context.Context, identityID string, includeInactive bool) ([]models.ProjectWithStats, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	list, err := s.repomanager.Projects(db).List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	for i := range list {
		fillAmount(&list[i])
	}
	return list, nil
}

func (s *ProjectService) Get(ctx context.Context, identityID, id string) (*models.ProjectWithStats, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	p, err := s.repomanager.Projects(db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fillAmount(p)
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, identityID string, in models.ProjectInput) (*models.ProjectWithStats, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("new project id: %w", err)
	}
	now := s.now().UTC()
	p := &models.Project{
		ID:          id.String(),
		Name:        in.Name,
		Description: in.Description,
		HourlyRate:  in.HourlyRate,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	repo := s.repomanager.Projects(db)
	if err := repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}
	return s.getWith(ctx, db, p.ID)
}

func (s *ProjectService) Update(ctx context.Context, identityID, id string, upd models.ProjectUpdate) (*models.ProjectWithStats, error) {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Projects(db).Update(ctx, id, upd, s.now()); err != nil {
		return nil, err
	}
	return s.getWith(ctx, db, id)
}

// Delete removes the project and all of its time entries.
func (s *ProjectService) Delete(ctx context.Context, identityID, id string) error {
	db, err := s.stores.Get(identityID)
	if err != nil {
		return err
	}
	return s.repomanager.Projects(db).Delete(ctx, id)
}

func (s *ProjectService) getWith(ctx context.Context, db *sql.DB, id string) (*models.ProjectWithStats, error) {
	p, err := s.repomanager.Projects(db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fillAmount(p)
	return p, nil
}

// fillAmount sets TotalAmount = round(minutes / 60 * rate) when the project
// has an hourly rate.
func fillAmount(p *models.ProjectWithStats) {
	if p.HourlyRate == nil {
		p.TotalAmount = nil
		return
	}
	amount := int64(math.Round(float64(p.TotalMinutes) / 60 * float64(*p.HourlyRate)))
	p.TotalAmount = &amount
}
