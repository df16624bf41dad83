package service

import (
	"context"

	"github.com/testvault-io/testvault-backend/internal/projects/domain"
	"github.com/testvault-io/testvault-backend/internal/projects/repository"
)

// ProjectService handles project-related business logic.
type ProjectService struct {
	repo *repository.ProjectRepository
}

// NewProjectService creates a new project service.
func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// Create creates a new project; the caller becomes its sole owner.
func (s *ProjectService) Create(ctx context.Context, data *domain.CreateProject, ownerID int64) (*domain.Project, error) {
	data.ApplyDefaults()
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, data, ownerID)
}

// Get returns a project the user may act on.
func (s *ProjectService) Get(ctx context.Context, id, userID int64) (*domain.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all projects owned by the user.
func (s *ProjectService) List(ctx context.Context, userID int64) ([]domain.Project, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// Update applies a partial update to a project the user owns.
func (s *ProjectService) Update(ctx context.Context, id, userID int64, data *domain.UpdateProject) (*domain.Project, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, data)
}

// Delete hard-deletes a project the user owns; its test cases cascade.
func (s *ProjectService) Delete(ctx context.Context, id, userID int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return false, err
	}
	if err := s.authorize(ctx, userID, id); err != nil {
		return false, err
	}
	return s.repo.Delete(ctx, id)
}

func (s *ProjectService) authorize(ctx context.Context, userID, projectID int64) error {
	ok, err := s.repo.HasAccess(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied
	}
	return nil
}
