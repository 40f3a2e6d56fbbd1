package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

type projectsRepository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	FindByID(ctx context.Context, id uint) (*models.Project, error)
	List(ctx context.Context, status *enums.ProjectStatus, params pagination.Params) ([]models.Project, int64, error)
	SearchActive(ctx context.Context, term string) ([]models.Project, error)
	JobRollups(ctx context.Context, projectIDs []uint) (map[uint]JobRollup, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// Service exposes project operations.
type Service interface {
	Create(ctx context.Context, input CreateProjectInput) (*ProjectDTO, error)
	GetByID(ctx context.Context, id uint) (*ProjectDTO, error)
	List(ctx context.Context, status *enums.ProjectStatus, params pagination.Params) ([]ProjectDTO, pagination.Page, error)
	ListActive(ctx context.Context) ([]ProjectDTO, error)
	SearchActive(ctx context.Context, term string) ([]ProjectDTO, error)
	Update(ctx context.Context, id uint, input UpdateProjectInput) (*ProjectDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo projectsRepository
}

// NewService builds a projects service with the provided repository.
func NewService(repo projectsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProjectInput) (*ProjectDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project name is required")
	}

	status := input.Status
	if status == "" {
		status = enums.ProjectStatusActive
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project status")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}

	project := &models.Project{
		Name:         name,
		Description:  input.Description,
		CustomerName: input.CustomerName,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       status,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create project")
	}
	return FromModel(created, JobRollup{}), nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*ProjectDTO, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return nil, err
	}

	rollups, err := s.repo.JobRollups(ctx, []uint{id})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load job rollups")
	}
	return FromModel(project, rollups[id]), nil
}

func (s *service) List(ctx context.Context, status *enums.ProjectStatus, params pagination.Params) ([]ProjectDTO, pagination.Page, error) {
	if status != nil && !status.IsValid() {
		return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid project status")
	}

	rows, total, err := s.repo.List(ctx, status, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list projects")
	}

	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	rollups, err := s.repo.JobRollups(ctx, ids)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load job rollups")
	}

	dtos := make([]ProjectDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i], rollups[rows[i].ID]))
	}
	return dtos, pagination.NewPage(params, total), nil
}

// ListActive returns all active projects without paging, the shape the
// conversational flow reads.
func (s *service) ListActive(ctx context.Context) ([]ProjectDTO, error) {
	active := enums.ProjectStatusActive
	dtos, _, err := s.List(ctx, &active, pagination.Params{Limit: pagination.MaxLimit})
	return dtos, err
}

// SearchActive partial-matches active projects by name or customer name.
// An empty term returns every active project.
func (s *service) SearchActive(ctx context.Context, term string) ([]ProjectDTO, error) {
	if strings.TrimSpace(term) == "" {
		return s.ListActive(ctx)
	}

	rows, err := s.repo.SearchActive(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search projects")
	}

	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	rollups, err := s.repo.JobRollups(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load job rollups")
	}

	dtos := make([]ProjectDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i], rollups[rows[i].ID]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateProjectInput) (*ProjectDTO, error) {
	if _, err := s.findProject(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "project name is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CustomerName != nil {
		updates["customer_name"] = *input.CustomerName
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid project status")
		}
		updates["status"] = *input.Status
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update project")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.findProject(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete project")
	}
	return nil
}

func (s *service) findProject(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find project")
	}
	return project, nil
}
