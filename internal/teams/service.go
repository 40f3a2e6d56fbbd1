package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db"
	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
)

type teamsRepository interface {
	Create(ctx context.Context, team *models.Team) (*models.Team, error)
	FindByID(ctx context.Context, id uint) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// Service exposes crew operations.
type Service interface {
	Create(ctx context.Context, input CreateTeamInput) (*TeamDTO, error)
	GetByID(ctx context.Context, id uint) (*TeamDTO, error)
	List(ctx context.Context) ([]TeamDTO, error)
	Update(ctx context.Context, id uint, input UpdateTeamInput) (*TeamDTO, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo teamsRepository
}

// NewService builds a teams service with the provided repository.
func NewService(repo teamsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("teams repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateTeamInput) (*TeamDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "team name is required")
	}

	team := &models.Team{Name: name}
	if color := strings.TrimSpace(input.Color); color != "" {
		team.Color = color
	}

	created, err := s.repo.Create(ctx, team)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "team name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create team")
	}
	return FromModel(created), nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*TeamDTO, error) {
	team, err := s.findTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(team), nil
}

func (s *service) List(ctx context.Context) ([]TeamDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list teams")
	}

	dtos := make([]TeamDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateTeamInput) (*TeamDTO, error) {
	if _, err := s.findTeam(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "team name is required")
		}
		updates["name"] = name
	}
	if input.Color != nil {
		updates["color"] = strings.TrimSpace(*input.Color)
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "team name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update team")
	}
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.findTeam(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete team")
	}
	return nil
}

func (s *service) findTeam(ctx context.Context, id uint) (*models.Team, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find team")
	}
	return team, nil
}
