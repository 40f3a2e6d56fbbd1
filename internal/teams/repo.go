package teams

import (
	"context"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
)

// Repository exposes team persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a teams repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new team and returns the persisted model.
func (r *Repository) Create(ctx context.Context, team *models.Team) (*models.Team, error) {
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		return nil, err
	}
	return team, nil
}

// FindByID loads a team with its members preloaded.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Preload("Members").First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// List returns all teams ordered by name. Crews are few enough that the
// listing is unpaginated.
func (r *Repository) List(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := r.db.WithContext(ctx).Preload("Members").Order("name").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// Update persists the given field updates on the team row.
func (r *Repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the team. Member rows keep their accounts and lose the
// team reference.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Team{}, "id = ?", id).Error
}

// CountMembers returns how many users belong to the team.
func (r *Repository) CountMembers(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("team_id = ?", id).Count(&count).Error
	return count, err
}
