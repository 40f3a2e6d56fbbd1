package projects

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

// Repository exposes project persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a projects repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new project and returns the persisted model.
func (r *Repository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// FindByID loads a project by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns one page of projects ordered by id, optionally filtered by
// status, with the total row count.
func (r *Repository) List(ctx context.Context, status *enums.ProjectStatus, params pagination.Params) ([]models.Project, int64, error) {
	params = params.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Project{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	err := query.
		Order("id").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// SearchActive partial-matches active projects by name or customer name.
func (r *Repository) SearchActive(ctx context.Context, term string) ([]models.Project, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	var projects []models.Project
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.ProjectStatusActive).
		Where("(LOWER(name) LIKE ? OR LOWER(customer_name) LIKE ?)", pattern, pattern).
		Order("id").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// JobRollups aggregates total and completed job counts for the given
// project ids.
func (r *Repository) JobRollups(ctx context.Context, projectIDs []uint) (map[uint]JobRollup, error) {
	rollups := make(map[uint]JobRollup, len(projectIDs))
	if len(projectIDs) == 0 {
		return rollups, nil
	}

	var rows []struct {
		ProjectID uint
		Total     int64
		Completed int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", enums.JobStatusCompleted).
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		rollups[row.ProjectID] = JobRollup{
			ProjectID: row.ProjectID,
			Total:     row.Total,
			Completed: row.Completed,
		}
	}
	return rollups, nil
}

// Update persists the given field updates on the project row.
func (r *Repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error
}

// Delete removes the project. Jobs keep their rows and lose the project
// reference.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id).Error
}
