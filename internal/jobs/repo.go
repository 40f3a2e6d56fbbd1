package jobs

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a jobs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateJob(ctx context.Context, job *models.Job) (*models.Job, error) {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repository) FindJobByID(ctx context.Context, id uint, scope Scope) (*models.Job, error) {
	query := r.scoped(r.db.WithContext(ctx).Model(&models.Job{}), scope).
		Preload("Project").
		Preload("Assignments").
		Preload("Assignments.Technician").
		Preload("Assignments.Team")

	var job models.Job
	if err := query.Where("jobs.id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) ListJobs(ctx context.Context, scope Scope, filters QueryFilters, params pagination.Params) ([]models.Job, int64, error) {
	params = params.Normalize()

	base := r.scoped(r.db.WithContext(ctx).Model(&models.Job{}), scope)
	base = applyFilters(base, filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("jobs.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.Job
	err := base.Session(&gorm.Session{}).
		Preload("Project").
		Preload("Assignments").
		Preload("Assignments.Technician").
		Preload("Assignments.Team").
		Distinct("jobs.*").
		Order("jobs.scheduled_date, jobs.scheduled_time, jobs.id").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (r *repository) UpdateJob(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) UpdateJobStatus(ctx context.Context, id uint, status enums.JobStatus) error {
	return r.db.WithContext(ctx).Model(&models.Job{}).Where("id = ?", id).UpdateColumn("status", status).Error
}

func (r *repository) DeleteJob(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Job{}, "id = ?", id).Error
}

func (r *repository) CreateAssignments(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&assignments).Error
}

func (r *repository) DeleteAssignmentsByJob(ctx context.Context, jobID uint) error {
	return r.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&models.Assignment{}).Error
}

func (r *repository) UpdateAssignment(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) FindAssignmentForTechnician(ctx context.Context, jobID, technicianID uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN users ON users.team_id = assignments.team_id").
		Where("assignments.job_id = ?", jobID).
		Where("assignments.technician_id = ? OR users.id = ?", technicianID, technicianID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) CreateHistory(ctx context.Context, entry *models.JobHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistoryByJob(ctx context.Context, jobID uint) ([]models.JobHistory, error) {
	var entries []models.JobHistory
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// scoped narrows the query to jobs visible to the actor. Technicians match
// through their own assignments or their team's.
func (r *repository) scoped(query *gorm.DB, scope Scope) *gorm.DB {
	if scope.All {
		return query
	}

	query = query.Joins("JOIN assignments ON assignments.job_id = jobs.id")
	if scope.TeamID != nil {
		return query.Where("assignments.technician_id = ? OR assignments.team_id = ?", scope.TechnicianID, *scope.TeamID)
	}
	return query.Where("assignments.technician_id = ?", scope.TechnicianID)
}

func applyFilters(query *gorm.DB, filters QueryFilters) *gorm.DB {
	window := filters.Window
	switch {
	case window.On != nil:
		query = query.Where("jobs.scheduled_date = ?", *window.On)
	case window.Start != nil && window.End != nil:
		query = query.Where("jobs.scheduled_date BETWEEN ? AND ?", *window.Start, *window.End)
	}

	if len(filters.Statuses) > 0 {
		query = query.Where("jobs.status IN ?", filters.Statuses)
	}
	if filters.JobType != nil {
		query = query.Where("jobs.job_type = ?", *filters.JobType)
	}
	if filters.ProjectID != nil {
		query = query.Where("jobs.project_id = ?", *filters.ProjectID)
	}
	if name := strings.TrimSpace(filters.CustomerName); name != "" {
		query = query.Where("LOWER(jobs.customer_name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if search := strings.TrimSpace(filters.Keyword); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"(LOWER(jobs.title) LIKE ? OR LOWER(jobs.description) LIKE ? OR LOWER(jobs.product_type) LIKE ? OR LOWER(jobs.model) LIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if name := strings.TrimSpace(filters.TechnicianName); name != "" {
		pattern := "%" + strings.ToLower(name) + "%"
		query = query.Where(
			"jobs.id IN (SELECT a.job_id FROM assignments a JOIN users u ON u.id = a.technician_id WHERE LOWER(u.full_name) LIKE ? OR LOWER(u.username) LIKE ?)",
			pattern, pattern,
		)
	}
	return query
}
