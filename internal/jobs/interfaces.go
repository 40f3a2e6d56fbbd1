package jobs

import (
	"context"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

// Repository defines persistence operations for jobs, assignments, and the
// status audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)
	FindJobByID(ctx context.Context, id uint, scope Scope) (*models.Job, error)
	ListJobs(ctx context.Context, scope Scope, filters QueryFilters, params pagination.Params) ([]models.Job, int64, error)
	UpdateJob(ctx context.Context, id uint, updates map[string]any) error
	UpdateJobStatus(ctx context.Context, id uint, status enums.JobStatus) error
	DeleteJob(ctx context.Context, id uint) error

	CreateAssignments(ctx context.Context, assignments []models.Assignment) error
	DeleteAssignmentsByJob(ctx context.Context, jobID uint) error
	UpdateAssignment(ctx context.Context, id uint, updates map[string]any) error
	FindAssignmentForTechnician(ctx context.Context, jobID, technicianID uint) (*models.Assignment, error)

	CreateHistory(ctx context.Context, entry *models.JobHistory) error
	ListHistoryByJob(ctx context.Context, jobID uint) ([]models.JobHistory, error)
}
