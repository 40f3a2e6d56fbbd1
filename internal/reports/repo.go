package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/timewindow"
)

// Repository runs the aggregate queries behind the reporting endpoints.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a reports repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// StatusCountRow is one bucket of the status breakdown.
type StatusCountRow struct {
	Status string
	Count  int64
}

// CountByStatus groups jobs scheduled inside the window by status.
func (r *Repository) CountByStatus(ctx context.Context, window timewindow.Window) ([]StatusCountRow, error) {
	query := r.windowed(r.db.WithContext(ctx).Model(&models.Job{}), window)

	var rows []StatusCountRow
	err := query.
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WorkloadRow is one technician's share of the schedule.
type WorkloadRow struct {
	TechnicianID   uint
	TechnicianName string
	JobCount       int64
	CompletedCount int64
}

// TechnicianWorkload counts jobs per directly assigned technician inside
// the window. Team assignments are not attributed to individuals here.
func (r *Repository) TechnicianWorkload(ctx context.Context, window timewindow.Window) ([]WorkloadRow, error) {
	query := r.windowed(r.db.WithContext(ctx).Model(&models.Assignment{}).
		Joins("JOIN jobs ON jobs.id = assignments.job_id").
		Joins("JOIN users ON users.id = assignments.technician_id"), window)

	var rows []WorkloadRow
	err := query.
		Select(`users.id AS technician_id,
			users.full_name AS technician_name,
			COUNT(DISTINCT jobs.id) AS job_count,
			SUM(CASE WHEN jobs.status = 'completed' THEN 1 ELSE 0 END) AS completed_count`).
		Group("users.id, users.full_name").
		Order("job_count DESC, users.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// OverdueRow is one job scheduled before the cutoff that never reached a
// terminal status.
type OverdueRow struct {
	JobID         uint
	Title         string
	CustomerName  string
	Status        string
	ScheduledDate time.Time
}

// Overdue lists jobs scheduled strictly before the cutoff date whose status
// is neither completed nor cancelled, oldest first.
func (r *Repository) Overdue(ctx context.Context, cutoff time.Time) ([]OverdueRow, error) {
	var rows []OverdueRow
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("id AS job_id, title, customer_name, status, scheduled_date").
		Where("scheduled_date < ?", cutoff).
		Where("status NOT IN ?", []string{
			enums.JobStatusCompleted.String(),
			enums.JobStatusCancelled.String(),
		}).
		Order("scheduled_date, id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) windowed(query *gorm.DB, window timewindow.Window) *gorm.DB {
	switch {
	case window.On != nil:
		return query.Where("jobs.scheduled_date = ?", *window.On)
	case window.Start != nil && window.End != nil:
		return query.Where("jobs.scheduled_date BETWEEN ? AND ?", *window.Start, *window.End)
	}
	return query
}
