package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/timewindow"
)

type reportsRepository interface {
	CountByStatus(ctx context.Context, window timewindow.Window) ([]StatusCountRow, error)
	TechnicianWorkload(ctx context.Context, window timewindow.Window) ([]WorkloadRow, error)
	Overdue(ctx context.Context, cutoff time.Time) ([]OverdueRow, error)
}

// SummaryDTO is the dashboard rollup for a scheduling window.
type SummaryDTO struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	CompletionRate float64          `json:"completion_rate"`
}

// WorkloadDTO is one technician's row in the workload report.
type WorkloadDTO struct {
	TechnicianID   uint   `json:"technician_id"`
	TechnicianName string `json:"technician_name"`
	JobCount       int64  `json:"job_count"`
	CompletedCount int64  `json:"completed_count"`
}

// OverdueDTO is one past-due job in the overdue report.
type OverdueDTO struct {
	JobID         uint   `json:"job_id"`
	Title         string `json:"title"`
	CustomerName  string `json:"customer_name"`
	Status        string `json:"status"`
	ScheduledDate string `json:"scheduled_date"`
}

// Service exposes the reporting rollups shown to admin and staff.
type Service interface {
	Summary(ctx context.Context, actor enums.UserRole, dateToken, periodToken string) (*SummaryDTO, error)
	Workload(ctx context.Context, actor enums.UserRole, dateToken, periodToken string) ([]WorkloadDTO, error)
	Overdue(ctx context.Context, actor enums.UserRole) ([]OverdueDTO, error)
}

type service struct {
	repo reportsRepository
	now  func() time.Time
}

// NewService builds a reports service with the provided repository.
func NewService(repo reportsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context, actor enums.UserRole, dateToken, periodToken string) (*SummaryDTO, error) {
	if !actor.CanManageJobs() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reports are staff only")
	}

	window := timewindow.Resolve(dateToken, periodToken, s.now())
	rows, err := s.repo.CountByStatus(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count jobs by status")
	}

	summary := &SummaryDTO{ByStatus: map[string]int64{}}
	for _, status := range enums.JobStatuses() {
		summary.ByStatus[status.String()] = 0
	}
	for _, row := range rows {
		summary.ByStatus[row.Status] = row.Count
		summary.Total += row.Count
	}
	if summary.Total > 0 {
		summary.CompletionRate = float64(summary.ByStatus[enums.JobStatusCompleted.String()]) / float64(summary.Total)
	}
	return summary, nil
}

func (s *service) Workload(ctx context.Context, actor enums.UserRole, dateToken, periodToken string) ([]WorkloadDTO, error) {
	if !actor.CanManageJobs() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reports are staff only")
	}

	window := timewindow.Resolve(dateToken, periodToken, s.now())
	rows, err := s.repo.TechnicianWorkload(ctx, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load technician workload")
	}

	dtos := make([]WorkloadDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, WorkloadDTO{
			TechnicianID:   row.TechnicianID,
			TechnicianName: row.TechnicianName,
			JobCount:       row.JobCount,
			CompletedCount: row.CompletedCount,
		})
	}
	return dtos, nil
}

func (s *service) Overdue(ctx context.Context, actor enums.UserRole) ([]OverdueDTO, error) {
	if !actor.CanManageJobs() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reports are staff only")
	}

	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	rows, err := s.repo.Overdue(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load overdue jobs")
	}

	dtos := make([]OverdueDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, OverdueDTO{
			JobID:         row.JobID,
			Title:         row.Title,
			CustomerName:  row.CustomerName,
			Status:        row.Status,
			ScheduledDate: row.ScheduledDate.Format("2006-01-02"),
		})
	}
	return dtos, nil
}
