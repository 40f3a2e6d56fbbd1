package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the job query engine and lifecycle operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateJobInput) (*JobDetailDTO, error)
	Query(ctx context.Context, actor Actor, filters QueryFilters, params pagination.Params) ([]JobDTO, pagination.Page, error)
	GetDetail(ctx context.Context, actor Actor, id uint) (*JobDetailDTO, error)
	Update(ctx context.Context, actor Actor, id uint, input UpdateJobInput) (*JobDetailDTO, error)
	Assign(ctx context.Context, actor Actor, id uint, assignees []Assignee) (*JobDetailDTO, error)
	ChangeStatus(ctx context.Context, actor Actor, id uint, input ChangeStatusInput) (*JobDetailDTO, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	ListHistory(ctx context.Context, actor Actor, id uint) ([]HistoryDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds a jobs service with the provided repository and
// transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("jobs repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, now: time.Now}, nil
}

// wrapInternal keeps already-coded errors intact so a validation failure
// inside a transaction does not surface as an internal error.
func wrapInternal(err error, msg string) error {
	if coded := pkgerrors.As(err); coded != nil {
		return coded
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateJobInput) (*JobDetailDTO, error) {
	if !actor.Role.CanManageJobs() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can create jobs")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	job := &models.Job{
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		JobType:         input.JobType,
		Status:          enums.JobStatusPending,
		ProjectID:       input.ProjectID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		CustomerAddress: strings.TrimSpace(input.CustomerAddress),
		LocationLat:     input.LocationLat,
		LocationLong:    input.LocationLong,
		ProductType:     input.ProductType,
		Model:           input.Model,
		ScheduledDate:   input.ScheduledDate,
		ScheduledTime:   input.ScheduledTime,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateJob(ctx, job); err != nil {
			return err
		}
		if len(input.Assignees) == 0 {
			return nil
		}
		return s.assignLocked(ctx, repo, job, input.Assignees)
	})
	if err != nil {
		return nil, wrapInternal(err, "create job")
	}

	return s.GetDetail(ctx, actor, job.ID)
}

func (s *service) Query(ctx context.Context, actor Actor, filters QueryFilters, params pagination.Params) ([]JobDTO, pagination.Page, error) {
	for _, status := range filters.Statuses {
		if !status.IsValid() {
			return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid job status filter")
		}
	}
	if filters.JobType != nil && !filters.JobType.IsValid() {
		return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid job type filter")
	}

	rows, total, err := s.repo.ListJobs(ctx, ScopeFor(actor), filters, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list jobs")
	}

	dtos := make([]JobDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, pagination.NewPage(params, total), nil
}

func (s *service) GetDetail(ctx context.Context, actor Actor, id uint) (*JobDetailDTO, error) {
	job, err := s.findJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListHistoryByJob(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load job history")
	}
	return DetailFromModel(job, history), nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uint, input UpdateJobInput) (*JobDetailDTO, error) {
	if !actor.Role.CanManageJobs() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can edit jobs")
	}
	if _, err := s.findJob(ctx, actor, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.JobType != nil {
		if !input.JobType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid job type")
		}
		updates["job_type"] = *input.JobType
	}
	if input.ClearProject {
		updates["project_id"] = nil
	} else if input.ProjectID != nil {
		updates["project_id"] = *input.ProjectID
	}
	if input.CustomerName != nil {
		updates["customer_name"] = strings.TrimSpace(*input.CustomerName)
	}
	if input.CustomerPhone != nil {
		updates["customer_phone"] = strings.TrimSpace(*input.CustomerPhone)
	}
	if input.CustomerAddress != nil {
		updates["customer_address"] = strings.TrimSpace(*input.CustomerAddress)
	}
	if input.LocationLat != nil {
		updates["location_lat"] = *input.LocationLat
	}
	if input.LocationLong != nil {
		updates["location_long"] = *input.LocationLong
	}
	if input.ProductType != nil {
		updates["product_type"] = *input.ProductType
	}
	if input.Model != nil {
		updates["model"] = *input.Model
	}
	if input.ScheduledDate != nil {
		updates["scheduled_date"] = *input.ScheduledDate
	}
	if input.ScheduledTime != nil {
		updates["scheduled_time"] = *input.ScheduledTime
	}

	if err := s.repo.UpdateJob(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update job")
	}
	return s.GetDetail(ctx, actor, id)
}

// Assign replaces the whole assignment set of a job. A pending job is
// promoted to assigned as part of the same transaction. An empty set
// clears all assignments without demoting the status.
func (s *service) Assign(ctx context.Context, actor Actor, id uint, assignees []Assignee) (*JobDetailDTO, error) {
	if !actor.Role.CanManageJobs() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can assign jobs")
	}

	job, err := s.findJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("job is %s", job.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteAssignmentsByJob(ctx, id); err != nil {
			return err
		}
		return s.assignLocked(ctx, repo, job, assignees)
	})
	if err != nil {
		return nil, wrapInternal(err, "assign job")
	}

	return s.GetDetail(ctx, actor, id)
}

// assignLocked inserts assignment rows and auto-promotes a pending job.
// Promotion is a side effect of assignment, not a status mutation in its
// own right, so no history row is written here. Callers hold the
// surrounding transaction.
func (s *service) assignLocked(ctx context.Context, repo Repository, job *models.Job, assignees []Assignee) error {
	rows := make([]models.Assignment, 0, len(assignees))
	for _, assignee := range assignees {
		if !assignee.isValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "assignee must name a technician or a team, not both")
		}
		rows = append(rows, models.Assignment{
			JobID:        job.ID,
			TechnicianID: assignee.TechnicianID(),
			TeamID:       assignee.TeamID(),
			AssignedAt:   s.now(),
		})
	}
	// An empty set is a pure clear; status is never auto-demoted.
	if len(rows) == 0 {
		return nil
	}
	if err := repo.CreateAssignments(ctx, rows); err != nil {
		return err
	}

	if job.Status != enums.JobStatusPending {
		return nil
	}
	if err := repo.UpdateJobStatus(ctx, job.ID, enums.JobStatusAssigned); err != nil {
		return err
	}
	job.Status = enums.JobStatusAssigned
	return nil
}

func (s *service) ChangeStatus(ctx context.Context, actor Actor, id uint, input ChangeStatusInput) (*JobDetailDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid job status")
	}

	job, err := s.findJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if job.Status == input.Status {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("job is already %s", job.Status))
	}
	// Between the live statuses any jump is allowed; field conditions
	// are not always recorded in order, so a pending job may go
	// straight to completed.
	if job.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("job is already %s and cannot change status", job.Status))
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateJobStatus(ctx, id, input.Status); err != nil {
			return err
		}
		if err := s.recordFieldTelemetry(ctx, repo, actor, id, input); err != nil {
			return err
		}
		if !input.RecordHistory {
			return nil
		}
		return repo.CreateHistory(ctx, &models.JobHistory{
			JobID:     id,
			UserID:    actor.ID,
			OldStatus: job.Status,
			NewStatus: input.Status,
			Note:      input.Note,
		})
	})
	if err != nil {
		return nil, wrapInternal(err, "change job status")
	}

	return s.GetDetail(ctx, actor, id)
}

// recordFieldTelemetry stamps check-in/out times on the technician's own
// assignment when they start or finish a job.
func (s *service) recordFieldTelemetry(ctx context.Context, repo Repository, actor Actor, jobID uint, input ChangeStatusInput) error {
	if actor.Role != enums.UserRoleTechnician {
		return nil
	}

	assignment, err := repo.FindAssignmentForTechnician(ctx, jobID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	switch input.Status {
	case enums.JobStatusInProgress:
		return repo.UpdateAssignment(ctx, assignment.ID, map[string]any{"check_in_time": s.now()})
	case enums.JobStatusCompleted:
		updates := map[string]any{"check_out_time": s.now()}
		if input.Note != nil {
			updates["completion_notes"] = *input.Note
		}
		return repo.UpdateAssignment(ctx, assignment.ID, updates)
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uint) error {
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can delete jobs")
	}
	if _, err := s.findJob(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteJob(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete job")
	}
	return nil
}

func (s *service) ListHistory(ctx context.Context, actor Actor, id uint) ([]HistoryDTO, error) {
	detail, err := s.GetDetail(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return detail.History, nil
}

// findJob loads the job within the actor's scope. A job that exists but is
// outside the scope surfaces as forbidden, not as missing.
func (s *service) findJob(ctx context.Context, actor Actor, id uint) (*models.Job, error) {
	scope := ScopeFor(actor)
	job, err := s.repo.FindJobByID(ctx, id, scope)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find job")
	}

	if !scope.All {
		if _, unscopedErr := s.repo.FindJobByID(ctx, id, Scope{All: true}); unscopedErr == nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "job is not assigned to you")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
}

func validateCreateInput(input CreateJobInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.JobType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid job type")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone is required")
	}
	if strings.TrimSpace(input.CustomerAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer address is required")
	}
	if input.ScheduledDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "scheduled date is required")
	}
	for _, assignee := range input.Assignees {
		if !assignee.isValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "assignee must name a technician or a team, not both")
		}
	}
	return nil
}
