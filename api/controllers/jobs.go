package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pimtong/fieldworks-backend/api/middleware"
	"github.com/pimtong/fieldworks-backend/api/responses"
	"github.com/pimtong/fieldworks-backend/api/validators"
	"github.com/pimtong/fieldworks-backend/internal/jobs"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
	"github.com/pimtong/fieldworks-backend/pkg/timewindow"
)

func actorFrom(r *http.Request) (jobs.Actor, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return jobs.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return jobs.Actor{ID: principal.UserID, Role: principal.Role, TeamID: principal.TeamID}, nil
}

type assigneeRequest struct {
	TechnicianID *uint `json:"technician_id,omitempty"`
	TeamID       *uint `json:"team_id,omitempty"`
}

func (a assigneeRequest) toAssignee() (jobs.Assignee, error) {
	switch {
	case a.TechnicianID != nil && a.TeamID == nil:
		return jobs.TechnicianAssignee(*a.TechnicianID), nil
	case a.TeamID != nil && a.TechnicianID == nil:
		return jobs.TeamAssignee(*a.TeamID), nil
	default:
		return jobs.Assignee{}, pkgerrors.New(pkgerrors.CodeValidation, "assignee must name exactly one technician or team")
	}
}

type createJobRequest struct {
	Title           string            `json:"title" validate:"required,min=1,max=200"`
	Description     *string           `json:"description,omitempty"`
	JobType         string            `json:"job_type" validate:"required,oneof=sales project service"`
	ProjectID       *uint             `json:"project_id,omitempty"`
	CustomerName    string            `json:"customer_name" validate:"required,min=1"`
	CustomerPhone   string            `json:"customer_phone" validate:"required,min=1"`
	CustomerAddress string            `json:"customer_address" validate:"required,min=1"`
	LocationLat     *string           `json:"location_lat,omitempty"`
	LocationLong    *string           `json:"location_long,omitempty"`
	ProductType     *string           `json:"product_type,omitempty"`
	Model           *string           `json:"model,omitempty"`
	ScheduledDate   string            `json:"scheduled_date" validate:"required"`
	ScheduledTime   *string           `json:"scheduled_time,omitempty"`
	Assignees       []assigneeRequest `json:"assignees,omitempty"`
}

func JobCreate(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createJobRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobType, err := enums.ParseJobType(payload.JobType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job type"))
			return
		}

		scheduled, err := time.Parse(dateOnlyFormat, payload.ScheduledDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_date must be YYYY-MM-DD"))
			return
		}

		assignees := make([]jobs.Assignee, 0, len(payload.Assignees))
		for _, req := range payload.Assignees {
			assignee, err := req.toAssignee()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			assignees = append(assignees, assignee)
		}

		detail, err := svc.Create(r.Context(), actor, jobs.CreateJobInput{
			Title:           payload.Title,
			Description:     payload.Description,
			JobType:         jobType,
			ProjectID:       payload.ProjectID,
			CustomerName:    payload.CustomerName,
			CustomerPhone:   payload.CustomerPhone,
			CustomerAddress: payload.CustomerAddress,
			LocationLat:     payload.LocationLat,
			LocationLong:    payload.LocationLong,
			ProductType:     payload.ProductType,
			Model:           payload.Model,
			ScheduledDate:   scheduled,
			ScheduledTime:   payload.ScheduledTime,
			Assignees:       assignees,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// JobList applies the caller's visibility scope plus the optional window,
// status, type and project filters.
func JobList(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := jobFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, page, err := svc.Query(r.Context(), actor, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"jobs": list, "page": page})
	}
}

func jobFiltersFromQuery(r *http.Request) (jobs.QueryFilters, error) {
	query := r.URL.Query()
	filters := jobs.QueryFilters{
		Window: timewindow.Resolve(query.Get("date"), query.Get("period"), time.Now()),
	}

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		if statuses := enums.StatusBucket(raw).Statuses(); statuses != nil {
			filters.Statuses = statuses
		} else {
			status, err := enums.ParseJobStatus(raw)
			if err != nil {
				return jobs.QueryFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
			}
			filters.Statuses = []enums.JobStatus{status}
		}
	}

	if raw := strings.TrimSpace(query.Get("job_type")); raw != "" {
		jobType, err := enums.ParseJobType(raw)
		if err != nil {
			return jobs.QueryFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job type filter")
		}
		filters.JobType = &jobType
	}

	if raw := strings.TrimSpace(query.Get("project_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return jobs.QueryFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "project_id must be a positive id")
		}
		projectID := uint(id)
		filters.ProjectID = &projectID
	}

	filters.CustomerName = strings.TrimSpace(query.Get("customer_name"))
	filters.Keyword = strings.TrimSpace(query.Get("keyword"))
	filters.TechnicianName = strings.TrimSpace(query.Get("technician_name"))

	return filters, nil
}

func JobGet(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDetail(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type updateJobRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description,omitempty"`
	JobType         *string `json:"job_type,omitempty" validate:"omitempty,oneof=sales project service"`
	ProjectID       *uint   `json:"project_id,omitempty"`
	ClearProject    bool    `json:"clear_project,omitempty"`
	CustomerName    *string `json:"customer_name,omitempty" validate:"omitempty,min=1"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	CustomerAddress *string `json:"customer_address,omitempty"`
	LocationLat     *string `json:"location_lat,omitempty"`
	LocationLong    *string `json:"location_long,omitempty"`
	ProductType     *string `json:"product_type,omitempty"`
	Model           *string `json:"model,omitempty"`
	ScheduledDate   *string `json:"scheduled_date,omitempty"`
	ScheduledTime   *string `json:"scheduled_time,omitempty"`
}

func JobUpdate(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateJobRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := jobs.UpdateJobInput{
			Title:           payload.Title,
			Description:     payload.Description,
			ProjectID:       payload.ProjectID,
			ClearProject:    payload.ClearProject,
			CustomerName:    payload.CustomerName,
			CustomerPhone:   payload.CustomerPhone,
			CustomerAddress: payload.CustomerAddress,
			LocationLat:     payload.LocationLat,
			LocationLong:    payload.LocationLong,
			ProductType:     payload.ProductType,
			Model:           payload.Model,
			ScheduledTime:   payload.ScheduledTime,
		}
		if payload.JobType != nil {
			jobType, err := enums.ParseJobType(*payload.JobType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job type"))
				return
			}
			input.JobType = &jobType
		}
		if payload.ScheduledDate != nil {
			scheduled, err := time.Parse(dateOnlyFormat, *payload.ScheduledDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_date must be YYYY-MM-DD"))
				return
			}
			input.ScheduledDate = &scheduled
		}

		detail, err := svc.Update(r.Context(), actor, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type assignJobRequest struct {
	// An empty list clears every assignment on the job.
	Assignees []assigneeRequest `json:"assignees"`
}

// JobAssign replaces the job's assignment set.
func JobAssign(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignJobRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignees := make([]jobs.Assignee, 0, len(payload.Assignees))
		for _, req := range payload.Assignees {
			assignee, err := req.toAssignee()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			assignees = append(assignees, assignee)
		}

		detail, err := svc.Assign(r.Context(), actor, id, assignees)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type changeJobStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending assigned in_progress completed cancelled"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

func JobChangeStatus(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload changeJobStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseJobStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		// Only the conversational path appends history rows. The direct
		// API mutates status without an audit entry.
		detail, err := svc.ChangeStatus(r.Context(), actor, id, jobs.ChangeStatusInput{
			Status:        status,
			Note:          payload.Note,
			RecordHistory: false,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func JobDelete(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func JobHistory(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "jobID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.ListHistory(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"history": history})
	}
}
