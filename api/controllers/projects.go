package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/pimtong/fieldworks-backend/api/responses"
	"github.com/pimtong/fieldworks-backend/api/validators"
	"github.com/pimtong/fieldworks-backend/internal/projects"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	pkgerrors "github.com/pimtong/fieldworks-backend/pkg/errors"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
)

const dateOnlyFormat = "2006-01-02"

type createProjectRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Description  *string `json:"description,omitempty"`
	CustomerName *string `json:"customer_name,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	Status       string  `json:"status,omitempty" validate:"omitempty,oneof=active completed on_hold"`
}

func ProjectCreate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProjectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := projects.CreateProjectInput{
			Name:         payload.Name,
			Description:  payload.Description,
			CustomerName: payload.CustomerName,
			Status:       enums.ProjectStatusActive,
		}
		if payload.Status != "" {
			status, err := enums.ParseProjectStatus(payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = status
		}

		var err error
		if input.StartDate, err = parseDateField(payload.StartDate, "start_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.EndDate, err = parseDateField(payload.EndDate, "end_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, project)
	}
}

func ProjectList(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.ProjectStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseProjectStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}

		list, page, err := svc.List(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"projects": list, "page": page})
	}
}

func ProjectGet(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

type updateProjectRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description,omitempty"`
	CustomerName *string `json:"customer_name,omitempty"`
	StartDate    *string `json:"start_date,omitempty"`
	EndDate      *string `json:"end_date,omitempty"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=active completed on_hold"`
}

func ProjectUpdate(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProjectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := projects.UpdateProjectInput{
			Name:         payload.Name,
			Description:  payload.Description,
			CustomerName: payload.CustomerName,
		}
		if payload.Status != nil {
			status, err := enums.ParseProjectStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if input.StartDate, err = parseDateField(payload.StartDate, "start_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if input.EndDate, err = parseDateField(payload.EndDate, "end_date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, project)
	}
}

func ProjectDelete(svc projects.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "projectID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseDateField(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateOnlyFormat, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": field})
	}
	return &parsed, nil
}
