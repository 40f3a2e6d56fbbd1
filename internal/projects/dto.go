package projects

import (
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// CreateProjectInput captures the fields required to open a project.
type CreateProjectInput struct {
	Name         string
	Description  *string
	CustomerName *string
	StartDate    *time.Time
	EndDate      *time.Time
	Status       enums.ProjectStatus
}

// UpdateProjectInput captures the mutable project fields. Nil means unchanged.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	CustomerName *string
	StartDate    *time.Time
	EndDate      *time.Time
	Status       *enums.ProjectStatus
}

// ProjectDTO is the outward representation of a project, including the
// job rollups shown in listings.
type ProjectDTO struct {
	ID                   uint                `json:"id"`
	Name                 string              `json:"name"`
	Description          *string             `json:"description,omitempty"`
	CustomerName         *string             `json:"customer_name,omitempty"`
	StartDate            *time.Time          `json:"start_date,omitempty"`
	EndDate              *time.Time          `json:"end_date,omitempty"`
	Status               enums.ProjectStatus `json:"status"`
	JobCount             int64               `json:"job_count"`
	CompletedJobCount    int64               `json:"completed_job_count"`
	CompletionPercentage float64             `json:"completion_percentage"`
}

// JobRollup carries per-project job counts from the repository layer.
type JobRollup struct {
	ProjectID uint
	Total     int64
	Completed int64
}

// FromModel maps a persisted project plus its rollup onto the DTO shape.
func FromModel(project *models.Project, rollup JobRollup) *ProjectDTO {
	if project == nil {
		return nil
	}
	dto := &ProjectDTO{
		ID:                project.ID,
		Name:              project.Name,
		Description:       project.Description,
		CustomerName:      project.CustomerName,
		StartDate:         project.StartDate,
		EndDate:           project.EndDate,
		Status:            project.Status,
		JobCount:          rollup.Total,
		CompletedJobCount: rollup.Completed,
	}
	if rollup.Total > 0 {
		dto.CompletionPercentage = float64(rollup.Completed) / float64(rollup.Total) * 100
	}
	return dto
}
