package jobs

import (
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/timewindow"
)

// Actor identifies who is asking. Every query and mutation is evaluated
// against the actor's role and team.
type Actor struct {
	ID     uint
	Role   enums.UserRole
	TeamID *uint
}

// Scope restricts which job rows an actor can see. Admin and staff get the
// unrestricted scope; technicians only see jobs assigned to them directly
// or through their team.
type Scope struct {
	All          bool
	TechnicianID uint
	TeamID       *uint
}

// ScopeFor derives the visibility scope from the actor's role.
func ScopeFor(actor Actor) Scope {
	if actor.Role.CanManageJobs() {
		return Scope{All: true}
	}
	return Scope{TechnicianID: actor.ID, TeamID: actor.TeamID}
}

// QueryFilters narrows a job listing. Zero values mean unfiltered.
type QueryFilters struct {
	Window    timewindow.Window
	Statuses  []enums.JobStatus
	JobType   *enums.JobType
	ProjectID *uint
	// CustomerName partial-matches the customer column.
	CustomerName string
	// Keyword partial-matches across title, description and product fields.
	Keyword string
	// TechnicianName narrows to jobs assigned to technicians whose full
	// name partial-matches. It never widens a technician's own scope.
	TechnicianName string
}

// Assignee names either a technician or a team, never both.
type Assignee struct {
	technicianID *uint
	teamID       *uint
}

// TechnicianAssignee builds an assignee pointing at an individual.
func TechnicianAssignee(id uint) Assignee {
	return Assignee{technicianID: &id}
}

// TeamAssignee builds an assignee pointing at a crew.
func TeamAssignee(id uint) Assignee {
	return Assignee{teamID: &id}
}

// TechnicianID returns the individual the assignee points at, if any.
func (a Assignee) TechnicianID() *uint { return a.technicianID }

// TeamID returns the crew the assignee points at, if any.
func (a Assignee) TeamID() *uint { return a.teamID }

func (a Assignee) isValid() bool {
	return (a.technicianID != nil) != (a.teamID != nil)
}

// CreateJobInput captures the fields required to schedule a job.
type CreateJobInput struct {
	Title           string
	Description     *string
	JobType         enums.JobType
	ProjectID       *uint
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	LocationLat     *string
	LocationLong    *string
	ProductType     *string
	Model           *string
	ScheduledDate   time.Time
	ScheduledTime   *string
	Assignees       []Assignee
}

// UpdateJobInput captures the mutable job fields. Nil means unchanged.
type UpdateJobInput struct {
	Title           *string
	Description     *string
	JobType         *enums.JobType
	ProjectID       *uint
	ClearProject    bool
	CustomerName    *string
	CustomerPhone   *string
	CustomerAddress *string
	LocationLat     *string
	LocationLong    *string
	ProductType     *string
	Model           *string
	ScheduledDate   *time.Time
	ScheduledTime   *string
}

// ChangeStatusInput drives one lifecycle transition.
type ChangeStatusInput struct {
	Status enums.JobStatus
	Note   *string
	// RecordHistory appends a JobHistory row for the transition. The
	// conversational channel sets it; the direct API does not.
	RecordHistory bool
}

// AssignmentDTO is the outward representation of one assignment row.
type AssignmentDTO struct {
	ID             uint       `json:"id"`
	TechnicianID   *uint      `json:"technician_id,omitempty"`
	TechnicianName *string    `json:"technician_name,omitempty"`
	TeamID         *uint      `json:"team_id,omitempty"`
	TeamName       *string    `json:"team_name,omitempty"`
	AssignedAt     time.Time  `json:"assigned_at"`
	CheckInTime    *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime   *time.Time `json:"check_out_time,omitempty"`
	CompletionNote *string    `json:"completion_notes,omitempty"`
	Rating         *int       `json:"rating,omitempty"`
}

// JobDTO is the listing shape for a job.
type JobDTO struct {
	ID            uint            `json:"id"`
	Title         string          `json:"title"`
	JobType       enums.JobType   `json:"job_type"`
	Status        enums.JobStatus `json:"status"`
	ProjectID     *uint           `json:"project_id,omitempty"`
	ProjectName   *string         `json:"project_name,omitempty"`
	CustomerName  string          `json:"customer_name"`
	LocationLat   *string         `json:"location_lat,omitempty"`
	LocationLong  *string         `json:"location_long,omitempty"`
	ProductType   *string         `json:"product_type,omitempty"`
	Model         *string         `json:"model,omitempty"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	ScheduledTime *string         `json:"scheduled_time,omitempty"`
	Assignments   []AssignmentDTO `json:"assignments,omitempty"`
}

// JobDetailDTO extends the listing shape with everything a dispatcher or
// technician needs on the detail view.
type JobDetailDTO struct {
	JobDTO
	Description     *string      `json:"description,omitempty"`
	CustomerPhone   string       `json:"customer_phone"`
	CustomerAddress string       `json:"customer_address"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	History         []HistoryDTO `json:"history,omitempty"`
}

// HistoryDTO is one entry of the status audit trail.
type HistoryDTO struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	OldStatus enums.JobStatus `json:"old_status"`
	NewStatus enums.JobStatus `json:"new_status"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// FromModel maps a persisted job onto the listing DTO.
func FromModel(job *models.Job) *JobDTO {
	if job == nil {
		return nil
	}
	dto := &JobDTO{
		ID:            job.ID,
		Title:         job.Title,
		JobType:       job.JobType,
		Status:        job.Status,
		ProjectID:     job.ProjectID,
		CustomerName:  job.CustomerName,
		LocationLat:   job.LocationLat,
		LocationLong:  job.LocationLong,
		ProductType:   job.ProductType,
		Model:         job.Model,
		ScheduledDate: job.ScheduledDate,
		ScheduledTime: job.ScheduledTime,
	}
	if job.Project != nil {
		name := job.Project.Name
		dto.ProjectName = &name
	}
	for i := range job.Assignments {
		dto.Assignments = append(dto.Assignments, assignmentFromModel(&job.Assignments[i]))
	}
	return dto
}

// DetailFromModel maps a persisted job plus its audit trail onto the
// detail DTO.
func DetailFromModel(job *models.Job, history []models.JobHistory) *JobDetailDTO {
	if job == nil {
		return nil
	}
	dto := &JobDetailDTO{
		JobDTO:          *FromModel(job),
		Description:     job.Description,
		CustomerPhone:   job.CustomerPhone,
		CustomerAddress: job.CustomerAddress,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
	for i := range history {
		entry := &history[i]
		dto.History = append(dto.History, HistoryDTO{
			ID:        entry.ID,
			UserID:    entry.UserID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return dto
}

func assignmentFromModel(a *models.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:             a.ID,
		TechnicianID:   a.TechnicianID,
		TeamID:         a.TeamID,
		AssignedAt:     a.AssignedAt,
		CheckInTime:    a.CheckInTime,
		CheckOutTime:   a.CheckOutTime,
		CompletionNote: a.CompletionNotes,
		Rating:         a.Rating,
	}
	if a.Technician != nil {
		name := a.Technician.FullName
		dto.TechnicianName = &name
	}
	if a.Team != nil {
		name := a.Team.Name
		dto.TeamName = &name
	}
	return dto
}
