package models

import "time"

// Assignment binds a job to either a technician or a team; exactly one of
// TechnicianID/TeamID is set. Rows are replaced wholesale on re-assignment,
// so the telemetry columns only survive for assignments that are kept.
type Assignment struct {
	ID    uint `gorm:"primaryKey"`
	JobID uint `gorm:"column:job_id;not null;index"`

	TechnicianID *uint `gorm:"column:technician_id"`
	TeamID       *uint `gorm:"column:team_id"`

	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime"`

	CheckInTime     *time.Time `gorm:"column:check_in_time"`
	CheckOutTime    *time.Time `gorm:"column:check_out_time"`
	CompletionNotes *string    `gorm:"column:completion_notes;type:text"`
	Rating          *int       `gorm:"column:rating"`

	Technician *User `gorm:"foreignKey:TechnicianID"`
	Team       *Team `gorm:"foreignKey:TeamID"`
}
