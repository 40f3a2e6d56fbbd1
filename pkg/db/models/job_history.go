package models

import (
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// JobHistory is an append-only audit record for status transitions made
// through the conversational channel. Rows are never updated or deleted.
type JobHistory struct {
	ID        uint            `gorm:"primaryKey"`
	JobID     uint            `gorm:"column:job_id;not null;index"`
	UserID    uint            `gorm:"column:user_id;not null"`
	OldStatus enums.JobStatus `gorm:"column:old_status;type:text;not null"`
	NewStatus enums.JobStatus `gorm:"column:new_status;type:text;not null"`
	Note      *string         `gorm:"type:text"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`

	Job  *Job  `gorm:"foreignKey:JobID"`
	User *User `gorm:"foreignKey:UserID"`
}
