package models

import (
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// Project is an optional grouping container for jobs. Its status is
// independent of its jobs' statuses, and deleting a project never deletes
// the jobs that reference it.
type Project struct {
	ID           uint                `gorm:"primaryKey"`
	Name         string              `gorm:"type:text;not null;index"`
	Description  *string             `gorm:"type:text"`
	CustomerName *string             `gorm:"column:customer_name"`
	StartDate    *time.Time          `gorm:"column:start_date;type:date"`
	EndDate      *time.Time          `gorm:"column:end_date;type:date"`
	Status       enums.ProjectStatus `gorm:"type:text;not null;default:'active'"`

	Jobs []Job `gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL"`
}
