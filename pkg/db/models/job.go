package models

import (
	"time"

	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// Job is the central schedulable unit of field work.
type Job struct {
	ID          uint            `gorm:"primaryKey"`
	Title       string          `gorm:"type:text;not null;index"`
	Description *string         `gorm:"type:text"`
	JobType     enums.JobType   `gorm:"column:job_type;type:text;not null;default:'service'"`
	Status      enums.JobStatus `gorm:"type:text;not null;default:'pending';index"`

	ProjectID *uint `gorm:"column:project_id"`

	CustomerName    string  `gorm:"column:customer_name;not null"`
	CustomerPhone   string  `gorm:"column:customer_phone;not null"`
	CustomerAddress string  `gorm:"column:customer_address;not null"`
	LocationLat     *string `gorm:"column:location_lat"`
	LocationLong    *string `gorm:"column:location_long"`

	ProductType *string `gorm:"column:product_type"`
	Model       *string `gorm:"column:model"`

	ScheduledDate time.Time `gorm:"column:scheduled_date;type:date;not null;index"`
	ScheduledTime *string   `gorm:"column:scheduled_time"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Project     *Project     `gorm:"foreignKey:ProjectID"`
	Assignments []Assignment `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}
