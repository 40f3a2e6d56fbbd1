package models

// Team groups technicians that can be assigned to jobs as a unit.
type Team struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"type:text;not null;uniqueIndex"`
	Color string `gorm:"type:text;not null;default:'#0ea5e9'"`

	Members []User `gorm:"foreignKey:TeamID"`
}
