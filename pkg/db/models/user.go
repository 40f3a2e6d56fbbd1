package models

import (
	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// User represents the canonical identity entity. TelegramID is the external
// chat identity linked through the conversational channel; at most one user
// may hold a given chat identity.
type User struct {
	ID           uint           `gorm:"primaryKey"`
	Username     string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Role         enums.UserRole `gorm:"type:text;not null;default:'technician'"`
	TeamID       *uint          `gorm:"column:team_id"`
	TelegramID   *string        `gorm:"column:telegram_id;uniqueIndex"`
	PhoneNumber  *string        `gorm:"column:phone_number"`
	Email        *string        `gorm:"column:email"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`

	Team *Team `gorm:"foreignKey:TeamID"`
}
