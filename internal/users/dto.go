package users

import (
	"github.com/pimtong/fieldworks-backend/pkg/db/models"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
)

// CreateUserInput captures the fields required to provision an account.
type CreateUserInput struct {
	Username    string
	Password    string
	FullName    string
	Role        enums.UserRole
	TeamID      *uint
	PhoneNumber *string
	Email       *string
}

// UpdateUserInput captures the mutable account fields. Nil means unchanged.
type UpdateUserInput struct {
	FullName    *string
	Role        *enums.UserRole
	TeamID      *uint
	ClearTeam   bool
	PhoneNumber *string
	Email       *string
	IsActive    *bool
}

// UserDTO is the outward representation of an account.
type UserDTO struct {
	ID          uint           `json:"id"`
	Username    string         `json:"username"`
	FullName    string         `json:"full_name"`
	Role        enums.UserRole `json:"role"`
	TeamID      *uint          `json:"team_id,omitempty"`
	TeamName    *string        `json:"team_name,omitempty"`
	TelegramID  *string        `json:"telegram_id,omitempty"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	Email       *string        `json:"email,omitempty"`
	IsActive    bool           `json:"is_active"`
}

// FromModel maps a persisted user onto the DTO shape.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        user.Role,
		TeamID:      user.TeamID,
		TelegramID:  user.TelegramID,
		PhoneNumber: user.PhoneNumber,
		Email:       user.Email,
		IsActive:    user.IsActive,
	}
	if user.Team != nil {
		name := user.Team.Name
		dto.TeamName = &name
	}
	return dto
}
